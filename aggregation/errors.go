package aggregation

import "fmt"

// NotMergeableError is returned by MergingFactory when two factories share
// an output name but are not the same aggregation kind and configuration.
// Merging them would produce semantically wrong results, so the condition is
// always surfaced, never silently resolved.
type NotMergeableError struct {
	This  AggregatorFactory
	Other AggregatorFactory
}

func (e *NotMergeableError) Error() string {
	return fmt.Sprintf(
		"aggregator factory %T[%s] cannot merge with %T[%s]",
		e.This, e.This.Name(), e.Other, e.Other.Name())
}
