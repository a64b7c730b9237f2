package aggregation

import (
	"fmt"

	"github.com/rpless/druid/segment"
)

// AggregatorFactory is the immutable specification of one aggregation over
// one column. It constructs the per-scan accumulators, defines how two
// finalized values merge, gates merge compatibility between factories, and
// produces the deterministic cache key for query-result caching. A factory
// never holds per-scan state.
type AggregatorFactory interface {
	// Name is the output field this aggregation produces.
	Name() string
	// RequiredFields lists the source columns read during a first-stage scan.
	RequiredFields() []string

	// Factorize binds a fresh heap accumulator to the source column. It
	// fails with *segment.UnresolvableColumnError when the field cannot be
	// resolved, at construction time, never deferred to the first aggregate.
	Factorize(factory segment.ColumnSelectorFactory) (Aggregator, error)
	// FactorizeBuffered is the arena-offset variant of Factorize.
	FactorizeBuffered(factory segment.ColumnSelectorFactory) (BufferAggregator, error)

	// Combine merges two already-finalized accumulator values. It is pure,
	// associative and order-independent under the factory's comparator.
	// Nulls are not filtered; callers must not pass missing values.
	Combine(lhs, rhs interface{}) interface{}
	// MakeAggregateCombiner returns a merge-only combiner whose fold
	// semantics match Combine.
	MakeAggregateCombiner() AggregateCombiner

	// CombiningFactory returns the second-stage factory that aggregates
	// over this factory's output column instead of the raw source column.
	CombiningFactory() AggregatorFactory
	// MergingFactory returns CombiningFactory() when other names the same
	// output and is the same concrete aggregation kind; otherwise it
	// returns a *NotMergeableError.
	MergingFactory(other AggregatorFactory) (AggregatorFactory, error)
	// RequiredColumns returns the first-stage factories whose output must
	// exist before this factory can run.
	RequiredColumns() []AggregatorFactory

	// Deserialize normalizes a value read back from storage or cache.
	Deserialize(v interface{}) interface{}
	// FinalizeComputation converts the internal accumulator representation
	// into the user-facing output type. Applied exactly once, after all
	// combining is complete.
	FinalizeComputation(v interface{}) interface{}

	// CacheKey deterministically identifies this aggregation operation:
	// one kind tag byte followed by the UTF-8 bytes of the source field.
	CacheKey() []byte
	// MaxIntermediateSize bounds the byte footprint of one arena slot. A
	// BufferAggregator built by this factory never touches bytes outside
	// [position, position+MaxIntermediateSize).
	MaxIntermediateSize() int

	// Equals reports structural equality; interchangeable factories (and
	// only those) compare equal. Cached parse helpers are excluded.
	Equals(other AggregatorFactory) bool
}

// FactorySpec is the plain-data configuration form of a factory. It
// round-trips: FromSpec(f.Spec()) is Equals-identical to f.
type FactorySpec struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	FieldName  string `json:"fieldName"`
	TimeFormat string `json:"timeFormat,omitempty"`
}

// FromSpec builds a factory from its configuration form.
func FromSpec(spec FactorySpec) (AggregatorFactory, error) {
	switch spec.Type {
	case TypeTimeMax:
		return NewTimestampMaxAggregatorFactory(spec.Name, spec.FieldName, spec.TimeFormat), nil
	case TypeTimeMin:
		return NewTimestampMinAggregatorFactory(spec.Name, spec.FieldName, spec.TimeFormat), nil
	case TypeLongSum:
		return NewLongSumAggregatorFactory(spec.Name, spec.FieldName), nil
	case TypeCardinality:
		return NewCardinalityAggregatorFactory(spec.Name, spec.FieldName), nil
	}
	return nil, fmt.Errorf("unknown aggregation type %q", spec.Type)
}
