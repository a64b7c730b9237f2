package aggregation

import "github.com/rpless/druid/segment"

// AggregateCombiner merges already-finalized aggregate values from multiple
// partial computations, without access to the original raw rows. It holds
// exactly one running result: Reset discards prior state and seeds from the
// selector's current value, Fold merges in one more.
type AggregateCombiner interface {
	Reset(selector segment.ColumnValueSelector)
	Fold(selector segment.ColumnValueSelector)
	Get() interface{}
}

// LongAggregateCombiner is an AggregateCombiner over a primitive long result.
type LongAggregateCombiner interface {
	AggregateCombiner
	GetLong() int64
}
