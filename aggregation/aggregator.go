package aggregation

// Aggregator is a heap-resident accumulator bound to one column for the
// duration of one segment scan. The engine owns it exclusively: it calls
// Aggregate once per scanned row, reads the accumulated value with Get or
// GetLong, then Closes it when the scan is discarded. An Aggregator is never
// shared across goroutines.
type Aggregator interface {
	Aggregate()
	Get() interface{}
	GetLong() int64
	Close()
}

// BufferAggregator runs the same accumulation logic as Aggregator but keeps
// its state at a caller-assigned offset inside a shared Arena, so many
// group-by slots coexist in one contiguous region. Callers must Init each
// offset exactly once before any Aggregate or Get at that offset. All reads
// and writes stay inside [position, position+MaxIntermediateSize); distinct
// offsets are fully independent, so different goroutines may aggregate into
// different offsets of the same arena concurrently. Aggregating into the
// same offset concurrently is not supported.
type BufferAggregator interface {
	Init(arena *Arena, position int)
	Aggregate(arena *Arena, position int)
	Get(arena *Arena, position int) interface{}
	GetLong(arena *Arena, position int) int64
	Close()
}
