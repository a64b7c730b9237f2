package query

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rpless/druid/aggregation"
	"github.com/rpless/druid/segment"
)

// Engine drives segment scans and merges their partial aggregates. It owns
// no aggregation state itself; every scan gets fresh accumulators from the
// factories, so concurrent scans never share mutable state.
type Engine struct {
	log *zap.Logger
}

func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log}
}

// Scan drives heap aggregators over one cursor, one aggregate call per row,
// and returns the raw accumulated value per output name. Values are not
// finalized; callers combine partials first and finalize once at the end.
func (e *Engine) Scan(
	cursor *segment.Cursor,
	factories []aggregation.AggregatorFactory) (map[string]interface{}, error) {

	aggregators := make([]aggregation.Aggregator, len(factories))
	for i, factory := range factories {
		aggregator, err := factory.Factorize(cursor)
		if err != nil {
			return nil, err
		}
		aggregators[i] = aggregator
	}

	for cursor.Reset(); !cursor.Done(); cursor.Advance() {
		for _, aggregator := range aggregators {
			aggregator.Aggregate()
		}
	}

	results := make(map[string]interface{}, len(factories))
	for i, factory := range factories {
		results[factory.Name()] = aggregators[i].Get()
		aggregators[i].Close()
	}
	return results, nil
}

// GroupedScan aggregates into one shared arena, one slot row per group. Slot
// offsets are assigned as new groups appear and never overlap: each group
// gets a contiguous run of every factory's MaxIntermediateSize. Each slot is
// initialized exactly once, before its first aggregate.
func (e *Engine) GroupedScan(
	cursor *segment.Cursor,
	groupField string,
	factories []aggregation.AggregatorFactory,
	maxGroups int) (map[string]map[string]interface{}, error) {

	groupSelector, err := cursor.MakeColumnValueSelector(groupField)
	if err != nil {
		return nil, err
	}

	aggregators := make([]aggregation.BufferAggregator, len(factories))
	offsets := make([]int, len(factories))
	slotSize := 0
	for i, factory := range factories {
		aggregator, err := factory.FactorizeBuffered(cursor)
		if err != nil {
			return nil, err
		}
		aggregators[i] = aggregator
		offsets[i] = slotSize
		slotSize += factory.MaxIntermediateSize()
	}

	arena := aggregation.NewArena(maxGroups * slotSize)
	groupBases := make(map[string]int)

	for cursor.Reset(); !cursor.Done(); cursor.Advance() {
		groupKey := groupKeyString(groupSelector)
		base, seen := groupBases[groupKey]
		if !seen {
			base = len(groupBases) * slotSize
			if !arena.Fits(base, slotSize) {
				return nil, fmt.Errorf(
					"grouped scan exceeded %d groups", maxGroups)
			}
			groupBases[groupKey] = base
			for i, aggregator := range aggregators {
				aggregator.Init(arena, base+offsets[i])
			}
		}
		for i, aggregator := range aggregators {
			aggregator.Aggregate(arena, base+offsets[i])
		}
	}

	results := make(map[string]map[string]interface{}, len(groupBases))
	for groupKey, base := range groupBases {
		groupResult := make(map[string]interface{}, len(factories))
		for i, factory := range factories {
			groupResult[factory.Name()] = aggregators[i].Get(arena, base+offsets[i])
		}
		results[groupKey] = groupResult
	}
	for _, aggregator := range aggregators {
		aggregator.Close()
	}
	return results, nil
}

// ParallelScan runs one scan per segment concurrently and combines the
// partial results in segment order. Combining is associative, so any
// partition or merge-tree shape over the same segments yields the same
// values; the returned values are still unfinalized.
func (e *Engine) ParallelScan(
	ctx context.Context,
	segments []*segment.Segment,
	factories []aggregation.AggregatorFactory) (map[string]interface{}, error) {

	partials := make([]map[string]interface{}, len(segments))
	group, _ := errgroup.WithContext(ctx)

	for i, seg := range segments {
		i, seg := i, seg
		group.Go(func() error {
			partial, err := e.Scan(seg.NewCursor(), factories)
			if err != nil {
				return err
			}
			partials[i] = partial
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		e.log.Error("parallel scan failed", zap.Error(err))
		return nil, err
	}

	return CombinePartials(factories, partials), nil
}

// CombinePartials folds per-segment partial results into one, left to right.
func CombinePartials(
	factories []aggregation.AggregatorFactory,
	partials []map[string]interface{}) map[string]interface{} {

	combined := make(map[string]interface{}, len(factories))
	for _, factory := range factories {
		name := factory.Name()
		var acc interface{}
		for i, partial := range partials {
			if i == 0 {
				acc = partial[name]
				continue
			}
			acc = factory.Combine(acc, partial[name])
		}
		combined[name] = acc
	}
	return combined
}

// FinalizeResults applies each factory's finalization exactly once, after
// all combining is complete.
func FinalizeResults(
	factories []aggregation.AggregatorFactory,
	results map[string]interface{}) map[string]interface{} {

	finalized := make(map[string]interface{}, len(results))
	for _, factory := range factories {
		finalized[factory.Name()] = factory.FinalizeComputation(results[factory.Name()])
	}
	return finalized
}

// unconvertibleGroupKey collects rows whose group value has no usable form.
// They make up their own group; the NUL prefix keeps it apart from any text
// value, including the empty string.
const unconvertibleGroupKey = "\x00unconvertible"

func groupKeyString(selector segment.ColumnValueSelector) string {
	if selector.NumericPrimitive() {
		return fmt.Sprintf("%d", selector.Long())
	}
	v := selector.Object()
	switch v.Kind {
	case segment.KindNumeric:
		return fmt.Sprintf("%d", v.Long)
	case segment.KindTemporal:
		return fmt.Sprintf("%d", v.Time.UnixMilli())
	case segment.KindText:
		return v.Text
	case segment.KindBytes:
		return string(v.Bytes)
	}
	return unconvertibleGroupKey
}
