package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rpless/druid/aggregation"
	"github.com/rpless/druid/segment"
)

func eventSegment(times []int64, counts []int64) *segment.Segment {
	return segment.NewSegment().
		AddColumn("time", segment.LongColumn(times...)).
		AddColumn("count", segment.LongColumn(counts...))
}

func testFactories() []aggregation.AggregatorFactory {
	return []aggregation.AggregatorFactory{
		aggregation.NewTimestampMaxAggregatorFactory("latest", "time", "millis"),
		aggregation.NewLongSumAggregatorFactory("total", "count"),
	}
}

func TestEngine_Scan(t *testing.T) {
	engine := NewEngine(nil)
	seg := eventSegment([]int64{100, 300, 200}, []int64{1, 2, 3})

	results, err := engine.Scan(seg.NewCursor(), testFactories())
	assert.NoError(t, err)
	assert.Equal(t, int64(300), results["latest"])
	assert.Equal(t, int64(6), results["total"])
}

func TestEngine_ScanUnresolvableColumn(t *testing.T) {
	engine := NewEngine(nil)
	seg := segment.NewSegment().AddColumn("time", segment.LongColumn(1))

	_, err := engine.Scan(seg.NewCursor(), testFactories())
	unresolvable := &segment.UnresolvableColumnError{}
	assert.ErrorAs(t, err, &unresolvable)
}

func TestEngine_GroupedScanMatchesHeapScans(t *testing.T) {
	engine := NewEngine(nil)
	seg := segment.NewSegment().
		AddColumn("host", segment.ObjectColumn(
			segment.TextValue("a"), segment.TextValue("b"),
			segment.TextValue("a"), segment.TextValue("b"),
			segment.TextValue("a"))).
		AddColumn("time", segment.LongColumn(10, 40, 30, 20, 50)).
		AddColumn("count", segment.LongColumn(1, 2, 3, 4, 5))

	grouped, err := engine.GroupedScan(seg.NewCursor(), "host", testFactories(), 8)
	assert.NoError(t, err)
	assert.Len(t, grouped, 2)

	hostA := segment.NewSegment().
		AddColumn("time", segment.LongColumn(10, 30, 50)).
		AddColumn("count", segment.LongColumn(1, 3, 5))
	hostB := segment.NewSegment().
		AddColumn("time", segment.LongColumn(40, 20)).
		AddColumn("count", segment.LongColumn(2, 4))

	wantA, err := engine.Scan(hostA.NewCursor(), testFactories())
	assert.NoError(t, err)
	wantB, err := engine.Scan(hostB.NewCursor(), testFactories())
	assert.NoError(t, err)

	assert.Equal(t, wantA, grouped["a"])
	assert.Equal(t, wantB, grouped["b"])
}

func TestEngine_GroupedScanTooManyGroups(t *testing.T) {
	engine := NewEngine(nil)
	seg := segment.NewSegment().
		AddColumn("host", segment.ObjectColumn(
			segment.TextValue("a"), segment.TextValue("b"))).
		AddColumn("time", segment.LongColumn(1, 2)).
		AddColumn("count", segment.LongColumn(1, 2))

	_, err := engine.GroupedScan(seg.NewCursor(), "host", testFactories(), 1)
	assert.Error(t, err)
}

func TestEngine_GroupedScanKeepsOddGroupsApart(t *testing.T) {
	engine := NewEngine(nil)
	seg := segment.NewSegment().
		AddColumn("host", segment.ObjectColumn(
			segment.TextValue(""),
			segment.UnconvertibleValue(),
			segment.BytesValue([]byte{0x01}),
			segment.UnconvertibleValue())).
		AddColumn("time", segment.LongColumn(10, 20, 30, 40)).
		AddColumn("count", segment.LongColumn(1, 2, 4, 8))

	grouped, err := engine.GroupedScan(seg.NewCursor(), "host", testFactories(), 8)
	assert.NoError(t, err)

	// Empty text, raw bytes and unconvertible values each form their own
	// group instead of collapsing into one.
	assert.Len(t, grouped, 3)
	assert.Equal(t, int64(1), grouped[""]["total"])
	assert.Equal(t, int64(4), grouped[string([]byte{0x01})]["total"])
	assert.Equal(t, int64(10), grouped[unconvertibleGroupKey]["total"])
	assert.Equal(t, int64(40), grouped[unconvertibleGroupKey]["latest"])
}

func TestEngine_ParallelScanMatchesSingleScan(t *testing.T) {
	engine := NewEngine(nil)
	segments := []*segment.Segment{
		eventSegment([]int64{100, 300}, []int64{1, 2}),
		eventSegment([]int64{250}, []int64{4}),
		eventSegment([]int64{50, 75, 60}, []int64{8, 16, 32}),
	}

	combined, err := engine.ParallelScan(context.Background(), segments, testFactories())
	assert.NoError(t, err)
	assert.Equal(t, int64(300), combined["latest"])
	assert.Equal(t, int64(63), combined["total"])

	// Partition shape does not matter: combining pairwise in a different
	// order produces the same values.
	partials := make([]map[string]interface{}, len(segments))
	for i, seg := range segments {
		partial, err := engine.Scan(seg.NewCursor(), testFactories())
		assert.NoError(t, err)
		partials[i] = partial
	}
	reordered := CombinePartials(testFactories(),
		[]map[string]interface{}{partials[2], partials[0], partials[1]})
	assert.Equal(t, combined, reordered)
}

func TestFinalizeResults_AppliedOnce(t *testing.T) {
	factories := testFactories()
	results := map[string]interface{}{
		"latest": int64(1592179200000),
		"total":  int64(9),
	}

	finalized := FinalizeResults(factories, results)

	assert.Equal(t,
		time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC), finalized["latest"])
	assert.Equal(t, int64(9), finalized["total"])
	// The raw results are untouched; finalization is not in-place.
	assert.Equal(t, int64(1592179200000), results["latest"])
}
