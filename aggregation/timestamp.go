package aggregation

import (
	"encoding/binary"

	"github.com/rpless/druid/segment"
)

const longSlotSize = 8

func putLongSlot(arena *Arena, position int, v int64) {
	binary.LittleEndian.PutUint64(arena.Slot(position, longSlotSize), uint64(v))
}

func getLongSlot(arena *Arena, position int) int64 {
	return int64(binary.LittleEndian.Uint64(arena.Slot(position, longSlotSize)))
}

// TimestampAggregator keeps the extremum timestamp seen during one scan.
type TimestampAggregator struct {
	selector segment.ColumnValueSelector
	spec     *TimestampSpec
	cmp      LongComparator
	most     int64
}

func NewTimestampAggregator(
	selector segment.ColumnValueSelector,
	spec *TimestampSpec,
	cmp LongComparator,
	initValue int64) *TimestampAggregator {

	return &TimestampAggregator{
		selector: selector,
		spec:     spec,
		cmp:      cmp,
		most:     initValue,
	}
}

func (a *TimestampAggregator) Aggregate() {
	value, ok := readLong(a.spec, a.selector)
	if !ok {
		return
	}
	a.most = combineLong(a.cmp, a.most, value)
}

func (a *TimestampAggregator) Get() interface{} {
	return a.most
}

func (a *TimestampAggregator) GetLong() int64 {
	return a.most
}

func (a *TimestampAggregator) Close() {}

// TimestampBufferAggregator is the arena-slot form of TimestampAggregator.
// Its entire state is the 8-byte long at its slot.
type TimestampBufferAggregator struct {
	selector  segment.ColumnValueSelector
	spec      *TimestampSpec
	cmp       LongComparator
	initValue int64
}

func NewTimestampBufferAggregator(
	selector segment.ColumnValueSelector,
	spec *TimestampSpec,
	cmp LongComparator,
	initValue int64) *TimestampBufferAggregator {

	return &TimestampBufferAggregator{
		selector:  selector,
		spec:      spec,
		cmp:       cmp,
		initValue: initValue,
	}
}

func (a *TimestampBufferAggregator) Init(arena *Arena, position int) {
	putLongSlot(arena, position, a.initValue)
}

func (a *TimestampBufferAggregator) Aggregate(arena *Arena, position int) {
	value, ok := readLong(a.spec, a.selector)
	if !ok {
		return
	}
	most := getLongSlot(arena, position)
	putLongSlot(arena, position, combineLong(a.cmp, most, value))
}

func (a *TimestampBufferAggregator) Get(arena *Arena, position int) interface{} {
	return getLongSlot(arena, position)
}

func (a *TimestampBufferAggregator) GetLong(arena *Arena, position int) int64 {
	return getLongSlot(arena, position)
}

func (a *TimestampBufferAggregator) Close() {}

// timestampCombiner merges finalized timestamp values. Fold keeps the newly
// folded value on ties (the <= 0 check), a deliberate, stable tie-break.
// Like Combine, it does no null filtering.
type timestampCombiner struct {
	spec   *TimestampSpec
	cmp    LongComparator
	result int64
}

func (c *timestampCombiner) Reset(selector segment.ColumnValueSelector) {
	c.result, _ = readLong(c.spec, selector)
}

func (c *timestampCombiner) Fold(selector segment.ColumnValueSelector) {
	other, ok := readLong(c.spec, selector)
	if !ok {
		return
	}
	if c.cmp.Compare(c.result, other) <= 0 {
		c.result = other
	}
}

func (c *timestampCombiner) Get() interface{} {
	return c.result
}

func (c *timestampCombiner) GetLong() int64 {
	return c.result
}
