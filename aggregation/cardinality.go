package aggregation

import (
	"encoding/binary"

	hll "github.com/axiomhq/hyperloglog"

	"github.com/rpless/druid/segment"
)

// A dense p=14 sketch marshals to 8 header bytes plus one byte per register
// (2^14). The cap adds slack over that worst case so a slot can always take
// the sketch back after the sparse-to-dense transition mid-scan.
const (
	cardinalityDenseSketchSize     = 8 + 1<<14
	cardinalitySketchCap           = cardinalityDenseSketchSize + 8
	cardinalityMaxIntermediateSize = 4 + cardinalitySketchCap
)

// CardinalityAggregatorFactory estimates the number of distinct values in a
// column with a hyperloglog sketch. Its intermediate representation is the
// sketch itself; sketch union is the merge, which is associative and
// commutative, and FinalizeComputation reads off the estimate.
type CardinalityAggregatorFactory struct {
	name      string
	fieldName string
}

func NewCardinalityAggregatorFactory(name, fieldName string) *CardinalityAggregatorFactory {
	return &CardinalityAggregatorFactory{name: name, fieldName: fieldName}
}

func (f *CardinalityAggregatorFactory) Name() string {
	return f.name
}

func (f *CardinalityAggregatorFactory) FieldName() string {
	return f.fieldName
}

func (f *CardinalityAggregatorFactory) RequiredFields() []string {
	return []string{f.fieldName}
}

func (f *CardinalityAggregatorFactory) Factorize(
	factory segment.ColumnSelectorFactory) (Aggregator, error) {

	selector, err := factory.MakeColumnValueSelector(f.fieldName)
	if err != nil {
		return nil, err
	}
	return &cardinalityAggregator{selector: selector, sketch: hll.New14()}, nil
}

func (f *CardinalityAggregatorFactory) FactorizeBuffered(
	factory segment.ColumnSelectorFactory) (BufferAggregator, error) {

	selector, err := factory.MakeColumnValueSelector(f.fieldName)
	if err != nil {
		return nil, err
	}
	return &cardinalityBufferAggregator{selector: selector}, nil
}

func (f *CardinalityAggregatorFactory) Combine(lhs, rhs interface{}) interface{} {
	merged := lhs.(*hll.Sketch).Clone()
	// Merge only fails across differing precisions; both sides are p=14.
	_ = merged.Merge(rhs.(*hll.Sketch))
	return merged
}

func (f *CardinalityAggregatorFactory) MakeAggregateCombiner() AggregateCombiner {
	return &cardinalityCombiner{}
}

func (f *CardinalityAggregatorFactory) CombiningFactory() AggregatorFactory {
	return NewCardinalityAggregatorFactory(f.name, f.name)
}

func (f *CardinalityAggregatorFactory) MergingFactory(
	other AggregatorFactory) (AggregatorFactory, error) {

	o, ok := other.(*CardinalityAggregatorFactory)
	if !ok || o.name != f.name {
		return nil, &NotMergeableError{This: f, Other: other}
	}
	return f.CombiningFactory(), nil
}

func (f *CardinalityAggregatorFactory) RequiredColumns() []AggregatorFactory {
	return []AggregatorFactory{
		NewCardinalityAggregatorFactory(f.fieldName, f.fieldName),
	}
}

// Deserialize decodes sketch bytes read back from storage; an in-memory
// sketch passes through untouched.
func (f *CardinalityAggregatorFactory) Deserialize(v interface{}) interface{} {
	buf, ok := v.([]byte)
	if !ok {
		return v
	}
	sketch, err := unmarshalSketch(buf)
	if err != nil {
		return nil
	}
	return sketch
}

func (f *CardinalityAggregatorFactory) FinalizeComputation(v interface{}) interface{} {
	return int64(v.(*hll.Sketch).Estimate())
}

func (f *CardinalityAggregatorFactory) CacheKey() []byte {
	return buildCacheKey(cacheTypeIDCardinality, f.fieldName)
}

func (f *CardinalityAggregatorFactory) MaxIntermediateSize() int {
	return cardinalityMaxIntermediateSize
}

func (f *CardinalityAggregatorFactory) Spec() FactorySpec {
	return FactorySpec{Type: TypeCardinality, Name: f.name, FieldName: f.fieldName}
}

func (f *CardinalityAggregatorFactory) Equals(other AggregatorFactory) bool {
	o, ok := other.(*CardinalityAggregatorFactory)
	if !ok {
		return false
	}
	return f.name == o.name && f.fieldName == o.fieldName
}

// insertValue feeds the current row into a sketch. Unconvertible rows are
// skipped silently, matching the framework's row-conversion policy.
func insertValue(sketch *hll.Sketch, selector segment.ColumnValueSelector) {
	if selector.NumericPrimitive() {
		insertLong(sketch, selector.Long())
		return
	}
	v := selector.Object()
	switch v.Kind {
	case segment.KindNumeric:
		insertLong(sketch, v.Long)
	case segment.KindTemporal:
		insertLong(sketch, v.Time.UnixMilli())
	case segment.KindText:
		sketch.Insert([]byte(v.Text))
	case segment.KindBytes:
		sketch.Insert(v.Bytes)
	}
}

func insertLong(sketch *hll.Sketch, v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	sketch.Insert(buf[:])
}

func marshalSketch(sketch *hll.Sketch) []byte {
	buf, err := sketch.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return buf
}

func unmarshalSketch(buf []byte) (*hll.Sketch, error) {
	sketch := hll.New14()
	if err := sketch.UnmarshalBinary(buf); err != nil {
		return nil, err
	}
	return sketch, nil
}

type cardinalityAggregator struct {
	selector segment.ColumnValueSelector
	sketch   *hll.Sketch
}

func (a *cardinalityAggregator) Aggregate() {
	insertValue(a.sketch, a.selector)
}

func (a *cardinalityAggregator) Get() interface{} {
	return a.sketch
}

func (a *cardinalityAggregator) GetLong() int64 {
	return int64(a.sketch.Estimate())
}

func (a *cardinalityAggregator) Close() {
	a.sketch = nil
}

// cardinalityBufferAggregator keeps a length-prefixed marshaled sketch in
// its slot: 4 bytes of little-endian length followed by the sketch encoding.
// Init zero-fills the slot and writes an empty sketch.
type cardinalityBufferAggregator struct {
	selector segment.ColumnValueSelector
}

func (a *cardinalityBufferAggregator) Init(arena *Arena, position int) {
	slot := arena.Slot(position, cardinalityMaxIntermediateSize)
	for i := range slot {
		slot[i] = 0
	}
	writeSketchSlot(slot, hll.New14())
}

func (a *cardinalityBufferAggregator) Aggregate(arena *Arena, position int) {
	slot := arena.Slot(position, cardinalityMaxIntermediateSize)
	sketch := readSketchSlot(slot)
	insertValue(sketch, a.selector)
	writeSketchSlot(slot, sketch)
}

func (a *cardinalityBufferAggregator) Get(arena *Arena, position int) interface{} {
	return readSketchSlot(arena.Slot(position, cardinalityMaxIntermediateSize))
}

func (a *cardinalityBufferAggregator) GetLong(arena *Arena, position int) int64 {
	return int64(readSketchSlot(arena.Slot(position, cardinalityMaxIntermediateSize)).Estimate())
}

func (a *cardinalityBufferAggregator) Close() {}

func writeSketchSlot(slot []byte, sketch *hll.Sketch) {
	buf := marshalSketch(sketch)
	if len(buf) > cardinalitySketchCap {
		panic("cardinality sketch exceeds slot capacity")
	}
	binary.LittleEndian.PutUint32(slot[:4], uint32(len(buf)))
	copy(slot[4:], buf)
}

func readSketchSlot(slot []byte) *hll.Sketch {
	n := binary.LittleEndian.Uint32(slot[:4])
	sketch, err := unmarshalSketch(slot[4 : 4+n])
	if err != nil {
		panic(err)
	}
	return sketch
}

type cardinalityCombiner struct {
	result *hll.Sketch
}

func (c *cardinalityCombiner) Reset(selector segment.ColumnValueSelector) {
	c.result = readSketch(selector)
	if c.result == nil {
		c.result = hll.New14()
	}
}

func (c *cardinalityCombiner) Fold(selector segment.ColumnValueSelector) {
	other := readSketch(selector)
	if other == nil {
		return
	}
	_ = c.result.Merge(other)
}

func (c *cardinalityCombiner) Get() interface{} {
	return c.result
}

// readSketch extracts a finalized first-stage sketch from a merge-stage
// selector carrying serialized sketch bytes.
func readSketch(selector segment.ColumnValueSelector) *hll.Sketch {
	v := selector.Object()
	if v.Kind != segment.KindBytes {
		return nil
	}
	sketch, err := unmarshalSketch(v.Bytes)
	if err != nil {
		return nil
	}
	return sketch
}
