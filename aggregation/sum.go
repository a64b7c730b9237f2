package aggregation

import "github.com/rpless/druid/segment"

// LongSumAggregatorFactory sums a long column. Its identity element is 0 and
// its merge is plain addition, which is associative and commutative without
// needing a comparator.
type LongSumAggregatorFactory struct {
	name      string
	fieldName string

	spec *TimestampSpec
}

func NewLongSumAggregatorFactory(name, fieldName string) *LongSumAggregatorFactory {
	return &LongSumAggregatorFactory{
		name:      name,
		fieldName: fieldName,
		spec:      NewTimestampSpec("auto"),
	}
}

func (f *LongSumAggregatorFactory) Name() string {
	return f.name
}

func (f *LongSumAggregatorFactory) FieldName() string {
	return f.fieldName
}

func (f *LongSumAggregatorFactory) RequiredFields() []string {
	return []string{f.fieldName}
}

func (f *LongSumAggregatorFactory) Factorize(
	factory segment.ColumnSelectorFactory) (Aggregator, error) {

	selector, err := factory.MakeColumnValueSelector(f.fieldName)
	if err != nil {
		return nil, err
	}
	return &longSumAggregator{selector: selector, spec: f.spec}, nil
}

func (f *LongSumAggregatorFactory) FactorizeBuffered(
	factory segment.ColumnSelectorFactory) (BufferAggregator, error) {

	selector, err := factory.MakeColumnValueSelector(f.fieldName)
	if err != nil {
		return nil, err
	}
	return &longSumBufferAggregator{selector: selector, spec: f.spec}, nil
}

func (f *LongSumAggregatorFactory) Combine(lhs, rhs interface{}) interface{} {
	return lhs.(int64) + rhs.(int64)
}

func (f *LongSumAggregatorFactory) MakeAggregateCombiner() AggregateCombiner {
	return &longSumCombiner{spec: f.spec}
}

func (f *LongSumAggregatorFactory) CombiningFactory() AggregatorFactory {
	return NewLongSumAggregatorFactory(f.name, f.name)
}

func (f *LongSumAggregatorFactory) MergingFactory(
	other AggregatorFactory) (AggregatorFactory, error) {

	o, ok := other.(*LongSumAggregatorFactory)
	if !ok || o.name != f.name {
		return nil, &NotMergeableError{This: f, Other: other}
	}
	return f.CombiningFactory(), nil
}

func (f *LongSumAggregatorFactory) RequiredColumns() []AggregatorFactory {
	return []AggregatorFactory{
		NewLongSumAggregatorFactory(f.fieldName, f.fieldName),
	}
}

func (f *LongSumAggregatorFactory) Deserialize(v interface{}) interface{} {
	return v
}

func (f *LongSumAggregatorFactory) FinalizeComputation(v interface{}) interface{} {
	return v
}

func (f *LongSumAggregatorFactory) CacheKey() []byte {
	return buildCacheKey(cacheTypeIDLongSum, f.fieldName)
}

func (f *LongSumAggregatorFactory) MaxIntermediateSize() int {
	return longSlotSize
}

func (f *LongSumAggregatorFactory) Spec() FactorySpec {
	return FactorySpec{Type: TypeLongSum, Name: f.name, FieldName: f.fieldName}
}

func (f *LongSumAggregatorFactory) Equals(other AggregatorFactory) bool {
	o, ok := other.(*LongSumAggregatorFactory)
	if !ok {
		return false
	}
	return f.name == o.name && f.fieldName == o.fieldName
}

type longSumAggregator struct {
	selector segment.ColumnValueSelector
	spec     *TimestampSpec
	sum      int64
}

func (a *longSumAggregator) Aggregate() {
	value, ok := readLong(a.spec, a.selector)
	if !ok {
		return
	}
	a.sum += value
}

func (a *longSumAggregator) Get() interface{} {
	return a.sum
}

func (a *longSumAggregator) GetLong() int64 {
	return a.sum
}

func (a *longSumAggregator) Close() {}

type longSumBufferAggregator struct {
	selector segment.ColumnValueSelector
	spec     *TimestampSpec
}

func (a *longSumBufferAggregator) Init(arena *Arena, position int) {
	putLongSlot(arena, position, 0)
}

func (a *longSumBufferAggregator) Aggregate(arena *Arena, position int) {
	value, ok := readLong(a.spec, a.selector)
	if !ok {
		return
	}
	putLongSlot(arena, position, getLongSlot(arena, position)+value)
}

func (a *longSumBufferAggregator) Get(arena *Arena, position int) interface{} {
	return getLongSlot(arena, position)
}

func (a *longSumBufferAggregator) GetLong(arena *Arena, position int) int64 {
	return getLongSlot(arena, position)
}

func (a *longSumBufferAggregator) Close() {}

type longSumCombiner struct {
	spec   *TimestampSpec
	result int64
}

func (c *longSumCombiner) Reset(selector segment.ColumnValueSelector) {
	c.result, _ = readLong(c.spec, selector)
}

func (c *longSumCombiner) Fold(selector segment.ColumnValueSelector) {
	other, ok := readLong(c.spec, selector)
	if !ok {
		return
	}
	c.result += other
}

func (c *longSumCombiner) Get() interface{} {
	return c.result
}

func (c *longSumCombiner) GetLong() int64 {
	return c.result
}
