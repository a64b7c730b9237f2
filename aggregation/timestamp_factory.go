package aggregation

import (
	"math"
	"time"

	"github.com/rpless/druid/segment"
)

// TimestampAggregatorFactory is the extremum-timestamp aggregation: timeMax
// keeps the latest tick seen, timeMin the earliest. The factory is immutable;
// the timestamp parser is built once at construction and is excluded from
// identity.
type TimestampAggregatorFactory struct {
	name       string
	fieldName  string
	timeFormat string
	cmp        LongComparator
	initValue  int64

	spec *TimestampSpec
}

func NewTimestampMaxAggregatorFactory(name, fieldName, timeFormat string) *TimestampAggregatorFactory {
	return newTimestampAggregatorFactory(
		name, fieldName, timeFormat, Latest, math.MinInt64)
}

func NewTimestampMinAggregatorFactory(name, fieldName, timeFormat string) *TimestampAggregatorFactory {
	return newTimestampAggregatorFactory(
		name, fieldName, timeFormat, Earliest, math.MaxInt64)
}

func newTimestampAggregatorFactory(
	name, fieldName, timeFormat string,
	cmp LongComparator,
	initValue int64) *TimestampAggregatorFactory {

	return &TimestampAggregatorFactory{
		name:       name,
		fieldName:  fieldName,
		timeFormat: timeFormat,
		cmp:        cmp,
		initValue:  initValue,
		spec:       NewTimestampSpec(timeFormat),
	}
}

func (f *TimestampAggregatorFactory) Name() string {
	return f.name
}

func (f *TimestampAggregatorFactory) FieldName() string {
	return f.fieldName
}

func (f *TimestampAggregatorFactory) TimeFormat() string {
	return f.timeFormat
}

func (f *TimestampAggregatorFactory) Comparator() LongComparator {
	return f.cmp
}

func (f *TimestampAggregatorFactory) InitValue() int64 {
	return f.initValue
}

func (f *TimestampAggregatorFactory) RequiredFields() []string {
	return []string{f.fieldName}
}

func (f *TimestampAggregatorFactory) Factorize(
	factory segment.ColumnSelectorFactory) (Aggregator, error) {

	selector, err := factory.MakeColumnValueSelector(f.fieldName)
	if err != nil {
		return nil, err
	}
	return NewTimestampAggregator(selector, f.spec, f.cmp, f.initValue), nil
}

func (f *TimestampAggregatorFactory) FactorizeBuffered(
	factory segment.ColumnSelectorFactory) (BufferAggregator, error) {

	selector, err := factory.MakeColumnValueSelector(f.fieldName)
	if err != nil {
		return nil, err
	}
	return NewTimestampBufferAggregator(selector, f.spec, f.cmp, f.initValue), nil
}

func (f *TimestampAggregatorFactory) Combine(lhs, rhs interface{}) interface{} {
	return combineLong(f.cmp, lhs.(int64), rhs.(int64))
}

func (f *TimestampAggregatorFactory) MakeAggregateCombiner() AggregateCombiner {
	// Combine does not null-check, so this combiner does not either.
	return &timestampCombiner{spec: f.spec, cmp: f.cmp}
}

func (f *TimestampAggregatorFactory) CombiningFactory() AggregatorFactory {
	return newTimestampAggregatorFactory(
		f.name, f.name, f.timeFormat, f.cmp, f.initValue)
}

func (f *TimestampAggregatorFactory) MergingFactory(
	other AggregatorFactory) (AggregatorFactory, error) {

	otherTs, ok := other.(*TimestampAggregatorFactory)
	if !ok || otherTs.name != f.name || otherTs.cmp != f.cmp {
		return nil, &NotMergeableError{This: f, Other: other}
	}
	return f.CombiningFactory(), nil
}

func (f *TimestampAggregatorFactory) RequiredColumns() []AggregatorFactory {
	return []AggregatorFactory{
		newTimestampAggregatorFactory(
			f.fieldName, f.fieldName, f.timeFormat, f.cmp, f.initValue),
	}
}

func (f *TimestampAggregatorFactory) Deserialize(v interface{}) interface{} {
	return v
}

func (f *TimestampAggregatorFactory) FinalizeComputation(v interface{}) interface{} {
	return time.UnixMilli(v.(int64)).UTC()
}

func (f *TimestampAggregatorFactory) CacheKey() []byte {
	typeID := cacheTypeIDTimeMax
	if f.cmp == Earliest {
		typeID = cacheTypeIDTimeMin
	}
	return buildCacheKey(typeID, f.fieldName)
}

func (f *TimestampAggregatorFactory) MaxIntermediateSize() int {
	return longSlotSize
}

func (f *TimestampAggregatorFactory) Spec() FactorySpec {
	specType := TypeTimeMax
	if f.cmp == Earliest {
		specType = TypeTimeMin
	}
	return FactorySpec{
		Type:       specType,
		Name:       f.name,
		FieldName:  f.fieldName,
		TimeFormat: f.timeFormat,
	}
}

// Equals compares name, fieldName, comparator kind and init value. The time
// format only shapes the cached parser and does not participate in identity.
func (f *TimestampAggregatorFactory) Equals(other AggregatorFactory) bool {
	o, ok := other.(*TimestampAggregatorFactory)
	if !ok {
		return false
	}
	return f.name == o.name &&
		f.fieldName == o.fieldName &&
		f.cmp == o.cmp &&
		f.initValue == o.initValue
}
