package aggregation

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestCombine_InitValueIsIdentity(t *testing.T) {
	latest := NewTimestampMaxAggregatorFactory("latest", "time", "auto")
	earliest := NewTimestampMinAggregatorFactory("earliest", "time", "auto")

	for _, x := range []int64{math.MinInt64, -7, 0, 42, math.MaxInt64} {
		assert.Equal(t, x, latest.Combine(latest.InitValue(), x))
		assert.Equal(t, x, latest.Combine(x, latest.InitValue()))
		assert.Equal(t, x, earliest.Combine(earliest.InitValue(), x))
		assert.Equal(t, x, earliest.Combine(x, earliest.InitValue()))
	}
}

func TestCombine_AssociativeAndOrderIndependent(t *testing.T) {
	factory := NewTimestampMaxAggregatorFactory("latest", "time", "auto")
	values := []int64{3, 99, -5, 42, 99, 7}

	leftFold := factory.InitValue()
	for _, v := range values {
		leftFold = factory.Combine(leftFold, v).(int64)
	}

	rightFold := factory.InitValue()
	for i := len(values) - 1; i >= 0; i -= 1 {
		rightFold = factory.Combine(values[i], rightFold).(int64)
	}

	pairTree := factory.Combine(
		factory.Combine(values[0], values[1]),
		factory.Combine(
			factory.Combine(values[2], values[3]),
			factory.Combine(values[4], values[5])))

	assert.Equal(t, int64(99), leftFold)
	assert.Equal(t, leftFold, rightFold)
	assert.Equal(t, leftFold, pairTree)
}

func TestCacheKey_Deterministic(t *testing.T) {
	a := NewTimestampMaxAggregatorFactory("latest", "time", "auto")
	b := NewTimestampMaxAggregatorFactory("latest", "time", "iso")

	// Key is a pure function of kind and field; the format plays no part.
	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.Equal(t, a.CacheKey(), a.CacheKey())
	assert.Equal(t, []byte("time"), a.CacheKey()[1:])
}

func TestCacheKey_DistinguishesFieldAndKind(t *testing.T) {
	byField := NewTimestampMaxAggregatorFactory("latest", "other", "auto")
	byKind := NewTimestampMinAggregatorFactory("latest", "time", "auto")
	base := NewTimestampMaxAggregatorFactory("latest", "time", "auto")

	assert.NotEqual(t, base.CacheKey(), byField.CacheKey())
	assert.NotEqual(t, base.CacheKey(), byKind.CacheKey())
	assert.NotEqual(t, base.CacheKey(), NewLongSumAggregatorFactory("latest", "time").CacheKey())
	assert.NotEqual(t, base.CacheKey(), NewCardinalityAggregatorFactory("latest", "time").CacheKey())
}

func TestMergingFactory_CompatibleKinds(t *testing.T) {
	a := NewTimestampMaxAggregatorFactory("latest", "a", "auto")
	b := NewTimestampMaxAggregatorFactory("latest", "b", "auto")

	merged, err := a.MergingFactory(b)
	assert.NoError(t, err)

	// The merging factory reads from the shared output column.
	assert.True(t, merged.Equals(a.CombiningFactory()))
	assert.Equal(t, []string{"latest"}, merged.RequiredFields())
}

func TestMergingFactory_IncompatibleKinds(t *testing.T) {
	extremum := NewTimestampMaxAggregatorFactory("latest", "a", "auto")
	sum := NewLongSumAggregatorFactory("latest", "b")

	_, err := extremum.MergingFactory(sum)
	notMergeable := &NotMergeableError{}
	assert.ErrorAs(t, err, &notMergeable)
	assert.Equal(t, extremum, notMergeable.This)
	assert.Equal(t, sum, notMergeable.Other)
}

func TestMergingFactory_DifferentComparators(t *testing.T) {
	latest := NewTimestampMaxAggregatorFactory("ts", "a", "auto")
	earliest := NewTimestampMinAggregatorFactory("ts", "b", "auto")

	_, err := latest.MergingFactory(earliest)
	notMergeable := &NotMergeableError{}
	assert.ErrorAs(t, err, &notMergeable)
}

func TestMergingFactory_DifferentNames(t *testing.T) {
	a := NewTimestampMaxAggregatorFactory("latest", "a", "auto")
	b := NewTimestampMaxAggregatorFactory("other", "a", "auto")

	_, err := a.MergingFactory(b)
	notMergeable := &NotMergeableError{}
	assert.ErrorAs(t, err, &notMergeable)
}

func TestRequiredColumns_RekeyedToField(t *testing.T) {
	factory := NewTimestampMaxAggregatorFactory("latest", "time", "auto")

	required := factory.RequiredColumns()
	assert.Len(t, required, 1)
	assert.Equal(t, "time", required[0].Name())
	assert.Equal(t, []string{"time"}, required[0].RequiredFields())
}

func TestFactory_Equals(t *testing.T) {
	base := NewTimestampMaxAggregatorFactory("latest", "time", "auto")

	assert.True(t, base.Equals(NewTimestampMaxAggregatorFactory("latest", "time", "auto")))
	// The time format shapes only the cached parser, not identity.
	assert.True(t, base.Equals(NewTimestampMaxAggregatorFactory("latest", "time", "iso")))
	assert.False(t, base.Equals(NewTimestampMaxAggregatorFactory("latest", "other", "auto")))
	assert.False(t, base.Equals(NewTimestampMinAggregatorFactory("latest", "time", "auto")))
	assert.False(t, base.Equals(NewLongSumAggregatorFactory("latest", "time")))
}

func TestFactorySpec_RoundTrip(t *testing.T) {
	specs := []FactorySpec{
		{Type: TypeTimeMax, Name: "latest", FieldName: "time", TimeFormat: "auto"},
		{Type: TypeTimeMin, Name: "earliest", FieldName: "time", TimeFormat: "iso"},
		{Type: TypeLongSum, Name: "total", FieldName: "count"},
		{Type: TypeCardinality, Name: "uniques", FieldName: "user"},
	}

	for _, spec := range specs {
		factory, err := FromSpec(spec)
		assert.NoError(t, err)

		buf, err := json.Marshal(spec)
		assert.NoError(t, err)
		var decoded FactorySpec
		assert.NoError(t, json.Unmarshal(buf, &decoded))
		assert.Empty(t, cmp.Diff(spec, decoded))

		rebuilt, err := FromSpec(decoded)
		assert.NoError(t, err)
		assert.True(t, factory.Equals(rebuilt))
	}

	_, err := FromSpec(FactorySpec{Type: "histogram", Name: "h", FieldName: "x"})
	assert.Error(t, err)
}

func TestDeserialize_NoOpForLongAggregations(t *testing.T) {
	latest := NewTimestampMaxAggregatorFactory("latest", "time", "auto")
	sum := NewLongSumAggregatorFactory("total", "count")

	combined := latest.Combine(int64(5), int64(9))
	assert.Equal(t, combined, latest.Deserialize(combined))
	assert.Equal(t, int64(14), sum.Deserialize(sum.Combine(int64(5), int64(9))))
}
