package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCursor_WalksRows(t *testing.T) {
	seg := NewSegment().
		AddColumn("count", LongColumn(10, 20, 30)).
		AddColumn("user", ObjectColumn(
			TextValue("alice"), TextValue("bob"), TextValue("carol")))

	assert.Equal(t, 3, seg.NumRows())

	cursor := seg.NewCursor()
	counts, err := cursor.MakeColumnValueSelector("count")
	assert.NoError(t, err)
	users, err := cursor.MakeColumnValueSelector("user")
	assert.NoError(t, err)

	assert.True(t, counts.NumericPrimitive())
	assert.False(t, users.NumericPrimitive())

	var got []int64
	var names []string
	for cursor.Reset(); !cursor.Done(); cursor.Advance() {
		got = append(got, counts.Long())
		names = append(names, users.Object().Text)
	}
	assert.Equal(t, []int64{10, 20, 30}, got)
	assert.Equal(t, []string{"alice", "bob", "carol"}, names)
}

func TestCursor_UnresolvableColumn(t *testing.T) {
	seg := NewSegment().AddColumn("count", LongColumn(1))

	_, err := seg.NewCursor().MakeColumnValueSelector("missing")
	unresolvable := &UnresolvableColumnError{}
	assert.ErrorAs(t, err, &unresolvable)
	assert.Equal(t, "missing", unresolvable.Field)
}

func TestValue_Constructors(t *testing.T) {
	ts := time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, KindNumeric, NumericValue(5).Kind)
	assert.Equal(t, KindTemporal, TemporalValue(ts).Kind)
	assert.Equal(t, ts, TemporalValue(ts).Time)
	assert.Equal(t, KindText, TextValue("x").Kind)
	assert.Equal(t, KindBytes, BytesValue([]byte{1}).Kind)
	assert.Equal(t, KindUnconvertible, UnconvertibleValue().Kind)
}

func TestConstSelector(t *testing.T) {
	numeric := &ConstSelector{Value: NumericValue(9)}
	assert.True(t, numeric.NumericPrimitive())
	assert.Equal(t, int64(9), numeric.Long())

	text := &ConstSelector{Value: TextValue("2020-06-15")}
	assert.False(t, text.NumericPrimitive())
	assert.Equal(t, "2020-06-15", text.Object().Text)
}
