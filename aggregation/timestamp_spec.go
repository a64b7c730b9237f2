package aggregation

import (
	"strconv"
	"strings"
	"time"

	"github.com/rpless/druid/segment"
)

// TimestampSpec parses textual column values into millisecond ticks. The
// format is one of "auto", "iso", "millis", "posix", or an explicit Go
// reference layout. A spec is built once per factory and cached; it carries
// no mutable state.
type TimestampSpec struct {
	format string
}

func NewTimestampSpec(format string) *TimestampSpec {
	if format == "" {
		format = "auto"
	}
	return &TimestampSpec{format: format}
}

func (s *TimestampSpec) Format() string {
	return s.format
}

// ParseMillis converts text to a millisecond tick. The bool is false when
// the text does not parse under the configured format.
func (s *TimestampSpec) ParseMillis(text string) (int64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	switch s.format {
	case "auto":
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n, true
		}
		return parseISO(text)
	case "iso":
		return parseISO(text)
	case "millis":
		n, err := strconv.ParseInt(text, 10, 64)
		return n, err == nil
	case "posix":
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return 0, false
		}
		return n * 1000, true
	default:
		t, err := time.Parse(s.format, text)
		if err != nil {
			return 0, false
		}
		return t.UnixMilli(), true
	}
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseISO(text string) (int64, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}

// convertLong reduces an object-shaped row value to a millisecond tick:
// numbers pass through, temporals drop to their tick count, text goes
// through the spec's parser. Anything else yields no usable value and the
// row is skipped without updating the accumulator. The skip is silent by
// contract; turning it into an error would change observable query results.
func convertLong(spec *TimestampSpec, v segment.Value) (int64, bool) {
	switch v.Kind {
	case segment.KindNumeric:
		return v.Long, true
	case segment.KindTemporal:
		return v.Time.UnixMilli(), true
	case segment.KindText:
		return spec.ParseMillis(v.Text)
	}
	return 0, false
}

// readLong extracts the current value from a selector: primitive columns
// read directly, object-shaped columns go through the conversion policy.
func readLong(spec *TimestampSpec, selector segment.ColumnValueSelector) (int64, bool) {
	if selector.NumericPrimitive() {
		return selector.Long(), true
	}
	return convertLong(spec, selector.Object())
}
