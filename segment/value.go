package segment

import "time"

type ValueKind uint8

const (
	KindNumeric ValueKind = iota
	KindTemporal
	KindText
	// KindBytes carries an opaque serialized intermediate, e.g. a sketch
	// produced by a first-stage scan. Only merge-stage consumers that know
	// the encoding read it; the temporal conversion policy skips it.
	KindBytes
	KindUnconvertible
)

// Value is the tagged row value handed out by object-shaped columns.
// Exactly one of the payload fields is meaningful, selected by Kind.
type Value struct {
	Kind  ValueKind
	Long  int64
	Time  time.Time
	Text  string
	Bytes []byte
}

func NumericValue(v int64) Value {
	return Value{Kind: KindNumeric, Long: v}
}

func TemporalValue(t time.Time) Value {
	return Value{Kind: KindTemporal, Time: t}
}

func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

func BytesValue(b []byte) Value {
	return Value{Kind: KindBytes, Bytes: b}
}

func UnconvertibleValue() Value {
	return Value{Kind: KindUnconvertible}
}
