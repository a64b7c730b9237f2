package segment

// Column holds one segment's worth of values for a single field. A column is
// either primitive (Longs populated) or object-shaped (Objects populated).
type Column struct {
	Longs   []int64
	Objects []Value
}

func LongColumn(values ...int64) *Column {
	return &Column{Longs: values}
}

func ObjectColumn(values ...Value) *Column {
	return &Column{Objects: values}
}

func (c *Column) primitive() bool {
	return c.Objects == nil
}

func (c *Column) length() int {
	if c.primitive() {
		return len(c.Longs)
	}
	return len(c.Objects)
}

// Segment is an in-memory columnar segment: named columns of equal length.
type Segment struct {
	columns map[string]*Column
	rows    int
}

func NewSegment() *Segment {
	return &Segment{columns: make(map[string]*Column)}
}

func (s *Segment) AddColumn(field string, column *Column) *Segment {
	s.columns[field] = column
	if column.length() > s.rows {
		s.rows = column.length()
	}
	return s
}

func (s *Segment) NumRows() int {
	return s.rows
}

// Cursor walks a segment row by row. It implements ColumnSelectorFactory;
// selectors made from it read whatever row the cursor currently points at.
type Cursor struct {
	segment *Segment
	row     int
}

func (s *Segment) NewCursor() *Cursor {
	return &Cursor{segment: s}
}

func (c *Cursor) MakeColumnValueSelector(field string) (ColumnValueSelector, error) {
	column, ok := c.segment.columns[field]
	if !ok {
		return nil, &UnresolvableColumnError{Field: field}
	}
	return &cursorSelector{cursor: c, column: column}, nil
}

func (c *Cursor) Advance() {
	c.row += 1
}

func (c *Cursor) Done() bool {
	return c.row >= c.segment.rows
}

func (c *Cursor) Reset() {
	c.row = 0
}

type cursorSelector struct {
	cursor *Cursor
	column *Column
}

func (s *cursorSelector) NumericPrimitive() bool {
	return s.column.primitive()
}

func (s *cursorSelector) Long() int64 {
	if s.cursor.row >= len(s.column.Longs) {
		return 0
	}
	return s.column.Longs[s.cursor.row]
}

func (s *cursorSelector) Object() Value {
	if s.cursor.row >= len(s.column.Objects) {
		return UnconvertibleValue()
	}
	return s.column.Objects[s.cursor.row]
}

// ConstSelector yields the same value on every read. Used when merging
// already-finalized partial aggregates, where there is no row stream.
type ConstSelector struct {
	Value Value
}

func (s *ConstSelector) NumericPrimitive() bool {
	return s.Value.Kind == KindNumeric
}

func (s *ConstSelector) Long() int64 {
	return s.Value.Long
}

func (s *ConstSelector) Object() Value {
	return s.Value
}
