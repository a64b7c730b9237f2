package segment

import "fmt"

// ColumnValueSelector exposes the current row's value for one column as the
// scan cursor advances. Columns declare their shape up front: callers read
// Long() when NumericPrimitive() is true and Object() otherwise, never both.
type ColumnValueSelector interface {
	NumericPrimitive() bool
	Long() int64
	Object() Value
}

// ColumnSelectorFactory binds selectors to named columns for one scan.
type ColumnSelectorFactory interface {
	MakeColumnValueSelector(field string) (ColumnValueSelector, error)
}

type UnresolvableColumnError struct {
	Field string
}

func (e *UnresolvableColumnError) Error() string {
	return fmt.Sprintf("cannot resolve column %q in segment", e.Field)
}
