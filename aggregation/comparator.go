package aggregation

// LongComparator is a closed set of total orders over int64 accumulator
// values. Keeping it an enum rather than a function value gives factories
// well-defined structural equality, which cache-key stability and merge
// compatibility checks depend on.
type LongComparator uint8

const (
	// Latest is natural order: the larger timestamp wins.
	Latest LongComparator = iota
	// Earliest is reversed order: the smaller timestamp wins.
	Earliest
)

func (c LongComparator) Compare(a, b int64) int {
	if a == b {
		return 0
	}
	natural := -1
	if a > b {
		natural = 1
	}
	if c == Earliest {
		return -natural
	}
	return natural
}

func (c LongComparator) String() string {
	if c == Earliest {
		return "earliest"
	}
	return "latest"
}

// combineLong keeps whichever side wins under cmp; ties keep rhs.
func combineLong(cmp LongComparator, lhs, rhs int64) int64 {
	if cmp.Compare(lhs, rhs) > 0 {
		return lhs
	}
	return rhs
}
