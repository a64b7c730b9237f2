package aggregation

import "fmt"

// Arena is a single pre-allocated byte buffer shared by many buffer
// aggregation slots. Offsets are assigned by the caller; the arena's job is
// to enforce the slot contract, so every access goes through Slot rather
// than raw indexing.
type Arena struct {
	buf []byte
}

func NewArena(size int) *Arena {
	return &Arena{buf: make([]byte, size)}
}

func (a *Arena) Len() int {
	return len(a.buf)
}

// Fits reports whether a slot of the given size can live at position.
func (a *Arena) Fits(position, size int) bool {
	return position >= 0 && size >= 0 && position+size <= len(a.buf)
}

// Slot returns the byte window [position, position+size). The full slice
// expression caps capacity, so a slot cannot grow into its neighbor. An
// out-of-range slot is a caller bug and panics, like slice indexing.
func (a *Arena) Slot(position, size int) []byte {
	if !a.Fits(position, size) {
		panic(fmt.Sprintf(
			"arena slot [%d, %d) out of range [0, %d)",
			position, position+size, len(a.buf)))
	}
	return a.buf[position : position+size : position+size]
}
