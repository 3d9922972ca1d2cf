package doc

import "fmt"

// Slice is a piece of document content with "open" sides. OpenStart and
// OpenEnd record how many levels of nodes at the start and end of the
// content are cut open, meaning their boundary tokens are not part of the
// slice. A slice cut from the middle of a paragraph has both sides open at
// depth 1; a whole-node slice is closed on both sides.
type Slice struct {
	Content   *Fragment
	OpenStart int
	OpenEnd   int
}

// EmptySlice is the shared empty slice.
var EmptySlice = &Slice{Content: EmptyFragment}

// NewSlice builds a slice from a fragment and open depths.
func NewSlice(content *Fragment, openStart, openEnd int) *Slice {
	if content.Size == 0 && openStart == 0 && openEnd == 0 {
		return EmptySlice
	}
	return &Slice{Content: content, OpenStart: openStart, OpenEnd: openEnd}
}

// Size returns the size the slice occupies when inserted: the content size
// minus the boundary tokens elided by the open depths.
func (s *Slice) Size() int {
	return s.Content.Size - s.OpenStart - s.OpenEnd
}

// Eq reports structural equality of two slices.
func (s *Slice) Eq(other *Slice) bool {
	return s.OpenStart == other.OpenStart && s.OpenEnd == other.OpenEnd &&
		s.Content.Eq(other.Content)
}

// String returns a debugging representation of the slice.
func (s *Slice) String() string {
	return fmt.Sprintf("%s(%d,%d)", s.Content, s.OpenStart, s.OpenEnd)
}
