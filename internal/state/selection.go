package state

import (
	"fmt"

	"github.com/dshills/inkwell/internal/doc"
	"github.com/dshills/inkwell/internal/transform"
)

// SelectionKind distinguishes the selection shapes.
type SelectionKind int

const (
	// TextKind is a range (possibly empty) between two inline positions.
	TextKind SelectionKind = iota

	// NodeKind selects a single whole node, such as an atom.
	NodeKind
)

// String returns the kind name.
func (k SelectionKind) String() string {
	switch k {
	case TextKind:
		return "text"
	case NodeKind:
		return "node"
	default:
		return "unknown"
	}
}

// Selection is an (anchor, head) position pair plus a kind. The anchor is
// the fixed side, the head the moving side. A selection is only meaningful
// against the document it was derived from; both positions must resolve in
// that document.
type Selection struct {
	Anchor int
	Head   int
	Kind   SelectionKind
}

// TextSelection creates a text selection between anchor and head.
func TextSelection(anchor, head int) Selection {
	return Selection{Anchor: anchor, Head: head, Kind: TextKind}
}

// NodeSelection creates a selection covering the node starting at pos in
// the given document.
func NodeSelection(d *doc.Node, pos int) (Selection, error) {
	r, err := d.Resolve(pos)
	if err != nil {
		return Selection{}, err
	}
	node := r.NodeAfter()
	if node == nil {
		return Selection{}, fmt.Errorf("node selection: no node at position %d", pos)
	}
	return Selection{Anchor: pos, Head: pos + node.NodeSize(), Kind: NodeKind}, nil
}

// From returns the lower end of the selection.
func (s Selection) From() int { return min(s.Anchor, s.Head) }

// To returns the upper end of the selection.
func (s Selection) To() int { return max(s.Anchor, s.Head) }

// Empty reports whether the selection is a cursor.
func (s Selection) Empty() bool { return s.Anchor == s.Head }

// Eq reports whether two selections are identical.
func (s Selection) Eq(other Selection) bool { return s == other }

// Validate checks that both ends resolve in the given document.
func (s Selection) Validate(d *doc.Node) error {
	if _, err := d.Resolve(s.Anchor); err != nil {
		return fmt.Errorf("selection anchor: %w", err)
	}
	if _, err := d.Resolve(s.Head); err != nil {
		return fmt.Errorf("selection head: %w", err)
	}
	return nil
}

// Map translates the selection through a mapping. Positions inside deleted
// content collapse to the nearest surviving boundary; a node selection
// whose node was deleted degrades to a cursor.
func (s Selection) Map(m transform.Mappable) Selection {
	anchor := m.MapResult(s.Anchor, 1)
	head := m.MapResult(s.Head, 1)
	mapped := Selection{Anchor: anchor.Pos, Head: head.Pos, Kind: s.Kind}
	if s.Kind == NodeKind && (anchor.Deleted() || head.Deleted()) {
		mapped.Kind = TextKind
		mapped.Head = mapped.Anchor
	}
	return mapped
}

// Bookmark returns a position-only record of the selection, suitable for
// storing across edits and mapping forward later.
func (s Selection) Bookmark() Bookmark {
	return Bookmark{Anchor: s.Anchor, Head: s.Head, Kind: s.Kind}
}

// Bookmark is a stored selection: bare positions that can be mapped through
// later transactions and resolved against a future document.
type Bookmark struct {
	Anchor int
	Head   int
	Kind   SelectionKind
}

// Map translates the bookmark through a mapping.
func (b Bookmark) Map(m transform.Mappable) Bookmark {
	return Bookmark{Anchor: m.Map(b.Anchor, 1), Head: m.Map(b.Head, 1), Kind: b.Kind}
}

// Resolve turns the bookmark back into a selection valid for the given
// document, clamping out-of-range positions instead of failing.
func (b Bookmark) Resolve(d *doc.Node) Selection {
	size := d.Content.Size
	anchor := clamp(b.Anchor, 0, size)
	head := clamp(b.Head, 0, size)
	kind := b.Kind
	if kind == NodeKind {
		if r, err := d.Resolve(anchor); err != nil || r.NodeAfter() == nil {
			kind = TextKind
			head = anchor
		}
	}
	return Selection{Anchor: anchor, Head: head, Kind: kind}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
