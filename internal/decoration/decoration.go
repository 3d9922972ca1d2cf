// Package decoration implements queryable, position-mapped rendering
// hints that travel alongside the document without being part of the tree.
//
// Three kinds exist: widgets render extra content at a single position,
// inline decorations add attributes to a range of inline content, and node
// decorations add attributes to the node spanning a range. A DecorationSet
// is validated against a specific document and can be mapped through the
// position changes of a transaction, dropping decorations whose anchors
// were deleted.
package decoration

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dshills/inkwell/internal/transform"
)

// Kind distinguishes the decoration shapes.
type Kind int

const (
	// KindWidget renders at a point.
	KindWidget Kind = iota

	// KindInline applies attributes over an inline range.
	KindInline

	// KindNode applies attributes to the single node spanning the range.
	KindNode
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindWidget:
		return "widget"
	case KindInline:
		return "inline"
	case KindNode:
		return "node"
	default:
		return "unknown"
	}
}

// Decoration is one rendering hint. Decorations are plain values; mapping
// a set produces new values rather than mutating existing ones.
type Decoration struct {
	// From and To delimit the decorated range. Widgets have From == To.
	From, To int

	// Kind is the decoration shape.
	Kind Kind

	// Attrs are rendering attributes for inline and node decorations.
	Attrs map[string]string

	// Side breaks ordering ties between widgets at the same position:
	// lower sides render first. It also determines which side of an
	// insertion at the widget's position the widget sticks to.
	Side int

	// Key identifies a widget across renders. Generated when empty.
	Key string
}

// Widget creates a widget decoration at pos. A key is generated when the
// caller passes an empty one, so every widget has a cross-render identity.
func Widget(pos, side int, key string) Decoration {
	if key == "" {
		key = uuid.NewString()
	}
	return Decoration{From: pos, To: pos, Kind: KindWidget, Side: side, Key: key}
}

// Inline creates an inline decoration over [from, to).
func Inline(from, to int, attrs map[string]string) Decoration {
	return Decoration{From: from, To: to, Kind: KindInline, Attrs: attrs}
}

// Node creates a node decoration for the node spanning [from, to).
func Node(from, to int, attrs map[string]string) Decoration {
	return Decoration{From: from, To: to, Kind: KindNode, Attrs: attrs}
}

func (d Decoration) validate(size int) error {
	if d.From < 0 || d.To > size || d.From > d.To {
		return fmt.Errorf("decoration %s(%d,%d): outside document of size %d", d.Kind, d.From, d.To, size)
	}
	if d.Kind == KindWidget && d.From != d.To {
		return fmt.Errorf("decoration widget(%d,%d): widgets occupy a single position", d.From, d.To)
	}
	return nil
}

// mapThrough translates the decoration, reporting false when it was
// deleted by the mapping.
func (d Decoration) mapThrough(m transform.Mappable) (Decoration, bool) {
	switch d.Kind {
	case KindWidget:
		assoc := 1
		if d.Side < 0 {
			assoc = -1
		}
		r := m.MapResult(d.From, assoc)
		if r.Deleted() {
			return Decoration{}, false
		}
		d.From, d.To = r.Pos, r.Pos
		return d, true
	default:
		from := m.MapResult(d.From, 1)
		to := m.MapResult(d.To, -1)
		if from.Pos >= to.Pos {
			return Decoration{}, false
		}
		d.From, d.To = from.Pos, to.Pos
		return d, true
	}
}
