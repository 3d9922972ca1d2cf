package decoration

import (
	"log"
	"sort"

	"github.com/dshills/inkwell/internal/doc"
	"github.com/dshills/inkwell/internal/transform"
)

// Set is an immutable, position-sorted collection of decorations validated
// against one document.
type Set struct {
	decos []Decoration
}

// Empty is the shared empty set.
var Empty = &Set{}

// Create validates the decorations against the document and returns a set.
func Create(d *doc.Node, decos []Decoration) (*Set, error) {
	size := d.Content.Size
	for _, deco := range decos {
		if err := deco.validate(size); err != nil {
			return nil, err
		}
	}
	return newSet(decos), nil
}

func newSet(decos []Decoration) *Set {
	if len(decos) == 0 {
		return Empty
	}
	sorted := make([]Decoration, len(decos))
	copy(sorted, decos)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].From != sorted[j].From {
			return sorted[i].From < sorted[j].From
		}
		if sorted[i].Side != sorted[j].Side {
			return sorted[i].Side < sorted[j].Side
		}
		return sorted[i].To < sorted[j].To
	})
	return &Set{decos: sorted}
}

// Len returns the number of decorations in the set.
func (s *Set) Len() int { return len(s.decos) }

// All returns the decorations in position order.
func (s *Set) All() []Decoration { return s.decos }

// Find returns the decorations overlapping [from, to). Widgets at from or
// to are included.
func (s *Set) Find(from, to int) []Decoration {
	var found []Decoration
	for _, d := range s.decos {
		if d.From > to {
			break
		}
		if d.Kind == KindWidget {
			if d.From >= from && d.From <= to {
				found = append(found, d)
			}
			continue
		}
		if d.To > from && d.From < to {
			found = append(found, d)
		}
	}
	return found
}

// Map translates every decoration through the mapping, dropping the ones
// whose anchors fell inside fully deleted content.
func (s *Set) Map(m transform.Mappable) *Set {
	if len(s.decos) == 0 {
		return s
	}
	mapped := make([]Decoration, 0, len(s.decos))
	for _, d := range s.decos {
		if md, ok := d.mapThrough(m); ok {
			mapped = append(mapped, md)
		}
	}
	return newSet(mapped)
}

// Union merges sets into one.
func Union(sets ...*Set) *Set {
	total := 0
	for _, s := range sets {
		if s != nil {
			total += len(s.decos)
		}
	}
	if total == 0 {
		return Empty
	}
	merged := make([]Decoration, 0, total)
	for _, s := range sets {
		if s != nil {
			merged = append(merged, s.decos...)
		}
	}
	return newSet(merged)
}

// RenderPass tracks which widgets were queried during one render. Node
// views are responsible for querying the decorations in their own range;
// a widget nobody queried is almost always an integration bug, so Finish
// reports the leftovers as a warning rather than failing.
type RenderPass struct {
	set     *Set
	queried map[string]bool
	logger  *log.Logger
}

// NewRenderPass starts a render pass over the set. A nil logger suppresses
// warnings.
func NewRenderPass(set *Set, logger *log.Logger) *RenderPass {
	return &RenderPass{set: set, queried: make(map[string]bool), logger: logger}
}

// Query returns the decorations overlapping the range and marks the
// returned widgets as rendered.
func (rp *RenderPass) Query(from, to int) []Decoration {
	found := rp.set.Find(from, to)
	for _, d := range found {
		if d.Kind == KindWidget {
			rp.queried[d.Key] = true
		}
	}
	return found
}

// Finish returns the widgets that no node view queried during this pass
// and logs a warning for each.
func (rp *RenderPass) Finish() []Decoration {
	var missed []Decoration
	for _, d := range rp.set.decos {
		if d.Kind == KindWidget && !rp.queried[d.Key] {
			missed = append(missed, d)
			if rp.logger != nil {
				rp.logger.Printf("decoration: widget %s at %d was not rendered by any node view", d.Key, d.From)
			}
		}
	}
	return missed
}
