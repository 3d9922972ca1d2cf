// Package view flattens document blocks into renderable spans. It knows
// nothing about any particular screen; a host walks the spans and draws
// them however it likes. Widths and cursor movement are grapheme-cluster
// aware, so combining characters and wide glyphs measure correctly.
package view

import (
	"github.com/rivo/uniseg"

	"github.com/dshills/inkwell/internal/decoration"
	"github.com/dshills/inkwell/internal/doc"
)

// RenderFunc produces the display text for a leaf node.
type RenderFunc func(n *doc.Node) string

// Registry maps node type names to custom renderers. Text nodes render as
// their text; unregistered non-text leaves render as the object
// replacement character.
type Registry struct {
	views map[string]RenderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[string]RenderFunc)}
}

// Register installs a renderer for a node type, replacing any previous one.
func (r *Registry) Register(typeName string, fn RenderFunc) {
	r.views[typeName] = fn
}

// Render produces the display text for a node. A nil registry uses the
// defaults only.
func (r *Registry) Render(n *doc.Node) string {
	if r != nil {
		if fn, ok := r.views[n.Type.Name]; ok {
			return fn(n)
		}
	}
	if n.IsText() {
		return n.Text
	}
	return "￼"
}

// Span is one run of display text with uniform styling: the marks of the
// node it came from plus the merged attributes of the inline decorations
// covering it. Widget spans carry only a key; the host decides what a
// widget looks like.
type Span struct {
	Text      string
	Marks     []*doc.Mark
	Attrs     map[string]string
	WidgetKey string
	Width     int
}

// IsWidget reports whether this span stands in for a widget decoration.
func (s Span) IsWidget() bool { return s.WidgetKey != "" }

// RenderBlock flattens a textblock into spans. startPos is the absolute
// position of the block's content start. Text runs split wherever an
// inline decoration starts or ends or a widget sits, so every span has
// uniform styling. Widgets are queried through the render pass, which is
// what keeps its unrendered-widget accounting accurate; pass and registry
// may both be nil.
func RenderBlock(block *doc.Node, startPos int, pass *decoration.RenderPass, reg *Registry) []Span {
	from, to := startPos, startPos+block.Content.Size
	var decos []decoration.Decoration
	if pass != nil {
		decos = pass.Query(from, to)
	}

	var spans []Span
	widgetsAt := func(p int) {
		for _, d := range decos {
			if d.Kind == decoration.KindWidget && d.From == p {
				spans = append(spans, Span{WidgetKey: d.Key})
			}
		}
	}

	pos := from
	widgetsAt(pos)
	for i := 0; i < block.ChildCount(); i++ {
		child := block.Child(i)
		if !child.IsText() {
			text := reg.Render(child)
			spans = append(spans, Span{
				Text:  text,
				Marks: child.Marks,
				Attrs: attrsAt(decos, pos),
				Width: uniseg.StringWidth(text),
			})
			pos += child.NodeSize()
			widgetsAt(pos)
			continue
		}

		end := pos + len(child.Text)
		cuts := make(map[int]bool)
		for _, d := range decos {
			switch d.Kind {
			case decoration.KindWidget:
				if d.From > pos && d.From < end {
					cuts[d.From] = true
				}
			case decoration.KindInline:
				if d.From > pos && d.From < end {
					cuts[d.From] = true
				}
				if d.To > pos && d.To < end {
					cuts[d.To] = true
				}
			}
		}
		start := pos
		for off := pos + 1; off <= end; off++ {
			if off != end && !cuts[off] {
				continue
			}
			text := child.Text[start-pos : off-pos]
			spans = append(spans, Span{
				Text:  text,
				Marks: child.Marks,
				Attrs: attrsAt(decos, start),
				Width: uniseg.StringWidth(text),
			})
			widgetsAt(off)
			start = off
		}
		pos = end
	}
	return spans
}

// attrsAt merges the attributes of every inline decoration covering the
// position. Later decorations win on key conflicts.
func attrsAt(decos []decoration.Decoration, pos int) map[string]string {
	var merged map[string]string
	for _, d := range decos {
		if d.Kind != decoration.KindInline || pos < d.From || pos >= d.To {
			continue
		}
		if merged == nil {
			merged = make(map[string]string, len(d.Attrs))
		}
		for k, v := range d.Attrs {
			merged[k] = v
		}
	}
	return merged
}

// Width returns the display width of a string in terminal cells.
func Width(s string) int { return uniseg.StringWidth(s) }

// NextBoundary returns the byte offset of the grapheme cluster boundary
// after off, so cursor movement never lands inside a cluster.
func NextBoundary(s string, off int) int {
	if off >= len(s) {
		return len(s)
	}
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(s[off:], -1)
	return off + len(cluster)
}

// PrevBoundary returns the byte offset of the grapheme cluster boundary
// before off.
func PrevBoundary(s string, off int) int {
	if off <= 0 {
		return 0
	}
	last, pos, state := 0, 0, -1
	rest := s
	for len(rest) > 0 && pos < off {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		last = pos
		pos += len(cluster)
	}
	return last
}
