package transform

import (
	"fmt"

	"github.com/dshills/inkwell/internal/doc"
)

// mapInline rebuilds a fragment, applying fn to every inline node. parent
// is the node owning the fragment, used for mark-permission checks.
func mapInline(f *doc.Fragment, fn func(n *doc.Node, parent *doc.Node) *doc.Node, parent *doc.Node) *doc.Fragment {
	mapped := make([]*doc.Node, 0, f.ChildCount())
	for i := 0; i < f.ChildCount(); i++ {
		child := f.Child(i)
		if child.Content.Size > 0 {
			child = child.Copy(mapInline(child.Content, fn, child))
		}
		if child.IsInline() {
			child = fn(child, parent)
		}
		mapped = append(mapped, child)
	}
	return doc.NewFragment(mapped...)
}

// AddMarkStep adds a mark to all inline content between two positions.
// Inline nodes whose parent does not allow the mark are left untouched, and
// re-adding a mark that is already present is a no-op rather than a
// failure.
type AddMarkStep struct {
	// From and To delimit the marked range.
	From, To int

	// Mark is the mark to add.
	Mark *doc.Mark
}

// Apply implements Step.
func (s *AddMarkStep) Apply(d *doc.Node) StepResult {
	oldSlice, err := d.Slice(s.From, s.To)
	if err != nil {
		return Fail(err.Error())
	}
	rFrom, err := d.Resolve(s.From)
	if err != nil {
		return Fail(err.Error())
	}
	parent := rFrom.Node(rFrom.SharedDepth(s.To))
	marked := mapInline(oldSlice.Content, func(n *doc.Node, p *doc.Node) *doc.Node {
		if p == nil || !p.Type.AllowsMarkType(s.Mark.Type) {
			return n
		}
		return n.WithMarks(s.Mark.AddToSet(n.Marks))
	}, parent)
	return FromReplace(d, s.From, s.To, doc.NewSlice(marked, oldSlice.OpenStart, oldSlice.OpenEnd))
}

// GetMap implements Step. Mark changes never move positions.
func (s *AddMarkStep) GetMap() *StepMap { return IdentityMap }

// Invert implements Step.
func (s *AddMarkStep) Invert(*doc.Node) Step {
	return &RemoveMarkStep{From: s.From, To: s.To, Mark: s.Mark}
}

// Map implements Step.
func (s *AddMarkStep) Map(m Mappable) Step {
	from := m.MapResult(s.From, 1)
	to := m.MapResult(s.To, -1)
	if (from.Deleted() && to.Deleted()) || from.Pos >= to.Pos {
		return nil
	}
	return &AddMarkStep{From: from.Pos, To: to.Pos, Mark: s.Mark}
}

// Merge implements Step. Overlapping or touching ranges with the same mark
// combine.
func (s *AddMarkStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*AddMarkStep)
	if !ok || !o.Mark.Eq(s.Mark) || s.From > o.To || o.From > s.To {
		return nil, false
	}
	return &AddMarkStep{From: min(s.From, o.From), To: max(s.To, o.To), Mark: s.Mark}, true
}

// String returns a debugging representation of the step.
func (s *AddMarkStep) String() string {
	return fmt.Sprintf("AddMark(%d, %d, %s)", s.From, s.To, s.Mark.Type.Name)
}

// RemoveMarkStep removes a mark from all inline content between two
// positions. Removing a mark that is absent is a no-op.
type RemoveMarkStep struct {
	// From and To delimit the unmarked range.
	From, To int

	// Mark is the mark to remove.
	Mark *doc.Mark
}

// Apply implements Step.
func (s *RemoveMarkStep) Apply(d *doc.Node) StepResult {
	oldSlice, err := d.Slice(s.From, s.To)
	if err != nil {
		return Fail(err.Error())
	}
	unmarked := mapInline(oldSlice.Content, func(n *doc.Node, _ *doc.Node) *doc.Node {
		return n.WithMarks(s.Mark.RemoveFromSet(n.Marks))
	}, nil)
	return FromReplace(d, s.From, s.To, doc.NewSlice(unmarked, oldSlice.OpenStart, oldSlice.OpenEnd))
}

// GetMap implements Step.
func (s *RemoveMarkStep) GetMap() *StepMap { return IdentityMap }

// Invert implements Step.
func (s *RemoveMarkStep) Invert(*doc.Node) Step {
	return &AddMarkStep{From: s.From, To: s.To, Mark: s.Mark}
}

// Map implements Step.
func (s *RemoveMarkStep) Map(m Mappable) Step {
	from := m.MapResult(s.From, 1)
	to := m.MapResult(s.To, -1)
	if (from.Deleted() && to.Deleted()) || from.Pos >= to.Pos {
		return nil
	}
	return &RemoveMarkStep{From: from.Pos, To: to.Pos, Mark: s.Mark}
}

// Merge implements Step.
func (s *RemoveMarkStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*RemoveMarkStep)
	if !ok || !o.Mark.Eq(s.Mark) || s.From > o.To || o.From > s.To {
		return nil, false
	}
	return &RemoveMarkStep{From: min(s.From, o.From), To: max(s.To, o.To), Mark: s.Mark}, true
}

// String returns a debugging representation of the step.
func (s *RemoveMarkStep) String() string {
	return fmt.Sprintf("RemoveMark(%d, %d, %s)", s.From, s.To, s.Mark.Type.Name)
}
