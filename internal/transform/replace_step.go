package transform

import (
	"fmt"

	"github.com/dshills/inkwell/internal/doc"
)

// ReplaceStep replaces the content between From and To with a slice. It is
// the workhorse step: plain insertion and deletion use closed slices, and
// splits and joins use open slices, so all structural edits stay within a
// single uniformly invertible step kind.
type ReplaceStep struct {
	// From and To delimit the replaced range in the input document.
	From, To int

	// Slice is the replacement content.
	Slice *doc.Slice

	// Structure restricts the step to ranges that contain no visible
	// content, which is what join-style edits require: only boundary
	// tokens may be deleted. A structural step that would overwrite
	// content fails instead.
	Structure bool
}

// NewReplaceStep creates a replace step. A nil slice means pure deletion.
func NewReplaceStep(from, to int, slice *doc.Slice) *ReplaceStep {
	if slice == nil {
		slice = doc.EmptySlice
	}
	return &ReplaceStep{From: from, To: to, Slice: slice}
}

// Apply implements Step.
func (s *ReplaceStep) Apply(d *doc.Node) StepResult {
	if s.Structure && contentBetween(d, s.From, s.To) {
		return Fail("structure replace would overwrite content")
	}
	return FromReplace(d, s.From, s.To, s.Slice)
}

// GetMap implements Step.
func (s *ReplaceStep) GetMap() *StepMap {
	if s.From == s.To && s.Slice.Size() == 0 {
		return IdentityMap
	}
	return NewStepMap([]int{s.From, s.To - s.From, s.Slice.Size()})
}

// Invert implements Step. The returned step restores exactly the content
// the replacement removed, captured from the pre-step document.
func (s *ReplaceStep) Invert(d *doc.Node) Step {
	removed, err := d.Slice(s.From, s.To)
	if err != nil {
		// The step was created for this document; a resolution failure
		// here means the caller handed the wrong document. Producing a
		// degenerate step keeps the invariant that Invert never panics.
		removed = doc.EmptySlice
	}
	return &ReplaceStep{From: s.From, To: s.From + s.Slice.Size(), Slice: removed}
}

// Map implements Step. From collapses toward the end of deletions and To
// toward the start, so a partially deleted range shrinks rather than
// swallowing surviving content. When the whole range was deleted the step
// has nothing left to do and nil is returned.
func (s *ReplaceStep) Map(m Mappable) Step {
	from := m.MapResult(s.From, 1)
	to := m.MapResult(s.To, -1)
	if from.Deleted() && to.Deleted() {
		return nil
	}
	return &ReplaceStep{From: from.Pos, To: max(from.Pos, to.Pos), Slice: s.Slice, Structure: s.Structure}
}

// Merge implements Step. Two adjacent replace steps with closed facing
// slices combine into one, which is what lets a typed run of characters
// collapse into a single history entry.
func (s *ReplaceStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*ReplaceStep)
	if !ok || o.Structure || s.Structure {
		return nil, false
	}
	switch {
	case s.From+s.Slice.Size() == o.From && s.Slice.OpenEnd == 0 && o.Slice.OpenStart == 0:
		slice := doc.EmptySlice
		if s.Slice.Size()+o.Slice.Size() != 0 {
			slice = doc.NewSlice(s.Slice.Content.Append(o.Slice.Content), s.Slice.OpenStart, o.Slice.OpenEnd)
		}
		return &ReplaceStep{From: s.From, To: s.To + (o.To - o.From), Slice: slice}, true
	case o.To == s.From && s.Slice.OpenStart == 0 && o.Slice.OpenEnd == 0:
		slice := doc.EmptySlice
		if s.Slice.Size()+o.Slice.Size() != 0 {
			slice = doc.NewSlice(o.Slice.Content.Append(s.Slice.Content), o.Slice.OpenStart, s.Slice.OpenEnd)
		}
		return &ReplaceStep{From: o.From, To: s.To, Slice: slice}, true
	}
	return nil, false
}

// String returns a debugging representation of the step.
func (s *ReplaceStep) String() string {
	if s.Slice.Size() == 0 {
		return fmt.Sprintf("Delete(%d, %d)", s.From, s.To)
	}
	return fmt.Sprintf("Replace(%d, %d, %s)", s.From, s.To, s.Slice)
}

// contentBetween reports whether the given range contains anything other
// than closing and opening boundary tokens.
func contentBetween(d *doc.Node, from, to int) bool {
	rFrom, err := d.Resolve(from)
	if err != nil {
		return false
	}
	dist := to - from
	depth := rFrom.Depth()
	for dist > 0 && depth > 0 && rFrom.IndexAfter(depth) == rFrom.Node(depth).ChildCount() {
		depth--
		dist--
	}
	if dist > 0 {
		next := rFrom.Node(depth).Content.MaybeChild(rFrom.IndexAfter(depth))
		for dist > 0 {
			if next == nil || next.IsLeaf() {
				return true
			}
			next = next.Content.FirstChild()
			dist--
		}
	}
	return false
}
