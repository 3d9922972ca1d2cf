// Package command provides the standard editing commands. A command
// inspects a state, reports whether it applies, and when given a dispatch
// function builds and dispatches the transaction that performs it. A nil
// dispatch turns any command into an availability check.
package command

import (
	"github.com/dshills/inkwell/internal/doc"
	"github.com/dshills/inkwell/internal/state"
)

// Command is one editing action keyed to the current state.
type Command func(s *state.EditorState, dispatch func(*state.Transaction)) bool

// Chain returns a command that tries each given command in order and
// performs the first one that applies.
func Chain(cmds ...Command) Command {
	return func(s *state.EditorState, dispatch func(*state.Transaction)) bool {
		for _, c := range cmds {
			if c(s, dispatch) {
				return true
			}
		}
		return false
	}
}

// InsertText returns a command that replaces the selection with text.
func InsertText(text string) Command {
	return func(s *state.EditorState, dispatch func(*state.Transaction)) bool {
		tr := s.Tr()
		sel := tr.Selection()
		if err := tr.ReplaceText(text, sel.From(), sel.To()); err != nil {
			return false
		}
		if dispatch != nil {
			dispatch(tr)
		}
		return true
	}
}

// DeleteSelection deletes the selected range. It does not apply to a
// cursor.
func DeleteSelection(s *state.EditorState, dispatch func(*state.Transaction)) bool {
	sel := s.Selection
	if sel.Empty() {
		return false
	}
	tr := s.Tr()
	if err := tr.Delete(sel.From(), sel.To()); err != nil {
		return false
	}
	if dispatch != nil {
		dispatch(tr)
	}
	return true
}

// SplitBlock splits the block at the cursor in two, deleting the selection
// first when there is one. The cursor ends up at the start of the second
// block.
func SplitBlock(s *state.EditorState, dispatch func(*state.Transaction)) bool {
	tr := s.Tr()
	sel := tr.Selection()
	if !sel.Empty() {
		if err := tr.Delete(sel.From(), sel.To()); err != nil {
			return false
		}
	}
	if err := tr.Split(tr.Selection().From()); err != nil {
		return false
	}
	if dispatch != nil {
		dispatch(tr)
	}
	return true
}

// JoinBackward joins the block holding the cursor with the block before it.
// It applies only when the cursor sits at the very start of its block and a
// block exists before it; the cursor lands on the join point through the
// step's own position mapping.
func JoinBackward(s *state.EditorState, dispatch func(*state.Transaction)) bool {
	sel := s.Selection
	if !sel.Empty() {
		return false
	}
	r, err := s.Doc.Resolve(sel.From())
	if err != nil {
		return false
	}
	depth := r.Depth()
	if depth == 0 || r.ParentOffset() != 0 {
		return false
	}
	if r.Index(depth-1) == 0 {
		return false
	}
	tr := s.Tr()
	if err := tr.Join(r.Before(depth)); err != nil {
		return false
	}
	if dispatch != nil {
		dispatch(tr)
	}
	return true
}

// ToggleMark returns a command that adds the mark to the selected range, or
// removes it when any of the range already carries it. It does not apply to
// a cursor.
func ToggleMark(m *doc.Mark) Command {
	return func(s *state.EditorState, dispatch func(*state.Transaction)) bool {
		sel := s.Selection
		if sel.Empty() {
			return false
		}
		tr := s.Tr()
		var err error
		if rangeHasMark(s.Doc, sel.From(), sel.To(), m) {
			err = tr.RemoveMark(sel.From(), sel.To(), m)
		} else {
			err = tr.AddMark(sel.From(), sel.To(), m)
		}
		if err != nil {
			return false
		}
		if dispatch != nil {
			dispatch(tr)
		}
		return true
	}
}

// rangeHasMark reports whether any inline node in the range carries the
// mark.
func rangeHasMark(d *doc.Node, from, to int, m *doc.Mark) bool {
	found := false
	d.NodesBetween(from, to, func(n *doc.Node, _ int, _ *doc.Node) bool {
		if n.IsInline() && m.IsInSet(n.Marks) {
			found = true
		}
		return !found
	})
	return found
}
