package history

import (
	"testing"

	"github.com/dshills/inkwell/internal/doc"
	"github.com/dshills/inkwell/internal/state"
)

func testSchema(t *testing.T) *doc.Schema {
	t.Helper()
	s, err := doc.NewSchema(doc.Spec{
		Nodes: []doc.NodeSpec{
			{Name: "doc", Content: "block+"},
			{Name: "paragraph", Content: "inline*", Group: "block"},
			{Name: "text", Group: "inline"},
		},
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func docWithText(t *testing.T, s *doc.Schema, text string) *doc.Node {
	t.Helper()
	var content []*doc.Node
	if text != "" {
		txt, err := s.Text(text)
		if err != nil {
			t.Fatalf("text: %v", err)
		}
		content = append(content, txt)
	}
	p, err := s.Node("paragraph", nil, content...)
	if err != nil {
		t.Fatalf("paragraph: %v", err)
	}
	d, err := s.Node("doc", nil, p)
	if err != nil {
		t.Fatalf("doc: %v", err)
	}
	return d
}

// harness tracks the current editor state across dispatched transactions,
// the way a host event loop would.
type harness struct {
	t     *testing.T
	state *state.EditorState
}

func newHarness(t *testing.T, text string, opts ...Option) *harness {
	t.Helper()
	s := testSchema(t)
	st, err := state.New(state.Config{
		Schema:  s,
		Doc:     docWithText(t, s, text),
		Plugins: []*state.Plugin{New(opts...)},
	})
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	return &harness{t: t, state: st}
}

func (h *harness) dispatch(tr *state.Transaction) {
	h.t.Helper()
	next, err := h.state.Apply(tr)
	if err != nil {
		h.t.Fatalf("apply: %v", err)
	}
	h.state = next
}

func (h *harness) edit(build func(tr *state.Transaction) error) {
	h.t.Helper()
	tr := h.state.Tr()
	if err := build(tr); err != nil {
		h.t.Fatalf("build transaction: %v", err)
	}
	h.dispatch(tr)
}

func (h *harness) text() string { return h.state.Doc.TextContent() }

func TestUndoRedoRestoresDocAndSelection(t *testing.T) {
	h := newHarness(t, "hello")

	// Put the cursor at the end, then type.
	h.edit(func(tr *state.Transaction) error {
		return tr.SetSelection(state.TextSelection(6, 6))
	})
	h.edit(func(tr *state.Transaction) error {
		return tr.InsertText(" world", 6)
	})
	if h.text() != "hello world" {
		t.Fatalf("expected 'hello world', got %q", h.text())
	}

	if !Undo(h.state, h.dispatch) {
		t.Fatal("expected undo to succeed")
	}
	if h.text() != "hello" {
		t.Errorf("expected undo to restore 'hello', got %q", h.text())
	}
	if sel := h.state.Selection; sel.Anchor != 6 || sel.Head != 6 {
		t.Errorf("expected undo to restore the cursor at 6, got (%d,%d)", sel.Anchor, sel.Head)
	}

	if !Redo(h.state, h.dispatch) {
		t.Fatal("expected redo to succeed")
	}
	if h.text() != "hello world" {
		t.Errorf("expected redo to restore 'hello world', got %q", h.text())
	}
	if sel := h.state.Selection; sel.Anchor != 12 || sel.Head != 12 {
		t.Errorf("expected redo to restore the cursor at 12, got (%d,%d)", sel.Anchor, sel.Head)
	}
}

func TestUndoRedoOnEmptyStacksReturnFalse(t *testing.T) {
	h := newHarness(t, "hello")

	if Undo(h.state, h.dispatch) {
		t.Error("expected undo on an empty history to return false")
	}
	if Redo(h.state, h.dispatch) {
		t.Error("expected redo on an empty history to return false")
	}
}

func TestDryRunDoesNotDispatch(t *testing.T) {
	h := newHarness(t, "a")
	h.edit(func(tr *state.Transaction) error { return tr.InsertText("b", 2) })

	before := h.state
	if !Undo(h.state, nil) {
		t.Error("expected availability check to report true")
	}
	if h.state != before || h.text() != "ab" {
		t.Error("expected a nil dispatch to leave the state untouched")
	}
}

func TestNewEditClearsRedo(t *testing.T) {
	h := newHarness(t, "a")
	h.edit(func(tr *state.Transaction) error { return tr.InsertText("b", 2) })

	if !Undo(h.state, h.dispatch) {
		t.Fatal("undo failed")
	}
	if RedoDepth(h.state) != 1 {
		t.Fatalf("expected 1 redoable event, got %d", RedoDepth(h.state))
	}

	h.edit(func(tr *state.Transaction) error { return tr.InsertText("z", 2) })
	if RedoDepth(h.state) != 0 {
		t.Errorf("expected a new edit to clear the redo stack, got %d", RedoDepth(h.state))
	}
	if Redo(h.state, h.dispatch) {
		t.Error("expected redo after a new edit to return false")
	}
}

func TestCloseHistorySplitsEvents(t *testing.T) {
	h := newHarness(t, "a")

	h.edit(func(tr *state.Transaction) error { return tr.InsertText("b", 2) })
	h.edit(func(tr *state.Transaction) error {
		CloseHistory(tr)
		return tr.InsertText("c", 3)
	})

	if got := UndoDepth(h.state); got != 2 {
		t.Fatalf("expected 2 undoable events, got %d", got)
	}
	if !Undo(h.state, h.dispatch) || h.text() != "ab" {
		t.Fatalf("expected first undo to give 'ab', got %q", h.text())
	}
	if !Undo(h.state, h.dispatch) || h.text() != "a" {
		t.Fatalf("expected second undo to give 'a', got %q", h.text())
	}
	if got := RedoDepth(h.state); got != 2 {
		t.Errorf("expected 2 redoable events, got %d", got)
	}
}

func TestAdjacentTypingGroupsIntoOneEvent(t *testing.T) {
	h := newHarness(t, "a")

	h.edit(func(tr *state.Transaction) error { return tr.InsertText("b", 2) })
	h.edit(func(tr *state.Transaction) error { return tr.InsertText("c", 3) })

	if got := UndoDepth(h.state); got != 1 {
		t.Fatalf("expected a typed run to form 1 event, got %d", got)
	}
	if !Undo(h.state, h.dispatch) || h.text() != "a" {
		t.Errorf("expected one undo to revert the whole run, got %q", h.text())
	}
}

func TestDistantEditStartsNewEvent(t *testing.T) {
	h := newHarness(t, "hello world")

	h.edit(func(tr *state.Transaction) error { return tr.InsertText("X", 1) })
	h.edit(func(tr *state.Transaction) error { return tr.InsertText("Y", 12) })

	if got := UndoDepth(h.state); got != 2 {
		t.Errorf("expected edits far apart to form 2 events, got %d", got)
	}
}

func TestAddToHistoryFalseIsNotUndone(t *testing.T) {
	h := newHarness(t, "abc")

	h.edit(func(tr *state.Transaction) error { return tr.InsertText("X", 1) })
	h.edit(func(tr *state.Transaction) error {
		tr.SetMeta(MetaAddToHistory, false)
		return tr.InsertText("Y", 5)
	})
	if h.text() != "XabcY" {
		t.Fatalf("expected 'XabcY', got %q", h.text())
	}
	if got := UndoDepth(h.state); got != 1 {
		t.Fatalf("expected the flagged edit to stay off the stack, got depth %d", got)
	}

	if !Undo(h.state, h.dispatch) {
		t.Fatal("undo failed")
	}
	if h.text() != "abcY" {
		t.Errorf("expected undo to revert X but keep Y, got %q", h.text())
	}
}

func TestSplitUndo(t *testing.T) {
	h := newHarness(t, "hello")

	h.edit(func(tr *state.Transaction) error { return tr.Split(3) })
	if h.state.Doc.ChildCount() != 2 {
		t.Fatalf("expected 2 blocks after split, got %d", h.state.Doc.ChildCount())
	}

	if !Undo(h.state, h.dispatch) {
		t.Fatal("undo failed")
	}
	if h.state.Doc.ChildCount() != 1 || h.text() != "hello" {
		t.Errorf("expected undo to rejoin the block, got %d blocks %q",
			h.state.Doc.ChildCount(), h.text())
	}
}

func TestDepthLimitDropsOldestEvents(t *testing.T) {
	h := newHarness(t, "a", WithDepth(2))

	// Trimming kicks in only past the slack margin.
	edits := 2 + depthOverflow + 1
	for i := 0; i < edits; i++ {
		h.edit(func(tr *state.Transaction) error {
			CloseHistory(tr)
			return tr.InsertText("x", tr.Doc().Content.Size-1)
		})
	}

	if got := UndoDepth(h.state); got != 2 {
		t.Errorf("expected depth trimmed to 2, got %d", got)
	}
	if !Undo(h.state, h.dispatch) {
		t.Error("expected trimmed history to remain undoable")
	}
}
