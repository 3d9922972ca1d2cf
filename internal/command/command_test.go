package command

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
		Marks: []doc.MarkSpec{{Name: "strong"}},
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func stateWithText(t *testing.T, text string, anchor, head int) *state.EditorState {
	t.Helper()
	s := testSchema(t)
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
	sel := state.TextSelection(anchor, head)
	st, err := state.New(state.Config{Schema: s, Doc: d, Selection: &sel})
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	return st
}

// run dispatches a command and returns the resulting state, or the input
// state when the command did not apply.
func run(t *testing.T, st *state.EditorState, cmd Command) (*state.EditorState, bool) {
	t.Helper()
	next := st
	ok := cmd(st, func(tr *state.Transaction) {
		applied, err := st.Apply(tr)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		next = applied
	})
	return next, ok
}

func TestInsertTextAtCursor(t *testing.T) {
	st := stateWithText(t, "he", 3, 3)

	next, ok := run(t, st, InsertText("y"))
	if !ok {
		t.Fatal("expected insert to apply")
	}
	if got := next.Doc.TextContent(); got != "hey" {
		t.Errorf("expected 'hey', got %q", got)
	}
	if next.Selection.Anchor != 4 {
		t.Errorf("expected cursor after inserted text at 4, got %d", next.Selection.Anchor)
	}
}

func TestInsertTextReplacesSelection(t *testing.T) {
	st := stateWithText(t, "hello", 2, 5)

	next, ok := run(t, st, InsertText("a"))
	if !ok {
		t.Fatal("expected insert to apply")
	}
	if got := next.Doc.TextContent(); got != "hao" {
		t.Errorf("expected 'hao', got %q", got)
	}
}

func TestDeleteSelection(t *testing.T) {
	st := stateWithText(t, "hello", 1, 4)

	next, ok := run(t, st, DeleteSelection)
	if !ok {
		t.Fatal("expected delete to apply")
	}
	if got := next.Doc.TextContent(); got != "lo" {
		t.Errorf("expected 'lo', got %q", got)
	}

	if _, ok := run(t, next, DeleteSelection); ok {
		t.Error("expected delete not to apply to a cursor")
	}
}

func TestSplitBlock(t *testing.T) {
	st := stateWithText(t, "hello", 3, 3)

	next, ok := run(t, st, SplitBlock)
	if !ok {
		t.Fatal("expected split to apply")
	}
	if next.Doc.ChildCount() != 2 {
		t.Fatalf("expected 2 blocks, got %d", next.Doc.ChildCount())
	}
	if got := next.Doc.Child(0).TextContent(); got != "he" {
		t.Errorf("expected first block 'he', got %q", got)
	}
	// The cursor moves to the start of the second block.
	if next.Selection.Anchor != 5 {
		t.Errorf("expected cursor at 5, got %d", next.Selection.Anchor)
	}
}

func TestSplitBlockDeletesSelectionFirst(t *testing.T) {
	st := stateWithText(t, "hello", 2, 4)

	next, ok := run(t, st, SplitBlock)
	if !ok {
		t.Fatal("expected split to apply")
	}
	if next.Doc.ChildCount() != 2 {
		t.Fatalf("expected 2 blocks, got %d", next.Doc.ChildCount())
	}
	// Selection (2,4) covers "el"; the split happens after the deletion.
	if got := next.Doc.TextContent(); got != "hlo" {
		t.Errorf("expected selected text gone, got %q", got)
	}
	if got := next.Doc.Child(0).TextContent(); got != "h" {
		t.Errorf("expected first block 'h', got %q", got)
	}
}

func TestJoinBackward(t *testing.T) {
	st := stateWithText(t, "hello", 3, 3)
	split, ok := run(t, st, SplitBlock)
	if !ok {
		t.Fatal("split failed")
	}

	// Cursor sits at the start of the second block after the split.
	joined, ok := run(t, split, JoinBackward)
	if !ok {
		t.Fatal("expected join to apply")
	}
	if joined.Doc.ChildCount() != 1 || joined.Doc.TextContent() != "hello" {
		t.Errorf("expected rejoined 'hello', got %d blocks %q",
			joined.Doc.ChildCount(), joined.Doc.TextContent())
	}
	if joined.Selection.Anchor != 3 {
		t.Errorf("expected cursor at the join point 3, got %d", joined.Selection.Anchor)
	}
}

func TestJoinBackwardRefusesMidBlockAndFirstBlock(t *testing.T) {
	mid := stateWithText(t, "hello", 3, 3)
	if _, ok := run(t, mid, JoinBackward); ok {
		t.Error("expected join not to apply mid-block")
	}

	first := stateWithText(t, "hello", 1, 1)
	if _, ok := run(t, first, JoinBackward); ok {
		t.Error("expected join not to apply in the first block")
	}
}

func TestToggleMark(t *testing.T) {
	st := stateWithText(t, "hello", 1, 6)
	strong, err := st.Schema.Mark("strong", nil)
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	toggle := ToggleMark(strong)

	marked, ok := run(t, st, toggle)
	if !ok {
		t.Fatal("expected toggle to apply")
	}
	if !strong.IsInSet(marked.Doc.Child(0).Child(0).Marks) {
		t.Error("expected the text to carry the mark")
	}

	unmarked, ok := run(t, marked, toggle)
	if !ok {
		t.Fatal("expected second toggle to apply")
	}
	if strong.IsInSet(unmarked.Doc.Child(0).Child(0).Marks) {
		t.Error("expected the mark removed")
	}

	cursor := stateWithText(t, "hello", 2, 2)
	if _, ok := run(t, cursor, toggle); ok {
		t.Error("expected toggle not to apply to a cursor")
	}
}

func TestChainTriesInOrder(t *testing.T) {
	st := stateWithText(t, "hello", 2, 2)

	// DeleteSelection does not apply to a cursor, so the chain falls
	// through to the insert.
	next, ok := run(t, st, Chain(DeleteSelection, InsertText("!")))
	if !ok {
		t.Fatal("expected chain to apply")
	}
	if got := next.Doc.TextContent(); got != "h!ello" {
		t.Errorf("expected 'h!ello', got %q", got)
	}
}

func TestDryRun(t *testing.T) {
	st := stateWithText(t, "hello", 1, 4)

	if !DeleteSelection(st, nil) {
		t.Error("expected availability check to report true")
	}
	if got := st.Doc.TextContent(); got != "hello" {
		t.Errorf("expected state untouched, got %q", got)
	}
}
