package doc

import (
	"errors"
	"testing"
)

// storySchema builds the vocabulary used by the story manager: paragraphs,
// headings, text, inline mention atoms, and a few marks.
func storySchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema(Spec{
		Nodes: []NodeSpec{
			{Name: "doc", Content: "block+"},
			{Name: "paragraph", Content: "inline*", Group: "block"},
			{Name: "heading", Content: "inline*", Group: "block",
				Attrs: map[string]*AttributeSpec{"level": {Default: int64(1)}}},
			{Name: "text", Group: "inline"},
			{Name: "mention", Group: "inline", Inline: true, Atom: true,
				Attrs: map[string]*AttributeSpec{"ref": {Required: true}}},
		},
		Marks: []MarkSpec{
			{Name: "em"},
			{Name: "strong"},
			{Name: "translation", Attrs: map[string]*AttributeSpec{"lang": {Default: ""}}},
		},
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func text(t *testing.T, s *Schema, str string, marks ...*Mark) *Node {
	t.Helper()
	n, err := s.Text(str, marks...)
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	return n
}

func para(t *testing.T, s *Schema, content ...*Node) *Node {
	t.Helper()
	n, err := s.Node("paragraph", nil, content...)
	if err != nil {
		t.Fatalf("paragraph: %v", err)
	}
	return n
}

func docNode(t *testing.T, s *Schema, blocks ...*Node) *Node {
	t.Helper()
	n, err := s.Node("doc", nil, blocks...)
	if err != nil {
		t.Fatalf("doc: %v", err)
	}
	return n
}

func TestNodeSizes(t *testing.T) {
	s := storySchema(t)
	p := para(t, s, text(t, s, "hello"))

	if p.NodeSize() != 7 {
		t.Errorf("expected paragraph size 7, got %d", p.NodeSize())
	}

	d := docNode(t, s, p)
	if d.Content.Size != 7 {
		t.Errorf("expected doc content size 7, got %d", d.Content.Size)
	}

	m, err := s.Node("mention", map[string]any{"ref": "ada"})
	if err != nil {
		t.Fatalf("mention: %v", err)
	}
	if m.NodeSize() != 1 {
		t.Errorf("expected mention size 1, got %d", m.NodeSize())
	}
}

func TestSchemaRejectsInvalidContent(t *testing.T) {
	s := storySchema(t)
	p := para(t, s, text(t, s, "hi"))

	// A paragraph may not contain another paragraph.
	_, err := s.Node("paragraph", nil, p)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}

	// The document requires at least one block.
	if _, err := s.Node("doc", nil); err == nil {
		t.Error("expected empty doc to be rejected by block+")
	}
}

func TestSchemaRequiredAttribute(t *testing.T) {
	s := storySchema(t)

	_, err := s.Node("mention", nil)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError for missing ref, got %v", err)
	}
}

func TestSchemaAttributeDefaults(t *testing.T) {
	s := storySchema(t)

	h, err := s.Node("heading", nil, text(t, s, "arc one"))
	if err != nil {
		t.Fatalf("heading: %v", err)
	}
	if h.Attrs["level"] != int64(1) {
		t.Errorf("expected default level 1, got %v", h.Attrs["level"])
	}
}

func TestEmptyTextRejected(t *testing.T) {
	s := storySchema(t)

	_, err := s.Text("")
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError for empty text, got %v", err)
	}
}

func TestMarkSetNormalization(t *testing.T) {
	s := storySchema(t)
	em, _ := s.Mark("em", nil)
	strong, _ := s.Mark("strong", nil)

	a := NormalizeMarks([]*Mark{strong, em, strong})
	b := NormalizeMarks([]*Mark{em, strong})

	if !SameMarkSet(a, b) {
		t.Errorf("expected normalized sets to be equal, got %d and %d marks", len(a), len(b))
	}
	if a[0].Type.Name != "em" {
		t.Errorf("expected em first after sorting, got %s", a[0].Type.Name)
	}
}

func TestMarkAddRemove(t *testing.T) {
	s := storySchema(t)
	em, _ := s.Mark("em", nil)
	strong, _ := s.Mark("strong", nil)

	set := em.AddToSet(nil)
	set = strong.AddToSet(set)

	if len(set) != 2 {
		t.Fatalf("expected 2 marks, got %d", len(set))
	}
	if !em.IsInSet(set) || !strong.IsInSet(set) {
		t.Error("expected both marks in set")
	}

	set = em.RemoveFromSet(set)
	if em.IsInSet(set) {
		t.Error("expected em removed from set")
	}
	if !strong.IsInSet(set) {
		t.Error("expected strong to remain in set")
	}
}

func TestResolve(t *testing.T) {
	s := storySchema(t)
	d := docNode(t, s,
		para(t, s, text(t, s, "hello")),
		para(t, s, text(t, s, "world")))

	r, err := d.Resolve(3)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if r.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", r.Depth())
	}
	if r.Parent().Type.Name != "paragraph" {
		t.Errorf("expected paragraph parent, got %s", r.Parent().Type.Name)
	}
	if r.ParentOffset() != 2 {
		t.Errorf("expected parent offset 2, got %d", r.ParentOffset())
	}
	if r.TextOffset() != 2 {
		t.Errorf("expected text offset 2, got %d", r.TextOffset())
	}
	if r.Start(1) != 1 {
		t.Errorf("expected paragraph content start 1, got %d", r.Start(1))
	}
	if r.End(1) != 6 {
		t.Errorf("expected paragraph content end 6, got %d", r.End(1))
	}

	// Second paragraph starts after the first (size 7).
	r2, err := d.Resolve(9)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if r2.Start(1) != 8 {
		t.Errorf("expected second paragraph start 8, got %d", r2.Start(1))
	}
}

func TestResolveOutOfRange(t *testing.T) {
	s := storySchema(t)
	d := docNode(t, s, para(t, s, text(t, s, "hi")))

	var rangeErr *RangeError
	if _, err := d.Resolve(-1); !errors.As(err, &rangeErr) {
		t.Errorf("expected RangeError for -1, got %v", err)
	}
	if _, err := d.Resolve(d.Content.Size + 1); !errors.As(err, &rangeErr) {
		t.Errorf("expected RangeError past end, got %v", err)
	}

	// Every position in [0, size] resolves.
	for pos := 0; pos <= d.Content.Size; pos++ {
		if _, err := d.Resolve(pos); err != nil {
			t.Errorf("position %d failed to resolve: %v", pos, err)
		}
	}
}

func TestFragmentCutAppend(t *testing.T) {
	s := storySchema(t)
	f := NewFragment(text(t, s, "abc"), text(t, s, "def", mustMark(t, s, "em")))

	cut := f.Cut(1, 5)
	if cut.Size != 4 {
		t.Errorf("expected cut size 4, got %d", cut.Size)
	}
	if cut.Child(0).Text != "bc" {
		t.Errorf("expected first cut child 'bc', got %q", cut.Child(0).Text)
	}
	if cut.Child(1).Text != "de" {
		t.Errorf("expected second cut child 'de', got %q", cut.Child(1).Text)
	}

	joined := NewFragment(text(t, s, "ab")).Append(NewFragment(text(t, s, "cd")))
	if joined.ChildCount() != 1 {
		t.Fatalf("expected text nodes merged on append, got %d children", joined.ChildCount())
	}
	if joined.Child(0).Text != "abcd" {
		t.Errorf("expected merged text 'abcd', got %q", joined.Child(0).Text)
	}
}

func TestFragmentReplaceChild(t *testing.T) {
	s := storySchema(t)
	f := NewFragment(para(t, s, text(t, s, "one")), para(t, s, text(t, s, "two")))

	replacement := para(t, s, text(t, s, "three"))
	g := f.ReplaceChild(1, replacement)

	if f.Child(1).TextContent() != "two" {
		t.Error("ReplaceChild must not mutate the receiver")
	}
	if g.Child(1).TextContent() != "three" {
		t.Errorf("expected replaced child 'three', got %q", g.Child(1).TextContent())
	}
	if g.Size != f.Size+2 {
		t.Errorf("expected size adjusted by 2, got %d (was %d)", g.Size, f.Size)
	}
}

func TestSliceExtraction(t *testing.T) {
	s := storySchema(t)
	d := docNode(t, s,
		para(t, s, text(t, s, "hello")),
		para(t, s, text(t, s, "world")))

	// A slice across the paragraph boundary is open on both sides.
	slice, err := d.Slice(4, 10)
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	if slice.OpenStart != 1 || slice.OpenEnd != 1 {
		t.Errorf("expected open depths (1,1), got (%d,%d)", slice.OpenStart, slice.OpenEnd)
	}
	if slice.Size() != 6 {
		t.Errorf("expected slice size 6, got %d", slice.Size())
	}

	// A slice inside one text node is flat.
	flat, err := d.Slice(1, 4)
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	if flat.OpenStart != 0 || flat.OpenEnd != 0 {
		t.Errorf("expected closed slice, got (%d,%d)", flat.OpenStart, flat.OpenEnd)
	}
	if flat.Content.Child(0).Text != "hel" {
		t.Errorf("expected 'hel', got %q", flat.Content.Child(0).Text)
	}
}

func TestReplaceInsertText(t *testing.T) {
	s := storySchema(t)
	d := docNode(t, s, para(t, s, text(t, s, "hello")))

	ins := NewSlice(NewFragment(text(t, s, " world")), 0, 0)
	d2, err := d.Replace(6, 6, ins)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got := d2.TextContent(); got != "hello world" {
		t.Errorf("expected 'hello world', got %q", got)
	}
	if d.TextContent() != "hello" {
		t.Error("replace must not mutate the original document")
	}
	// The untouched document node type and attrs are shared.
	if d2.Child(0).ChildCount() != 1 {
		t.Errorf("expected merged single text child, got %d", d2.Child(0).ChildCount())
	}
}

func TestReplaceDelete(t *testing.T) {
	s := storySchema(t)
	d := docNode(t, s, para(t, s, text(t, s, "hello world")))

	d2, err := d.Replace(6, 12, EmptySlice)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got := d2.TextContent(); got != "hello" {
		t.Errorf("expected 'hello', got %q", got)
	}
}

func TestReplaceSplitsBlock(t *testing.T) {
	s := storySchema(t)
	d := docNode(t, s, para(t, s, text(t, s, "hello")))

	// Splitting is a replacement of the split point with an open block
	// boundary: two empty paragraph shells, open at both ends.
	shell := para(t, s)
	split := NewSlice(NewFragment(shell, shell), 1, 1)
	d2, err := d.Replace(3, 3, split)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if d2.ChildCount() != 2 {
		t.Fatalf("expected 2 paragraphs after split, got %d", d2.ChildCount())
	}
	if d2.Child(0).TextContent() != "he" || d2.Child(1).TextContent() != "llo" {
		t.Errorf("expected 'he'/'llo', got %q/%q",
			d2.Child(0).TextContent(), d2.Child(1).TextContent())
	}
}

func TestReplaceJoinsBlocks(t *testing.T) {
	s := storySchema(t)
	d := docNode(t, s,
		para(t, s, text(t, s, "he")),
		para(t, s, text(t, s, "llo")))

	// Joining removes the boundary tokens between two compatible blocks.
	d2, err := d.Replace(3, 5, EmptySlice)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if d2.ChildCount() != 1 {
		t.Fatalf("expected 1 paragraph after join, got %d", d2.ChildCount())
	}
	if got := d2.Child(0).TextContent(); got != "hello" {
		t.Errorf("expected 'hello', got %q", got)
	}
	if d2.Child(0).ChildCount() != 1 {
		t.Errorf("expected merged text nodes, got %d children", d2.Child(0).ChildCount())
	}
}

func TestReplaceRejectsInvalidSplice(t *testing.T) {
	s := storySchema(t)
	d := docNode(t, s, para(t, s, text(t, s, "hello")))

	// Splicing block content into an inline-only parent must fail.
	block := NewSlice(NewFragment(para(t, s, text(t, s, "x"))), 0, 0)
	_, err := d.Replace(2, 2, block)
	var repErr *ReplaceError
	if !errors.As(err, &repErr) {
		t.Fatalf("expected ReplaceError, got %v", err)
	}
}

func TestNodesBetween(t *testing.T) {
	s := storySchema(t)
	d := docNode(t, s,
		para(t, s, text(t, s, "ab"), text(t, s, "cd", mustMark(t, s, "em"))),
		para(t, s, text(t, s, "ef")))

	var visited []string
	d.NodesBetween(0, d.Content.Size, func(n *Node, pos int, _ *Node) bool {
		visited = append(visited, n.Type.Name)
		return true
	})

	want := []string{"paragraph", "text", "text", "paragraph", "text"}
	if len(visited) != len(want) {
		t.Fatalf("expected %d nodes, got %d (%v)", len(want), len(visited), visited)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("node %d: expected %s, got %s", i, want[i], visited[i])
		}
	}
}

func TestStructuralSharing(t *testing.T) {
	s := storySchema(t)
	p1 := para(t, s, text(t, s, "unchanged"))
	p2 := para(t, s, text(t, s, "edited"))
	d := docNode(t, s, p1, p2)

	ins := NewSlice(NewFragment(text(t, s, "!")), 0, 0)
	d2, err := d.Replace(d.Content.Size-1, d.Content.Size-1, ins)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if d2.Child(0) != p1 {
		t.Error("expected untouched subtree to be shared, not copied")
	}
	if d2.Child(1) == p2 {
		t.Error("expected edited subtree to be a new node")
	}
}

func mustMark(t *testing.T, s *Schema, name string) *Mark {
	t.Helper()
	m, err := s.Mark(name, nil)
	if err != nil {
		t.Fatalf("mark %s: %v", name, err)
	}
	return m
}
