package doc

import (
	"fmt"
	"strings"
)

// Node is a single element in the document tree. Nodes are immutable and
// exclusively own their content; unchanged subtrees are shared across edits
// rather than copied.
//
// Text nodes carry a Text string and a normalized Mark set and have no
// content fragment. All other nodes carry a (possibly empty) Fragment.
type Node struct {
	// Type is this node's registered type.
	Type *NodeType

	// Attrs holds the node's attributes. Never nil after construction
	// through a Schema.
	Attrs map[string]any

	// Content is the fragment of child nodes. EmptyFragment for leaves.
	Content *Fragment

	// Text is the node's text for text nodes, empty otherwise.
	Text string

	// Marks is the normalized mark set. Only inline nodes carry marks.
	Marks []*Mark
}

// NodeSize returns the size this node contributes to flat addressing: the
// character count for text nodes, 1 for non-text leaves, and 2 + content
// size for elements.
func (n *Node) NodeSize() int {
	if n.IsText() {
		return len(n.Text)
	}
	if n.Type.isLeaf {
		return 1
	}
	return 2 + n.Content.Size
}

// IsText reports whether this is a text node.
func (n *Node) IsText() bool { return n.Type.isText }

// IsBlock reports whether this is a block-level node.
func (n *Node) IsBlock() bool { return !n.Type.inline }

// IsInline reports whether this node lives in inline content.
func (n *Node) IsInline() bool { return n.Type.inline }

// IsLeaf reports whether this node cannot contain content.
func (n *Node) IsLeaf() bool { return n.IsText() || n.Type.isLeaf }

// IsTextblock reports whether this is a block node with inline content.
func (n *Node) IsTextblock() bool { return n.IsBlock() && n.Type.inlineContent }

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int { return n.Content.ChildCount() }

// Child returns the child node at the given index.
func (n *Node) Child(index int) *Node { return n.Content.Child(index) }

// Copy returns a node with the same type, attrs and marks but the given
// content fragment. The content is not revalidated; use the schema
// constructors for externally supplied content.
func (n *Node) Copy(content *Fragment) *Node {
	if content == n.Content {
		return n
	}
	return &Node{Type: n.Type, Attrs: n.Attrs, Content: content, Marks: n.Marks}
}

// WithMarks returns this node with a different mark set.
func (n *Node) WithMarks(marks []*Mark) *Node {
	if SameMarkSet(n.Marks, marks) {
		return n
	}
	c := *n
	c.Marks = marks
	return &c
}

// WithText returns a text node with the same markup but different text.
func (n *Node) WithText(text string) *Node {
	if text == n.Text {
		return n
	}
	c := *n
	c.Text = text
	return &c
}

// Cut returns the node with its content trimmed to the given range. For
// text nodes the range indexes into the text itself.
func (n *Node) Cut(from, to int) *Node {
	if n.IsText() {
		return n.cutText(from, to)
	}
	if from == 0 && to == n.Content.Size {
		return n
	}
	return n.Copy(n.Content.Cut(from, to))
}

func (n *Node) cutText(from, to int) *Node {
	if from == 0 && to == len(n.Text) {
		return n
	}
	return n.WithText(n.Text[from:to])
}

// SameMarkup reports whether two nodes share type, attributes, and marks.
func (n *Node) SameMarkup(other *Node) bool {
	return other != nil && n.Type == other.Type &&
		attrsEq(n.Attrs, other.Attrs) && SameMarkSet(n.Marks, other.Marks)
}

// Eq reports deep structural equality of two nodes.
func (n *Node) Eq(other *Node) bool {
	if n == other {
		return true
	}
	if !n.SameMarkup(other) || n.Text != other.Text {
		return false
	}
	return n.Content.Eq(other.Content)
}

// Resolve resolves a flat position into a ResolvedPos describing the path
// from this node (the root) down to the position. Positions outside
// [0, n.Content.Size] fail with a *RangeError.
func (n *Node) Resolve(pos int) (*ResolvedPos, error) {
	if pos < 0 || pos > n.Content.Size {
		return nil, rangeErr(pos, fmt.Sprintf("out of range (document size %d)", n.Content.Size))
	}
	return resolve(n, pos), nil
}

// Slice extracts the content between two positions as a Slice, recording
// how far the endpoints were inside nested nodes as open depths.
func (n *Node) Slice(from, to int) (*Slice, error) {
	if from == to {
		return EmptySlice, nil
	}
	rFrom, err := n.Resolve(from)
	if err != nil {
		return nil, err
	}
	rTo, err := n.Resolve(to)
	if err != nil {
		return nil, err
	}
	depth := rFrom.SharedDepth(to)
	start := rFrom.Start(depth)
	content := rFrom.Node(depth).Content.Cut(rFrom.Pos-start, rTo.Pos-start)
	return &Slice{Content: content, OpenStart: rFrom.Depth() - depth, OpenEnd: rTo.Depth() - depth}, nil
}

// NodesBetween invokes fn for every descendant node between the given
// positions. fn receives the node, its document position, and its parent;
// returning false prevents descent into that node.
func (n *Node) NodesBetween(from, to int, fn func(child *Node, pos int, parent *Node) bool) {
	n.Content.nodesBetween(from, to, fn, 0, n)
}

// TextBetween returns the text content between two positions, separating
// blocks with the given separator.
func (n *Node) TextBetween(from, to int, blockSeparator string) string {
	return n.Content.textBetween(from, to, blockSeparator)
}

// TextContent returns all text in this node's subtree.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	return n.Content.textBetween(0, n.Content.Size, "")
}

// String returns a debugging representation like paragraph<"hello">.
func (n *Node) String() string {
	if n.IsText() {
		name := fmt.Sprintf("%q", n.Text)
		for _, m := range n.Marks {
			name = m.Type.Name + "(" + name + ")"
		}
		return name
	}
	var b strings.Builder
	b.WriteString(n.Type.Name)
	if n.Content.Size > 0 {
		b.WriteString(n.Content.String())
	}
	return b.String()
}
