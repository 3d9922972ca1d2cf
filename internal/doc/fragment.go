package doc

import "strings"

// Fragment is an ordered sequence of child nodes. It is immutable; all
// operations return a new fragment, sharing child nodes with the receiver.
//
// A fragment's Size is the sum of its children's sizes and is the addressing
// contract for all flat positions.
type Fragment struct {
	children []*Node

	// Size is the total size of the children: one per character for text
	// nodes, 2 + content size for element nodes.
	Size int
}

// EmptyFragment is the shared empty fragment.
var EmptyFragment = &Fragment{}

// NewFragment builds a fragment from the given children.
func NewFragment(children ...*Node) *Fragment {
	if len(children) == 0 {
		return EmptyFragment
	}
	size := 0
	for _, c := range children {
		size += c.NodeSize()
	}
	return &Fragment{children: children, Size: size}
}

// FragmentFrom coerces a possibly-nil node into a fragment.
func FragmentFrom(n *Node) *Fragment {
	if n == nil {
		return EmptyFragment
	}
	return NewFragment(n)
}

// ChildCount returns the number of direct children.
func (f *Fragment) ChildCount() int { return len(f.children) }

// Child returns the child at index. It panics on out-of-range indexes,
// which always indicate a kernel bug rather than bad user input.
func (f *Fragment) Child(index int) *Node { return f.children[index] }

// MaybeChild returns the child at index, or nil when out of range.
func (f *Fragment) MaybeChild(index int) *Node {
	if index < 0 || index >= len(f.children) {
		return nil
	}
	return f.children[index]
}

// FirstChild returns the first child, or nil for an empty fragment.
func (f *Fragment) FirstChild() *Node { return f.MaybeChild(0) }

// LastChild returns the last child, or nil for an empty fragment.
func (f *Fragment) LastChild() *Node { return f.MaybeChild(len(f.children) - 1) }

// Cut returns the sub-fragment between the given positions. Element nodes
// that straddle a boundary are cut open: their type is kept but their
// content is trimmed to the range.
func (f *Fragment) Cut(from, to int) *Fragment {
	if from == 0 && to == f.Size {
		return f
	}
	var result []*Node
	size := 0
	if to > from {
		pos := 0
		for i := 0; pos < to; i++ {
			child := f.children[i]
			end := pos + child.NodeSize()
			if end > from {
				if pos < from || end > to {
					if child.IsText() {
						child = child.cutText(max(0, from-pos), min(len(child.Text), to-pos))
					} else {
						child = child.Cut(max(0, from-pos-1), min(child.Content.Size, to-pos-1))
					}
				}
				result = append(result, child)
				size += child.NodeSize()
			}
			pos = end
		}
	}
	return &Fragment{children: result, Size: size}
}

// CutByIndex returns the sub-fragment spanning whole children [from, to).
func (f *Fragment) CutByIndex(from, to int) *Fragment {
	if from == to {
		return EmptyFragment
	}
	if from == 0 && to == len(f.children) {
		return f
	}
	return NewFragment(f.children[from:to]...)
}

// Append returns the concatenation of two fragments. Adjacent text nodes
// with identical markup are merged at the seam.
func (f *Fragment) Append(other *Fragment) *Fragment {
	if other.Size == 0 {
		return f
	}
	if f.Size == 0 {
		return other
	}
	last, first := f.LastChild(), other.FirstChild()
	content := make([]*Node, 0, len(f.children)+len(other.children))
	content = append(content, f.children...)
	i := 0
	if last.IsText() && last.SameMarkup(first) {
		content[len(content)-1] = last.WithText(last.Text + first.Text)
		i = 1
	}
	content = append(content, other.children[i:]...)
	return NewFragment(content...)
}

// ReplaceChild returns a fragment with the child at index swapped for node.
func (f *Fragment) ReplaceChild(index int, node *Node) *Fragment {
	current := f.children[index]
	if current == node {
		return f
	}
	children := make([]*Node, len(f.children))
	copy(children, f.children)
	children[index] = node
	return &Fragment{children: children, Size: f.Size + node.NodeSize() - current.NodeSize()}
}

// Eq reports deep structural equality of two fragments.
func (f *Fragment) Eq(other *Fragment) bool {
	if f == other {
		return true
	}
	if len(f.children) != len(other.children) {
		return false
	}
	for i := range f.children {
		if !f.children[i].Eq(other.children[i]) {
			return false
		}
	}
	return true
}

// findIndex locates the child containing the given position. It returns the
// child index and the position at which that child starts. When pos falls
// exactly on a child boundary, the index of the following child is returned
// with offset == pos.
func (f *Fragment) findIndex(pos int) (index, offset int) {
	if pos == 0 {
		return 0, 0
	}
	if pos == f.Size {
		return len(f.children), f.Size
	}
	if pos > f.Size || pos < 0 {
		panic(rangeErr(pos, "outside of fragment"))
	}
	cur := 0
	for i := 0; ; i++ {
		end := cur + f.children[i].NodeSize()
		if end >= pos {
			if end == pos {
				return i + 1, end
			}
			return i, cur
		}
		cur = end
	}
}

// nodesBetween invokes fn for every node between the two positions,
// descending into children. Returning false from fn prevents descent into
// that node's content. nodeStart is the document position at the start of
// this fragment.
func (f *Fragment) nodesBetween(from, to int, fn func(n *Node, pos int, parent *Node) bool, nodeStart int, parent *Node) {
	pos := 0
	for i := 0; pos < to && i < len(f.children); i++ {
		child := f.children[i]
		end := pos + child.NodeSize()
		if end > from && fn(child, nodeStart+pos, parent) && child.Content.Size > 0 {
			start := pos + 1
			child.Content.nodesBetween(max(0, from-start), min(child.Content.Size, to-start), fn, nodeStart+start, child)
		}
		pos = end
	}
}

// textBetween concatenates the text content between two positions,
// separating block boundaries with blockSeparator.
func (f *Fragment) textBetween(from, to int, blockSeparator string) string {
	var b strings.Builder
	separated := true
	f.nodesBetween(from, to, func(n *Node, pos int, _ *Node) bool {
		if n.IsText() {
			start := max(from, pos)
			b.WriteString(n.Text[start-pos : min(to, pos+len(n.Text))-pos])
			separated = blockSeparator == ""
		} else if n.IsBlock() && !separated {
			b.WriteString(blockSeparator)
			separated = true
		}
		return true
	}, 0, nil)
	return b.String()
}

// String returns a debugging representation of the fragment.
func (f *Fragment) String() string {
	var b strings.Builder
	b.WriteByte('<')
	for i, c := range f.children {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.String())
	}
	b.WriteByte('>')
	return b.String()
}
