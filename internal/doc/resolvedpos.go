package doc

// pathEntry records one level of the descent from the document root toward
// a resolved position.
type pathEntry struct {
	node *Node // the ancestor node at this depth
	// index of the child the descent continues into (or the child after
	// the position, at the deepest level)
	index int
	// absolute position immediately before that child
	childStart int
}

// ResolvedPos is a flat position resolved into a path of ancestor nodes,
// child indexes, and start offsets. It supports parent, depth, and offset
// queries without back-pointers in the tree itself.
type ResolvedPos struct {
	// Pos is the position this was resolved from.
	Pos int

	path []pathEntry

	// parentOffset is the offset of the position into its parent node.
	parentOffset int
}

// resolve performs the actual descent. Callers must have range-checked pos.
func resolve(root *Node, pos int) *ResolvedPos {
	var path []pathEntry
	start := 0
	parentOffset := pos
	node := root
	for {
		index, offset := node.Content.findIndex(parentOffset)
		rem := parentOffset - offset
		path = append(path, pathEntry{node: node, index: index, childStart: start + offset})
		if rem == 0 {
			break
		}
		node = node.Child(index)
		if node.IsText() {
			break
		}
		parentOffset = rem - 1
		start += offset + 1
	}
	return &ResolvedPos{Pos: pos, path: path, parentOffset: parentOffset}
}

// Depth returns the depth of the parent node: 0 for the document itself.
func (r *ResolvedPos) Depth() int { return len(r.path) - 1 }

// Node returns the ancestor node at the given depth.
func (r *ResolvedPos) Node(depth int) *Node { return r.path[depth].node }

// Parent returns the node the position points into.
func (r *ResolvedPos) Parent() *Node { return r.Node(r.Depth()) }

// Index returns the index of the position within the ancestor at depth.
func (r *ResolvedPos) Index(depth int) int { return r.path[depth].index }

// IndexAfter returns the index of the child after the position at depth.
func (r *ResolvedPos) IndexAfter(depth int) int {
	index := r.Index(depth)
	if depth == r.Depth() && r.TextOffset() == 0 {
		return index
	}
	return index + 1
}

// Start returns the absolute position at the start of the content of the
// ancestor node at the given depth.
func (r *ResolvedPos) Start(depth int) int {
	if depth == 0 {
		return 0
	}
	return r.path[depth-1].childStart + 1
}

// End returns the absolute position at the end of the content of the
// ancestor node at the given depth.
func (r *ResolvedPos) End(depth int) int {
	return r.Start(depth) + r.Node(depth).Content.Size
}

// Before returns the absolute position directly before the ancestor node at
// the given depth. It panics at depth 0, which has no position before it.
func (r *ResolvedPos) Before(depth int) int {
	if depth == 0 {
		panic(rangeErr(r.Pos, "has no position before the document root"))
	}
	return r.path[depth-1].childStart
}

// After returns the absolute position directly after the ancestor node at
// the given depth.
func (r *ResolvedPos) After(depth int) int {
	if depth == 0 {
		panic(rangeErr(r.Pos, "has no position after the document root"))
	}
	return r.path[depth-1].childStart + r.Node(depth).NodeSize()
}

// ParentOffset returns the offset of the position into its parent.
func (r *ResolvedPos) ParentOffset() int { return r.parentOffset }

// TextOffset returns the offset of the position into the text node it
// points into, or 0 when it sits between nodes.
func (r *ResolvedPos) TextOffset() int {
	return r.Pos - r.path[len(r.path)-1].childStart
}

// NodeAfter returns the node directly after the position, cut at the
// position when it falls inside a text node, or nil at the end of the
// parent.
func (r *ResolvedPos) NodeAfter() *Node {
	parent := r.Parent()
	index := r.Index(r.Depth())
	if index == parent.ChildCount() {
		return nil
	}
	dOff := r.Pos - r.path[len(r.path)-1].childStart
	child := parent.Child(index)
	if dOff > 0 {
		return child.Cut(dOff, len(child.Text))
	}
	return child
}

// NodeBefore returns the node directly before the position, or nil at the
// start of the parent.
func (r *ResolvedPos) NodeBefore() *Node {
	index := r.Index(r.Depth())
	dOff := r.Pos - r.path[len(r.path)-1].childStart
	if dOff > 0 {
		return r.Parent().Child(index).Cut(0, dOff)
	}
	if index == 0 {
		return nil
	}
	return r.Parent().Child(index - 1)
}

// SharedDepth returns the deepest depth at which this position and the
// given position share a common ancestor whose content contains both.
func (r *ResolvedPos) SharedDepth(pos int) int {
	for depth := r.Depth(); depth > 0; depth-- {
		if r.Start(depth) <= pos && r.End(depth) >= pos {
			return depth
		}
	}
	return 0
}

// SameParent reports whether two resolved positions point into the same
// parent node.
func (r *ResolvedPos) SameParent(other *ResolvedPos) bool {
	return r.Pos-r.parentOffset == other.Pos-other.parentOffset
}
