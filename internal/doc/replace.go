package doc

// Replace returns a new document with the content between from and to
// replaced by the given slice. The slice's open sides are joined onto the
// nodes cut open at the range boundaries; incompatible joins or content
// that violates a parent's content expression fail with a *ReplaceError.
// Position resolution failures surface as *RangeError.
//
// The receiver is never modified; untouched subtrees are shared between
// the old and new tree.
func (n *Node) Replace(from, to int, slice *Slice) (*Node, error) {
	rFrom, err := n.Resolve(from)
	if err != nil {
		return nil, err
	}
	rTo, err := n.Resolve(to)
	if err != nil {
		return nil, err
	}
	if slice.OpenStart > rFrom.Depth() {
		return nil, replaceErr("inserted content deeper than insertion position")
	}
	if rFrom.Depth()-slice.OpenStart != rTo.Depth()-slice.OpenEnd {
		return nil, replaceErr("inconsistent open depths")
	}
	return replaceOuter(rFrom, rTo, slice, 0)
}

func replaceOuter(from, to *ResolvedPos, slice *Slice, depth int) (*Node, error) {
	index := from.Index(depth)
	node := from.Node(depth)
	switch {
	case index == to.Index(depth) && depth < from.Depth()-slice.OpenStart:
		// The range is confined to a single child below the slice's
		// open depth; recurse into it.
		inner, err := replaceOuter(from, to, slice, depth+1)
		if err != nil {
			return nil, err
		}
		return node.Copy(node.Content.ReplaceChild(index, inner)), nil

	case slice.Content.Size == 0:
		content, err := replaceTwoWay(from, to, depth)
		if err != nil {
			return nil, err
		}
		return closeNode(node, content)

	case slice.OpenStart == 0 && slice.OpenEnd == 0 && from.Depth() == depth && to.Depth() == depth:
		// Simple flat case: splice the slice directly into the parent.
		parent := from.Parent()
		content := parent.Content
		spliced := content.Cut(0, from.ParentOffset()).
			Append(slice.Content).
			Append(content.Cut(to.ParentOffset(), content.Size))
		return closeNode(parent, spliced)

	default:
		start, end := prepareSliceForReplace(slice, from)
		content, err := replaceThreeWay(from, start, end, to, depth)
		if err != nil {
			return nil, err
		}
		return closeNode(node, content)
	}
}

// checkJoin verifies that content of sub's type can be joined into main.
func checkJoin(main, sub *Node) error {
	if !sub.Type.CompatibleContent(main.Type) {
		return replaceErr("cannot join %s onto %s", sub.Type.Name, main.Type.Name)
	}
	return nil
}

// joinable returns the node at depth on the before side after verifying it
// can absorb the content of the node at the same depth on the after side.
func joinable(before, after *ResolvedPos, depth int) (*Node, error) {
	node := before.Node(depth)
	if err := checkJoin(node, after.Node(depth)); err != nil {
		return nil, err
	}
	return node, nil
}

// addNode appends child to target, merging it with the preceding node when
// both are text with identical markup.
func addNode(child *Node, target []*Node) []*Node {
	last := len(target) - 1
	if last >= 0 && child.IsText() && child.SameMarkup(target[last]) {
		target[last] = target[last].WithText(target[last].Text + child.Text)
		return target
	}
	return append(target, child)
}

// addRange appends the children of the node at depth between the start and
// end boundaries to target. A nil start means "from the beginning", a nil
// end means "to the end".
func addRange(start, end *ResolvedPos, depth int, target []*Node) []*Node {
	var node *Node
	if end != nil {
		node = end.Node(depth)
	} else {
		node = start.Node(depth)
	}
	startIndex := 0
	endIndex := node.ChildCount()
	if end != nil {
		endIndex = end.Index(depth)
	}
	if start != nil {
		startIndex = start.Index(depth)
		if start.Depth() > depth {
			startIndex++
		} else if start.TextOffset() != 0 {
			target = addNode(start.NodeAfter(), target)
			startIndex++
		}
	}
	for i := startIndex; i < endIndex; i++ {
		target = addNode(node.Child(i), target)
	}
	if end != nil && end.Depth() == depth && end.TextOffset() != 0 {
		target = addNode(end.NodeBefore(), target)
	}
	return target
}

// closeNode wraps content in a copy of node, validating it against the
// node type's content expression.
func closeNode(node *Node, content *Fragment) (*Node, error) {
	if !node.Type.ValidContent(content) {
		return nil, replaceErr("invalid content %s for node %s", content, node.Type.Name)
	}
	return node.Copy(content), nil
}

func replaceThreeWay(from, start, end, to *ResolvedPos, depth int) (*Fragment, error) {
	var openStart, openEnd *Node
	var err error
	if from.Depth() > depth {
		openStart, err = joinable(from, start, depth+1)
		if err != nil {
			return nil, err
		}
	}
	if to.Depth() > depth {
		openEnd, err = joinable(end, to, depth+1)
		if err != nil {
			return nil, err
		}
	}

	content := addRange(nil, from, depth, nil)
	if openStart != nil && openEnd != nil && start.Index(depth) == end.Index(depth) {
		if err := checkJoin(openStart, openEnd); err != nil {
			return nil, err
		}
		inner, err := replaceThreeWay(from, start, end, to, depth+1)
		if err != nil {
			return nil, err
		}
		closed, err := closeNode(openStart, inner)
		if err != nil {
			return nil, err
		}
		content = addNode(closed, content)
	} else {
		if openStart != nil {
			inner, err := replaceTwoWay(from, start, depth+1)
			if err != nil {
				return nil, err
			}
			closed, err := closeNode(openStart, inner)
			if err != nil {
				return nil, err
			}
			content = addNode(closed, content)
		}
		content = addRange(start, end, depth, content)
		if openEnd != nil {
			inner, err := replaceTwoWay(end, to, depth+1)
			if err != nil {
				return nil, err
			}
			closed, err := closeNode(openEnd, inner)
			if err != nil {
				return nil, err
			}
			content = addNode(closed, content)
		}
	}
	content = addRange(to, nil, depth, content)
	return NewFragment(content...), nil
}

func replaceTwoWay(from, to *ResolvedPos, depth int) (*Fragment, error) {
	content := addRange(nil, from, depth, nil)
	if from.Depth() > depth {
		joined, err := joinable(from, to, depth+1)
		if err != nil {
			return nil, err
		}
		inner, err := replaceTwoWay(from, to, depth+1)
		if err != nil {
			return nil, err
		}
		closed, err := closeNode(joined, inner)
		if err != nil {
			return nil, err
		}
		content = addNode(closed, content)
	}
	content = addRange(to, nil, depth, content)
	return NewFragment(content...), nil
}

// prepareSliceForReplace wraps the slice's content in copies of the nodes
// surrounding the insertion point so its open sides line up with the
// target depth, then resolves the inner start and end of the content
// within that wrapper.
func prepareSliceForReplace(slice *Slice, along *ResolvedPos) (start, end *ResolvedPos) {
	extra := along.Depth() - slice.OpenStart
	parent := along.Node(extra)
	node := parent.Copy(slice.Content)
	for i := extra - 1; i >= 0; i-- {
		node = along.Node(i).Copy(FragmentFrom(node))
	}
	return resolve(node, slice.OpenStart+extra),
		resolve(node, node.Content.Size-slice.OpenEnd-extra)
}
