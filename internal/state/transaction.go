package state

import (
	"fmt"
	"time"

	"github.com/dshills/inkwell/internal/doc"
	"github.com/dshills/inkwell/internal/transform"
)

// Transaction is an ordered batch of steps built against one EditorState.
// Builder methods construct and append steps; positions handed to a later
// builder call are interpreted against the transaction's current document,
// so callers never re-map positions mid-transaction themselves.
//
// A transaction produces no side effects until passed to
// EditorState.Apply, and is consumed exactly once.
type Transaction struct {
	base      *EditorState
	schema    *doc.Schema
	doc       *doc.Node
	docs      []*doc.Node
	steps     []transform.Step
	mapping   *transform.Mapping
	selection Selection
	meta      map[string]any
	time      time.Time
	applied   bool
}

// Doc returns the document as transformed by the steps appended so far.
func (tr *Transaction) Doc() *doc.Node { return tr.doc }

// Steps returns the appended steps in order.
func (tr *Transaction) Steps() []transform.Step { return tr.steps }

// Docs returns the document snapshots taken before each step, enabling
// step-level inversion.
func (tr *Transaction) Docs() []*doc.Node { return tr.docs }

// Mapping returns the composed position mapping of all steps so far.
func (tr *Transaction) Mapping() *transform.Mapping { return tr.mapping }

// Selection returns the transaction's current selection: the base state's
// selection mapped through every step, unless explicitly replaced with
// SetSelection.
func (tr *Transaction) Selection() Selection { return tr.selection }

// Time returns the wall-clock time the transaction was created, used by
// the history plugin's event grouping heuristic.
func (tr *Transaction) Time() time.Time { return tr.time }

// DocChanged reports whether any step changed the document.
func (tr *Transaction) DocChanged() bool { return len(tr.steps) > 0 }

// SetSelection explicitly sets the selection, overriding the derived one.
// The selection must be valid in the transaction's current document.
func (tr *Transaction) SetSelection(sel Selection) error {
	if err := sel.Validate(tr.doc); err != nil {
		return err
	}
	tr.selection = sel
	return nil
}

// SetMeta attaches an out-of-band flag consumed by plugins.
func (tr *Transaction) SetMeta(key string, value any) {
	if tr.meta == nil {
		tr.meta = make(map[string]any)
	}
	tr.meta[key] = value
}

// Meta reads an out-of-band flag. Missing keys return nil.
func (tr *Transaction) Meta(key string) any { return tr.meta[key] }

// AddStep applies a step to the transaction's current document and
// appends it. It returns an error when the step cannot be applied, which
// is the construction-time rejection point for schema-incompatible edits.
func (tr *Transaction) AddStep(step transform.Step) error {
	result := step.Apply(tr.doc)
	if result.Failed != "" {
		return fmt.Errorf("step %v: %s", step, result.Failed)
	}
	tr.commitStep(step, result.Doc)
	return nil
}

// MaybeStep applies a step, absorbing failure: a failed step leaves the
// transaction unchanged and reports the failure in the result. The history
// plugin uses this to let impossible replays degrade to no-ops.
func (tr *Transaction) MaybeStep(step transform.Step) transform.StepResult {
	result := step.Apply(tr.doc)
	if result.Failed == "" {
		tr.commitStep(step, result.Doc)
	}
	return result
}

func (tr *Transaction) commitStep(step transform.Step, newDoc *doc.Node) {
	m := step.GetMap()
	tr.docs = append(tr.docs, tr.doc)
	tr.doc = newDoc
	tr.steps = append(tr.steps, step)
	tr.mapping.AppendMap(m)
	tr.selection = tr.selection.Map(m)
}

// InsertText inserts text at the given position. Inserting the empty
// string is a no-op rather than producing an empty text node.
func (tr *Transaction) InsertText(text string, pos int) error {
	return tr.ReplaceText(text, pos, pos)
}

// ReplaceText replaces the given range with text. An empty replacement
// deletes the range.
func (tr *Transaction) ReplaceText(text string, from, to int) error {
	if text == "" {
		if from == to {
			return nil
		}
		return tr.Delete(from, to)
	}
	node, err := tr.schema.Text(text)
	if err != nil {
		return err
	}
	return tr.Replace(from, to, doc.NewSlice(doc.NewFragment(node), 0, 0))
}

// Delete removes the content between from and to.
func (tr *Transaction) Delete(from, to int) error {
	return tr.Replace(from, to, doc.EmptySlice)
}

// Replace replaces the range with the given slice.
func (tr *Transaction) Replace(from, to int, slice *doc.Slice) error {
	return tr.AddStep(transform.NewReplaceStep(from, to, slice))
}

// ReplaceSelectionWith replaces the current selection with the given node
// and leaves the selection as a cursor after it.
func (tr *Transaction) ReplaceSelectionWith(n *doc.Node) error {
	sel := tr.selection
	if err := tr.Replace(sel.From(), sel.To(), doc.NewSlice(doc.FragmentFrom(n), 0, 0)); err != nil {
		return err
	}
	return tr.SetSelection(TextSelection(sel.From()+n.NodeSize(), sel.From()+n.NodeSize()))
}

// Split splits the block around pos in two at that point, producing two
// blocks of the same type. It is expressed as a replacement of the split
// point with an open block boundary.
func (tr *Transaction) Split(pos int) error {
	r, err := tr.doc.Resolve(pos)
	if err != nil {
		return err
	}
	if r.Depth() == 0 {
		return fmt.Errorf("split: position %d is not inside a block", pos)
	}
	shell := r.Parent().Copy(doc.EmptyFragment)
	slice := doc.NewSlice(doc.NewFragment(shell, shell), 1, 1)
	return tr.AddStep(&transform.ReplaceStep{From: pos, To: pos, Slice: slice, Structure: true})
}

// Join joins the blocks on either side of the boundary at pos by deleting
// the two boundary tokens between them.
func (tr *Transaction) Join(pos int) error {
	return tr.AddStep(&transform.ReplaceStep{
		From:      pos - 1,
		To:        pos + 1,
		Slice:     doc.EmptySlice,
		Structure: true,
	})
}

// AddMark adds a mark to the inline content in the given range.
func (tr *Transaction) AddMark(from, to int, m *doc.Mark) error {
	return tr.AddStep(&transform.AddMarkStep{From: from, To: to, Mark: m})
}

// RemoveMark removes a mark from the inline content in the given range.
func (tr *Transaction) RemoveMark(from, to int, m *doc.Mark) error {
	return tr.AddStep(&transform.RemoveMarkStep{From: from, To: to, Mark: m})
}
