package history

import (
	"time"

	"github.com/dshills/inkwell/internal/state"
	"github.com/dshills/inkwell/internal/transform"
)

// Key identifies the history plugin's state slot.
var Key = state.NewPluginKey("history")

// Meta keys understood by the history plugin.
const (
	// MetaAddToHistory, set to false, keeps a transaction's changes out
	// of the undo stack. The changes still happen and are never undone;
	// recorded steps are mapped through them instead.
	MetaAddToHistory = "addToHistory"

	// MetaCloseHistory forces the next undoable change to start a new
	// event regardless of timing or adjacency.
	MetaCloseHistory = "closeHistory"

	// metaHistory carries the precomputed history state of an undo or
	// redo transaction, so applying one never re-records its own steps.
	metaHistory = "history"
)

// depthOverflow is the slack allowed past the configured depth before the
// oldest events are dropped.
const depthOverflow = 20

// State is the history plugin's state: the undoable and redoable branches
// plus the grouping heuristic's memory of the previous change. A zero
// prevTime means no previous change, which always starts a new event.
type State struct {
	done       *branch
	undone     *branch
	prevRanges []int
	prevTime   time.Time
}

// New creates the history plugin.
func New(opts ...Option) *state.Plugin {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &state.Plugin{
		Key: Key,
		State: &state.StateField{
			Init: func(state.Config, *state.EditorState) any {
				return &State{done: emptyBranch, undone: emptyBranch}
			},
			Apply: func(tr *state.Transaction, value any, oldState, _ *state.EditorState) any {
				return applyTransaction(tr, value.(*State), oldState, o)
			},
		},
	}
}

// applyTransaction computes the next history state for one transaction.
func applyTransaction(tr *state.Transaction, hs *State, old *state.EditorState, o Options) *State {
	if next, ok := tr.Meta(metaHistory).(*State); ok {
		return next
	}
	if closed, ok := tr.Meta(MetaCloseHistory).(bool); ok && closed {
		hs = &State{done: hs.done, undone: hs.undone}
	}
	if !tr.DocChanged() {
		return hs
	}

	if keep, ok := tr.Meta(MetaAddToHistory).(bool); ok && !keep {
		return &State{
			done:       hs.done.addMaps(tr.Mapping().Maps()),
			undone:     hs.undone.addMaps(tr.Mapping().Maps()),
			prevRanges: mapRanges(hs.prevRanges, tr.Mapping()),
			prevTime:   hs.prevTime,
		}
	}

	newGroup := hs.prevTime.IsZero() ||
		tr.Time().Sub(hs.prevTime) > o.NewGroupDelay ||
		!adjacentTo(tr, hs.prevRanges)
	var sel *state.Bookmark
	if newGroup {
		b := old.Selection.Bookmark()
		sel = &b
	}
	return &State{
		done:       hs.done.addTransform(tr, sel).trim(o.Depth),
		undone:     emptyBranch,
		prevRanges: rangesFor(tr.Mapping().Maps()),
		prevTime:   tr.Time(),
	}
}

// CloseHistory marks the transaction so the next undoable change starts a
// new event.
func CloseHistory(tr *state.Transaction) {
	tr.SetMeta(MetaCloseHistory, true)
}

// UndoDepth reports how many events can be undone in the given state. It
// returns 0 when the history plugin is not installed.
func UndoDepth(s *state.EditorState) int {
	if hs, ok := Key.GetState(s).(*State); ok {
		return hs.done.eventCount
	}
	return 0
}

// RedoDepth reports how many events can be redone in the given state.
func RedoDepth(s *state.EditorState) int {
	if hs, ok := Key.GetState(s).(*State); ok {
		return hs.undone.eventCount
	}
	return 0
}

// Undo reverts the newest undo event. It returns false when there is
// nothing to undo. A nil dispatch only reports availability.
func Undo(s *state.EditorState, dispatch func(*state.Transaction)) bool {
	return move(s, dispatch, false)
}

// Redo reapplies the newest undone event. It returns false when there is
// nothing to redo. A nil dispatch only reports availability.
func Redo(s *state.EditorState, dispatch func(*state.Transaction)) bool {
	return move(s, dispatch, true)
}

func move(s *state.EditorState, dispatch func(*state.Transaction), redo bool) bool {
	hs, ok := Key.GetState(s).(*State)
	if !ok {
		return false
	}
	from := hs.done
	if redo {
		from = hs.undone
	}
	if from.eventCount == 0 {
		return false
	}
	if dispatch == nil {
		return true
	}

	tr := s.Tr()
	remaining, sel, ok := from.popEvent(tr)
	if !ok {
		return false
	}

	// The replayed transaction, recorded on the opposite branch, is what
	// makes the inverse move available: undo feeds redo and vice versa.
	cur := s.Selection.Bookmark()
	next := &State{}
	if redo {
		next.done = hs.done.addTransform(tr, &cur)
		next.undone = remaining
	} else {
		next.done = remaining
		next.undone = hs.undone.addTransform(tr, &cur)
	}

	if err := tr.SetSelection(sel.Resolve(tr.Doc())); err != nil {
		return false
	}
	tr.SetMeta(metaHistory, next)
	dispatch(tr)
	return true
}

// adjacentTo reports whether the transaction's first change touches or
// borders any of the ranges changed by the previous one.
func adjacentTo(tr *state.Transaction, prevRanges []int) bool {
	if len(prevRanges) == 0 {
		return false
	}
	maps := tr.Mapping().Maps()
	if len(maps) == 0 {
		return true
	}
	adjacent := false
	maps[0].ForEach(func(start, end, _, _ int) {
		for i := 0; i+1 < len(prevRanges); i += 2 {
			if start <= prevRanges[i+1] && end >= prevRanges[i] {
				adjacent = true
			}
		}
	})
	return adjacent
}

// rangesFor extracts the changed ranges, in new-document coordinates, of
// the last map that changed anything.
func rangesFor(maps []*transform.StepMap) []int {
	var result []int
	for i := len(maps) - 1; i >= 0 && len(result) == 0; i-- {
		maps[i].ForEach(func(_, _, from, to int) {
			result = append(result, from, to)
		})
	}
	return result
}

// mapRanges translates recorded ranges through a mapping, dropping ranges
// that collapsed away.
func mapRanges(ranges []int, m *transform.Mapping) []int {
	var mapped []int
	for i := 0; i+1 < len(ranges); i += 2 {
		from := m.Map(ranges[i], 1)
		to := m.Map(ranges[i+1], -1)
		if from <= to {
			mapped = append(mapped, from, to)
		}
	}
	return mapped
}
