package history

import (
	"github.com/dshills/inkwell/internal/state"
	"github.com/dshills/inkwell/internal/transform"
)

// item is one recorded change. Step items hold the inverted step that
// undoes the change plus the forward position map of the original change.
// Map-only items (nil step) record non-history changes that stored steps
// must be mapped through before replay.
type item struct {
	m    *transform.StepMap
	step transform.Step

	// selection is non-nil on the first item of an event and holds the
	// selection from just before the event, restored when the event is
	// undone.
	selection *state.Bookmark
}

// branch is an immutable stack of items grouped into events. The done and
// undone sides of the history are both branches.
type branch struct {
	items      []item
	eventCount int
}

var emptyBranch = &branch{}

// addTransform records the transaction's steps, inverted, as new items. A
// non-nil selection starts a new event; otherwise the steps extend the
// newest event and merge into its last item when the steps allow it.
func (b *branch) addTransform(tr *state.Transaction, sel *state.Bookmark) *branch {
	steps, docs, maps := tr.Steps(), tr.Docs(), tr.Mapping().Maps()
	items := make([]item, len(b.items), len(b.items)+len(steps))
	copy(items, b.items)
	eventCount := b.eventCount

	for i := range steps {
		inverted := steps[i].Invert(docs[i])
		if sel == nil {
			if n := len(items) - 1; n >= 0 && items[n].step != nil {
				// Undoing replays newest-first, so the combined step is
				// the new inverted step followed by the previous one.
				if merged, ok := inverted.Merge(items[n].step); ok {
					items[n] = item{
						m:         merged.GetMap().Invert(),
						step:      merged,
						selection: items[n].selection,
					}
					continue
				}
			}
		}
		items = append(items, item{m: maps[i], step: inverted, selection: sel})
		if sel != nil {
			eventCount++
			sel = nil
		}
	}
	return &branch{items: items, eventCount: eventCount}
}

// addMaps appends map-only items for changes that bypass the history. An
// empty branch has nothing to keep aligned, so the maps are not stored.
func (b *branch) addMaps(maps []*transform.StepMap) *branch {
	if b.eventCount == 0 {
		return b
	}
	items := make([]item, len(b.items), len(b.items)+len(maps))
	copy(items, b.items)
	for _, m := range maps {
		items = append(items, item{m: m})
	}
	return &branch{items: items, eventCount: b.eventCount}
}

// trim drops the oldest events once the branch exceeds depth plus a slack
// margin, so trimming happens in batches instead of on every edit.
func (b *branch) trim(depth int) *branch {
	if b.eventCount <= depth+depthOverflow {
		return b
	}
	drop := b.eventCount - depth
	seen, cut := 0, len(b.items)
	for i, it := range b.items {
		if it.selection != nil {
			seen++
			if seen > drop {
				cut = i
				break
			}
		}
	}
	items := make([]item, len(b.items)-cut)
	copy(items, b.items[cut:])
	return &branch{items: items, eventCount: depth}
}

// popEvent replays the newest event's inverted steps onto the transaction
// and returns the branch without that event plus the selection recorded
// when the event started. Stored steps and the selection are remapped
// through the maps of any interleaved non-history changes, which stay in
// the returned branch together with the maps of the replay itself so older
// events keep lining up.
func (b *branch) popEvent(tr *state.Transaction) (*branch, *state.Bookmark, bool) {
	if b.eventCount == 0 {
		return nil, nil, false
	}
	end := len(b.items) - 1
	for b.items[end].selection == nil {
		end--
	}

	var remap *transform.Mapping
	mapFrom := 0
	var kept []item   // surviving items of the popped range, newest first
	var replay []item // map-only items for the steps replayed under a remap

	for i := len(b.items) - 1; i >= end; i-- {
		it := b.items[i]
		if it.step == nil {
			if remap == nil {
				remap = b.remapping(end, i+1)
				mapFrom = remap.Len()
			}
			mapFrom--
			kept = append(kept, it)
			continue
		}

		if remap == nil {
			// No non-history changes after this item: the inverted step
			// applies to the current document exactly as stored.
			tr.MaybeStep(it.step)
		} else {
			kept = append(kept, item{m: it.m})
			var replayed *transform.StepMap
			if mapped := it.step.Map(remap.Slice(mapFrom, remap.Len())); mapped != nil {
				if res := tr.MaybeStep(mapped); res.Failed == "" {
					maps := tr.Mapping().Maps()
					replayed = maps[len(maps)-1]
				}
			}
			mapFrom--
			if replayed != nil {
				replay = append(replay, item{m: replayed})
				remap.AppendMap(replayed)
			}
		}

		if it.selection != nil {
			sel := *it.selection
			if remap != nil {
				sel = sel.Map(remap.Slice(mapFrom, remap.Len()))
			}
			items := make([]item, end, end+len(kept)+len(replay))
			copy(items, b.items[:end])
			for j := len(kept) - 1; j >= 0; j-- {
				items = append(items, kept[j])
			}
			items = append(items, replay...)
			return &branch{items: items, eventCount: b.eventCount - 1}, &sel, true
		}
	}
	return nil, nil, false
}

// remapping composes the forward maps of items[from:to].
func (b *branch) remapping(from, to int) *transform.Mapping {
	m := transform.NewMapping(nil)
	for i := from; i < to; i++ {
		m.AppendMap(b.items[i].m)
	}
	return m
}
