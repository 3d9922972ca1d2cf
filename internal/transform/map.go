package transform

import "fmt"

// MapResult describes the outcome of mapping a position through a step
// map: the mapped position plus information about deletions around it.
type MapResult struct {
	// Pos is the mapped position.
	Pos int

	// DeletedBefore reports that the content directly before the
	// position was deleted.
	DeletedBefore bool

	// DeletedAfter reports that the content directly after the position
	// was deleted.
	DeletedAfter bool
}

// Deleted reports whether the position itself was deleted: content on both
// sides of it is gone, so the mapped position is a collapse point rather
// than a surviving location.
func (r MapResult) Deleted() bool { return r.DeletedBefore && r.DeletedAfter }

// Mappable is anything a position can be mapped through.
type Mappable interface {
	// Map maps a position. assoc determines which side the position
	// sticks to when content is inserted exactly at it: negative
	// associates with the content before, positive with the content
	// after.
	Map(pos, assoc int) int

	// MapResult maps a position and reports deletion information.
	MapResult(pos, assoc int) MapResult
}

// StepMap records the ranges deleted and inserted by a single step as
// (start, oldSize, newSize) triples, in ascending order of start.
type StepMap struct {
	ranges   []int
	inverted bool
}

// IdentityMap is the step map of a step that changed nothing.
var IdentityMap = &StepMap{}

// NewStepMap builds a step map from (start, oldSize, newSize) triples.
func NewStepMap(ranges []int) *StepMap {
	if len(ranges)%3 != 0 {
		panic(fmt.Sprintf("step map ranges must come in triples, got %d values", len(ranges)))
	}
	return &StepMap{ranges: ranges}
}

// Invert returns a map that translates positions in the step's output
// document back to the input document.
func (m *StepMap) Invert() *StepMap {
	return &StepMap{ranges: m.ranges, inverted: !m.inverted}
}

func (m *StepMap) oldSize(i int) int {
	if m.inverted {
		return m.ranges[i+2]
	}
	return m.ranges[i+1]
}

func (m *StepMap) newSize(i int) int {
	if m.inverted {
		return m.ranges[i+1]
	}
	return m.ranges[i+2]
}

// MapResult maps a position through this step map, reporting deletions.
// Positions inside a deleted range collapse to the nearest surviving
// boundary on the side given by assoc.
func (m *StepMap) MapResult(pos, assoc int) MapResult {
	diff := 0
	for i := 0; i < len(m.ranges); i += 3 {
		start := m.ranges[i]
		if m.inverted {
			start -= diff
		}
		if start > pos {
			break
		}
		oldSize, newSize := m.oldSize(i), m.newSize(i)
		end := start + oldSize
		if pos <= end {
			var side int
			switch {
			case oldSize == 0:
				side = assoc
			case pos == start:
				side = -1
			case pos == end:
				side = 1
			default:
				side = assoc
			}
			result := start + diff
			if side > 0 {
				result += newSize
			}
			return MapResult{
				Pos:           result,
				DeletedBefore: pos > start,
				DeletedAfter:  pos < end,
			}
		}
		diff += newSize - oldSize
	}
	return MapResult{Pos: pos + diff}
}

// Map maps a position through this step map.
func (m *StepMap) Map(pos, assoc int) int {
	return m.MapResult(pos, assoc).Pos
}

// ForEach invokes fn for every changed range, with positions in the old
// document for oldStart/oldEnd and in the new document for newStart/newEnd.
func (m *StepMap) ForEach(fn func(oldStart, oldEnd, newStart, newEnd int)) {
	diff := 0
	for i := 0; i < len(m.ranges); i += 3 {
		start := m.ranges[i]
		oldStart := start
		newStart := start
		if m.inverted {
			oldStart -= diff
		} else {
			newStart += diff
		}
		oldSize, newSize := m.oldSize(i), m.newSize(i)
		fn(oldStart, oldStart+oldSize, newStart, newStart+newSize)
		diff += newSize - oldSize
	}
}

// String returns a debugging representation of the map.
func (m *StepMap) String() string {
	prefix := ""
	if m.inverted {
		prefix = "-"
	}
	return prefix + fmt.Sprint(m.ranges)
}

// Mapping is the ordered composition of zero or more step maps. Mapping a
// position through it is equivalent to mapping through each member map in
// turn, which makes composition associative: mapping through M1 followed by
// M2 equals mapping through their concatenation.
type Mapping struct {
	maps []*StepMap
	from int
	to   int
}

// NewMapping creates a mapping over the given maps.
func NewMapping(maps []*StepMap) *Mapping {
	return &Mapping{maps: maps, to: len(maps)}
}

// Maps returns the member step maps within this mapping's active range.
func (m *Mapping) Maps() []*StepMap { return m.maps[m.from:m.to] }

// Len returns the number of member maps.
func (m *Mapping) Len() int { return len(m.maps) }

// Slice returns a mapping view over a sub-range of the member maps.
func (m *Mapping) Slice(from, to int) *Mapping {
	return &Mapping{maps: m.maps, from: from, to: to}
}

// AppendMap adds a step map to the end of this mapping.
func (m *Mapping) AppendMap(sm *StepMap) {
	m.maps = append(m.maps, sm)
	m.to = len(m.maps)
}

// AppendMapping appends every map of another mapping.
func (m *Mapping) AppendMapping(other *Mapping) {
	for _, sm := range other.Maps() {
		m.AppendMap(sm)
	}
}

// Map maps a position through every member map in order.
func (m *Mapping) Map(pos, assoc int) int {
	for i := m.from; i < m.to; i++ {
		pos = m.maps[i].Map(pos, assoc)
	}
	return pos
}

// MapResult maps a position and accumulates deletion information across
// the member maps.
func (m *Mapping) MapResult(pos, assoc int) MapResult {
	result := MapResult{Pos: pos}
	for i := m.from; i < m.to; i++ {
		r := m.maps[i].MapResult(result.Pos, assoc)
		result.Pos = r.Pos
		result.DeletedBefore = result.DeletedBefore || r.DeletedBefore
		result.DeletedAfter = result.DeletedAfter || r.DeletedAfter
	}
	return result
}
