package doc

import "sort"

// Mark is a piece of styling or annotation information attached to inline
// content, such as emphasis or a translation reference. A Mark is a
// (type, attrs) pair and is immutable.
type Mark struct {
	Type  *MarkType
	Attrs map[string]any
}

// Eq reports whether two marks have the same type and attributes.
func (m *Mark) Eq(other *Mark) bool {
	if m == other {
		return true
	}
	if other == nil || m.Type != other.Type {
		return false
	}
	return attrsEq(m.Attrs, other.Attrs)
}

// AddToSet returns a mark set containing the marks in set plus this mark.
// The result is deduplicated and kept sorted by type name, so equal sets
// always compare as equal. The input set is never modified.
func (m *Mark) AddToSet(set []*Mark) []*Mark {
	for _, existing := range set {
		if m.Eq(existing) {
			return set
		}
	}
	result := make([]*Mark, 0, len(set)+1)
	inserted := false
	for _, existing := range set {
		if !inserted && markLess(m, existing) {
			result = append(result, m)
			inserted = true
		}
		if existing.Type == m.Type {
			// Same type with different attrs: the new mark replaces it.
			if !inserted {
				result = append(result, m)
				inserted = true
			}
			continue
		}
		result = append(result, existing)
	}
	if !inserted {
		result = append(result, m)
	}
	return result
}

// RemoveFromSet returns the set without any mark equal to this one.
func (m *Mark) RemoveFromSet(set []*Mark) []*Mark {
	for i, existing := range set {
		if m.Eq(existing) {
			result := make([]*Mark, 0, len(set)-1)
			result = append(result, set[:i]...)
			result = append(result, set[i+1:]...)
			return result
		}
	}
	return set
}

// IsInSet reports whether a mark equal to this one exists in the set.
func (m *Mark) IsInSet(set []*Mark) bool {
	for _, existing := range set {
		if m.Eq(existing) {
			return true
		}
	}
	return false
}

// SameMarkSet reports whether two mark sets contain equal marks in the same
// order. Normalized sets (as produced by AddToSet) compare structurally.
func SameMarkSet(a, b []*Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Eq(b[i]) {
			return false
		}
	}
	return true
}

// NormalizeMarks returns a deduplicated, type-name-sorted copy of the given
// marks. Later duplicates of a type win over earlier ones.
func NormalizeMarks(marks []*Mark) []*Mark {
	if len(marks) == 0 {
		return nil
	}
	byType := make(map[*MarkType]*Mark, len(marks))
	order := make([]*Mark, 0, len(marks))
	for _, m := range marks {
		if _, seen := byType[m.Type]; !seen {
			order = append(order, m)
		}
		byType[m.Type] = m
	}
	result := make([]*Mark, 0, len(order))
	for _, m := range order {
		result = append(result, byType[m.Type])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return markLess(result[i], result[j])
	})
	return result
}

func markLess(a, b *Mark) bool {
	return a.Type.Name < b.Type.Name
}

func attrsEq(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || av != bv {
			return false
		}
	}
	return true
}
