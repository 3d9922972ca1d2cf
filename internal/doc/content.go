package doc

import (
	"fmt"
	"strings"
)

// contentTerm is one element of a parsed content expression: a set of
// allowed node types plus a repetition range.
type contentTerm struct {
	types    []*NodeType
	min, max int // max == -1 means unbounded
}

func (t *contentTerm) allows(nt *NodeType) bool {
	for _, allowed := range t.types {
		if allowed == nt {
			return true
		}
	}
	return false
}

// contentExpr is a parsed content expression: a sequence of terms such as
// "inline*" or "paragraph block*". Terms may name a node type or a group
// and carry an optional '*', '+' or '?' modifier; alternatives are joined
// with '|'.
type contentExpr struct {
	source string
	terms  []contentTerm
}

// parseContentExpr parses expr against the given schema's types and groups.
func parseContentExpr(s *Schema, expr string) (*contentExpr, error) {
	e := &contentExpr{source: expr}
	for _, tok := range strings.Fields(expr) {
		min, max := 1, 1
		switch {
		case strings.HasSuffix(tok, "*"):
			min, max = 0, -1
			tok = tok[:len(tok)-1]
		case strings.HasSuffix(tok, "+"):
			min, max = 1, -1
			tok = tok[:len(tok)-1]
		case strings.HasSuffix(tok, "?"):
			min, max = 0, 1
			tok = tok[:len(tok)-1]
		}
		var types []*NodeType
		for _, name := range strings.Split(tok, "|") {
			resolved, err := s.resolveTypeName(name)
			if err != nil {
				return nil, err
			}
			types = append(types, resolved...)
		}
		e.terms = append(e.terms, contentTerm{types: types, min: min, max: max})
	}
	return e, nil
}

// empty reports whether the expression allows no content at all.
func (e *contentExpr) empty() bool { return len(e.terms) == 0 }

// matches reports whether the fragment's children satisfy the expression.
// Terms are matched greedily in sequence, which is exact for the
// non-backtracking grammar this parser accepts.
func (e *contentExpr) matches(f *Fragment) bool {
	i := 0
	n := f.ChildCount()
	for ti := range e.terms {
		term := &e.terms[ti]
		count := 0
		for i < n && term.allows(f.Child(i).Type) && (term.max < 0 || count < term.max) {
			i++
			count++
		}
		if count < term.min {
			return false
		}
	}
	return i == n
}

// allowsAnywhere reports whether the type may appear at any position of
// content matching this expression.
func (e *contentExpr) allowsAnywhere(nt *NodeType) bool {
	for ti := range e.terms {
		if e.terms[ti].allows(nt) {
			return true
		}
	}
	return false
}

// compatible reports whether content allowed by this expression overlaps
// with content allowed by the other, which is the requirement for joining
// two nodes of the corresponding types.
func (e *contentExpr) compatible(other *contentExpr) bool {
	for ti := range e.terms {
		for _, nt := range e.terms[ti].types {
			if other.allowsAnywhere(nt) {
				return true
			}
		}
	}
	return false
}

// resolveTypeName resolves a content-expression name to concrete node
// types: either the type with that exact name, or every type that lists the
// name among its groups.
func (s *Schema) resolveTypeName(name string) ([]*NodeType, error) {
	if nt, ok := s.Nodes[name]; ok {
		return []*NodeType{nt}, nil
	}
	var result []*NodeType
	for _, nt := range s.nodeOrder {
		for _, g := range nt.groups {
			if g == name {
				result = append(result, nt)
				break
			}
		}
	}
	if len(result) == 0 {
		return nil, &SchemaError{Message: fmt.Sprintf("unknown node type or group %q in content expression", name)}
	}
	return result, nil
}
