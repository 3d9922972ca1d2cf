package doc

import (
	"fmt"
	"strings"
)

// AttributeSpec describes one attribute of a node or mark type. Attributes
// without a default are required at construction time.
type AttributeSpec struct {
	// Default is the value used when the attribute is not supplied.
	Default any

	// Required marks the attribute as mandatory; construction fails when
	// it is missing.
	Required bool
}

// NodeSpec declaratively describes a node type for schema construction.
// This is the only format external code uses to define a document's
// vocabulary.
type NodeSpec struct {
	// Name is the unique type name. The name "text" denotes the text
	// node type.
	Name string

	// Content is the content expression, e.g. "inline*" or "block+".
	// Empty means the node is a leaf.
	Content string

	// Group is a space-separated list of group names this type belongs
	// to, referencable from content expressions.
	Group string

	// Inline marks the node as living in inline content.
	Inline bool

	// Atom marks the node as a single opaque unit that is not directly
	// editable, such as an inline mention reference.
	Atom bool

	// Marks controls which marks may be applied to this node's inline
	// content: "_" allows all, "" applies the default (all for nodes
	// with inline content, none otherwise), anything else is a
	// space-separated list of mark names.
	Marks string

	// Attrs describes the node's attributes and their defaults.
	Attrs map[string]*AttributeSpec
}

// MarkSpec declaratively describes a mark type.
type MarkSpec struct {
	// Name is the unique mark type name.
	Name string

	// Attrs describes the mark's attributes and their defaults.
	Attrs map[string]*AttributeSpec
}

// Spec is the full declarative description a Schema is compiled from.
type Spec struct {
	// Nodes lists the node types in order. Must include the top node and,
	// for any schema with text content, a "text" type.
	Nodes []NodeSpec

	// Marks lists the mark types.
	Marks []MarkSpec

	// TopNode names the document's root type. Defaults to "doc".
	TopNode string
}

// NodeType is a compiled node type belonging to a Schema.
type NodeType struct {
	// Name is the type's unique name.
	Name string

	// Spec is the spec this type was compiled from.
	Spec NodeSpec

	// Schema is the owning schema.
	Schema *Schema

	groups        []string
	inline        bool
	isText        bool
	isLeaf        bool
	inlineContent bool
	contentExpr   *contentExpr
	markSet       []*MarkType // nil means all marks allowed
	defaultAttrs  map[string]any
}

// IsInline reports whether nodes of this type live in inline content.
func (t *NodeType) IsInline() bool { return t.inline }

// IsText reports whether this is the text node type.
func (t *NodeType) IsText() bool { return t.isText }

// InlineContent reports whether this type's content is inline.
func (t *NodeType) InlineContent() bool { return t.inlineContent }

// AllowsMarkType reports whether content of this type accepts the mark.
func (t *NodeType) AllowsMarkType(mt *MarkType) bool {
	if t.markSet == nil {
		return true
	}
	for _, allowed := range t.markSet {
		if allowed == mt {
			return true
		}
	}
	return false
}

// ValidContent reports whether the fragment is valid content for this type:
// it must satisfy the content expression, and every child's marks must be
// allowed here.
func (t *NodeType) ValidContent(f *Fragment) bool {
	if !t.contentExpr.matches(f) {
		return false
	}
	for i := 0; i < f.ChildCount(); i++ {
		for _, m := range f.Child(i).Marks {
			if !t.AllowsMarkType(m.Type) {
				return false
			}
		}
	}
	return true
}

// CompatibleContent reports whether this type's content overlaps with the
// other type's, the precondition for joining two such nodes.
func (t *NodeType) CompatibleContent(other *NodeType) bool {
	return t == other || t.contentExpr.compatible(other.contentExpr)
}

// MarkType is a compiled mark type belonging to a Schema.
type MarkType struct {
	// Name is the type's unique name.
	Name string

	// Spec is the spec this type was compiled from.
	Spec MarkSpec

	// Schema is the owning schema.
	Schema *Schema

	defaultAttrs map[string]any
}

// Schema holds a document's vocabulary: its node and mark types. A schema
// is immutable after construction and shared by every node built from it.
type Schema struct {
	// Nodes maps type names to compiled node types.
	Nodes map[string]*NodeType

	// Marks maps mark names to compiled mark types.
	Marks map[string]*MarkType

	// TopNodeType is the type of the document root.
	TopNodeType *NodeType

	nodeOrder []*NodeType
}

// NewSchema compiles a declarative Spec into a Schema. It fails with a
// *SchemaError when the spec references unknown types, omits the top node,
// or contains an invalid content expression.
func NewSchema(spec Spec) (*Schema, error) {
	s := &Schema{
		Nodes: make(map[string]*NodeType, len(spec.Nodes)),
		Marks: make(map[string]*MarkType, len(spec.Marks)),
	}
	for _, ms := range spec.Marks {
		if _, dup := s.Marks[ms.Name]; dup {
			return nil, &SchemaError{Type: ms.Name, Message: "duplicate mark type"}
		}
		s.Marks[ms.Name] = &MarkType{Name: ms.Name, Spec: ms, Schema: s, defaultAttrs: defaultAttrs(ms.Attrs)}
	}
	for _, ns := range spec.Nodes {
		if _, dup := s.Nodes[ns.Name]; dup {
			return nil, &SchemaError{Type: ns.Name, Message: "duplicate node type"}
		}
		nt := &NodeType{
			Name:         ns.Name,
			Spec:         ns,
			Schema:       s,
			inline:       ns.Inline || ns.Name == "text",
			isText:       ns.Name == "text",
			groups:       splitNames(ns.Group),
			defaultAttrs: defaultAttrs(ns.Attrs),
		}
		s.Nodes[ns.Name] = nt
		s.nodeOrder = append(s.nodeOrder, nt)
	}

	// Content expressions can reference any type or group, so they are
	// compiled in a second pass.
	for _, nt := range s.nodeOrder {
		expr, err := parseContentExpr(s, nt.Spec.Content)
		if err != nil {
			return nil, err
		}
		nt.contentExpr = expr
		nt.isLeaf = expr.empty()
		if !nt.isLeaf {
			inlineContent := true
			for ti := range expr.terms {
				for _, child := range expr.terms[ti].types {
					if !child.inline {
						inlineContent = false
					}
				}
			}
			nt.inlineContent = inlineContent
		}
	}
	for _, nt := range s.nodeOrder {
		switch nt.Spec.Marks {
		case "_":
			nt.markSet = nil
		case "":
			if nt.inlineContent || nt.inline {
				nt.markSet = nil
			} else {
				nt.markSet = []*MarkType{}
			}
		default:
			for _, name := range splitNames(nt.Spec.Marks) {
				mt, ok := s.Marks[name]
				if !ok {
					return nil, &SchemaError{Type: nt.Name, Message: fmt.Sprintf("unknown mark type %q in marks", name)}
				}
				nt.markSet = append(nt.markSet, mt)
			}
		}
	}

	topName := spec.TopNode
	if topName == "" {
		topName = "doc"
	}
	top, ok := s.Nodes[topName]
	if !ok {
		return nil, &SchemaError{Type: topName, Message: "missing top node type"}
	}
	s.TopNodeType = top
	return s, nil
}

// Node constructs a validated node of the named type. Construction fails
// with a *SchemaError when the type is unknown, a required attribute is
// missing, or the children do not match the type's content expression.
func (s *Schema) Node(typeName string, attrs map[string]any, content ...*Node) (*Node, error) {
	return s.NodeFromFragment(typeName, attrs, NewFragment(content...))
}

// NodeFromFragment is Node with the children supplied as a fragment.
func (s *Schema) NodeFromFragment(typeName string, attrs map[string]any, content *Fragment) (*Node, error) {
	nt, ok := s.Nodes[typeName]
	if !ok {
		return nil, &SchemaError{Type: typeName, Message: "unknown node type"}
	}
	if nt.isText {
		return nil, &SchemaError{Type: typeName, Message: "text nodes must be created with Schema.Text"}
	}
	computed, err := computeAttrs(typeName, nt.Spec.Attrs, attrs)
	if err != nil {
		return nil, err
	}
	if !nt.ValidContent(content) {
		return nil, &SchemaError{Type: typeName, Message: fmt.Sprintf("invalid content %s for expression %q", content, nt.Spec.Content)}
	}
	return &Node{Type: nt, Attrs: computed, Content: content}, nil
}

// Text constructs a text node. Text nodes are never empty; constructing one
// from an empty string fails with a *SchemaError.
func (s *Schema) Text(text string, marks ...*Mark) (*Node, error) {
	nt, ok := s.Nodes["text"]
	if !ok {
		return nil, &SchemaError{Type: "text", Message: "schema has no text node type"}
	}
	if text == "" {
		return nil, &SchemaError{Type: "text", Message: "text nodes may not be empty"}
	}
	return &Node{Type: nt, Attrs: nt.defaultAttrs, Content: EmptyFragment, Text: text, Marks: NormalizeMarks(marks)}, nil
}

// Mark constructs a mark of the named type.
func (s *Schema) Mark(name string, attrs map[string]any) (*Mark, error) {
	mt, ok := s.Marks[name]
	if !ok {
		return nil, &SchemaError{Type: name, Message: "unknown mark type"}
	}
	computed, err := computeAttrs(name, mt.Spec.Attrs, attrs)
	if err != nil {
		return nil, err
	}
	return &Mark{Type: mt, Attrs: computed}, nil
}

func defaultAttrs(specs map[string]*AttributeSpec) map[string]any {
	attrs := map[string]any{}
	for name, spec := range specs {
		if !spec.Required {
			attrs[name] = spec.Default
		}
	}
	return attrs
}

func computeAttrs(typeName string, specs map[string]*AttributeSpec, given map[string]any) (map[string]any, error) {
	attrs := make(map[string]any, len(specs))
	for name, spec := range specs {
		if v, ok := given[name]; ok {
			attrs[name] = v
			continue
		}
		if spec.Required {
			return nil, &SchemaError{Type: typeName, Message: fmt.Sprintf("missing required attribute %q", name)}
		}
		attrs[name] = spec.Default
	}
	for name := range given {
		if _, ok := specs[name]; !ok {
			return nil, &SchemaError{Type: typeName, Message: fmt.Sprintf("unknown attribute %q", name)}
		}
	}
	return attrs, nil
}

func splitNames(s string) []string {
	return strings.Fields(s)
}
