package transform

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/inkwell/internal/doc"
)

// Step type identifiers used in the JSON form.
const (
	stepTypeReplace    = "replace"
	stepTypeAddMark    = "addMark"
	stepTypeRemoveMark = "removeMark"
)

// StepToJSON serializes a step. Steps are plain descriptions of edits, so
// the JSON form is complete: a step can be stored, shipped elsewhere, and
// revived with StepFromJSON against the same schema.
func StepToJSON(s Step) ([]byte, error) {
	switch st := s.(type) {
	case *ReplaceStep:
		b := []byte(`{}`)
		b, _ = sjson.SetBytes(b, "stepType", stepTypeReplace)
		b, _ = sjson.SetBytes(b, "from", st.From)
		b, _ = sjson.SetBytes(b, "to", st.To)
		if st.Structure {
			b, _ = sjson.SetBytes(b, "structure", true)
		}
		if st.Slice.Content.Size > 0 || st.Slice.OpenStart > 0 || st.Slice.OpenEnd > 0 {
			raw, err := sliceToJSON(st.Slice)
			if err != nil {
				return nil, err
			}
			b, _ = sjson.SetRawBytes(b, "slice", raw)
		}
		return b, nil
	case *AddMarkStep:
		return markStepToJSON(stepTypeAddMark, st.From, st.To, st.Mark)
	case *RemoveMarkStep:
		return markStepToJSON(stepTypeRemoveMark, st.From, st.To, st.Mark)
	default:
		return nil, fmt.Errorf("serialize step: unknown step type %T", s)
	}
}

func markStepToJSON(kind string, from, to int, m *doc.Mark) ([]byte, error) {
	b := []byte(`{}`)
	b, _ = sjson.SetBytes(b, "stepType", kind)
	b, _ = sjson.SetBytes(b, "from", from)
	b, _ = sjson.SetBytes(b, "to", to)
	b, _ = sjson.SetBytes(b, "mark.type", m.Type.Name)
	if len(m.Attrs) > 0 {
		for k, v := range m.Attrs {
			b, _ = sjson.SetBytes(b, "mark.attrs."+k, v)
		}
	}
	return b, nil
}

func sliceToJSON(s *doc.Slice) ([]byte, error) {
	b := []byte(`{}`)
	raw, err := fragmentToJSON(s.Content)
	if err != nil {
		return nil, err
	}
	b, _ = sjson.SetRawBytes(b, "content", raw)
	if s.OpenStart > 0 {
		b, _ = sjson.SetBytes(b, "openStart", s.OpenStart)
	}
	if s.OpenEnd > 0 {
		b, _ = sjson.SetBytes(b, "openEnd", s.OpenEnd)
	}
	return b, nil
}

func fragmentToJSON(f *doc.Fragment) ([]byte, error) {
	b := []byte(`[]`)
	for i := 0; i < f.ChildCount(); i++ {
		raw, err := NodeToJSON(f.Child(i))
		if err != nil {
			return nil, err
		}
		b, _ = sjson.SetRawBytes(b, "-1", raw)
	}
	return b, nil
}

// NodeToJSON serializes a node subtree.
func NodeToJSON(n *doc.Node) ([]byte, error) {
	b := []byte(`{}`)
	b, _ = sjson.SetBytes(b, "type", n.Type.Name)
	for k, v := range n.Attrs {
		b, _ = sjson.SetBytes(b, "attrs."+k, v)
	}
	if n.IsText() {
		b, _ = sjson.SetBytes(b, "text", n.Text)
		for _, m := range n.Marks {
			mb := []byte(`{}`)
			mb, _ = sjson.SetBytes(mb, "type", m.Type.Name)
			for k, v := range m.Attrs {
				mb, _ = sjson.SetBytes(mb, "attrs."+k, v)
			}
			b, _ = sjson.SetRawBytes(b, "marks.-1", mb)
		}
		return b, nil
	}
	if n.ChildCount() > 0 {
		raw, err := fragmentToJSON(n.Content)
		if err != nil {
			return nil, err
		}
		b, _ = sjson.SetRawBytes(b, "content", raw)
	}
	return b, nil
}

// StepFromJSON revives a serialized step against the given schema.
func StepFromJSON(s *doc.Schema, data []byte) (Step, error) {
	root := gjson.ParseBytes(data)
	kind := root.Get("stepType").String()
	from := int(root.Get("from").Int())
	to := int(root.Get("to").Int())
	switch kind {
	case stepTypeReplace:
		slice := doc.EmptySlice
		if sl := root.Get("slice"); sl.Exists() {
			var err error
			slice, err = sliceFromJSON(s, sl)
			if err != nil {
				return nil, err
			}
		}
		return &ReplaceStep{From: from, To: to, Slice: slice, Structure: root.Get("structure").Bool()}, nil
	case stepTypeAddMark, stepTypeRemoveMark:
		mark, err := markFromJSON(s, root.Get("mark"))
		if err != nil {
			return nil, err
		}
		if kind == stepTypeAddMark {
			return &AddMarkStep{From: from, To: to, Mark: mark}, nil
		}
		return &RemoveMarkStep{From: from, To: to, Mark: mark}, nil
	default:
		return nil, fmt.Errorf("deserialize step: unknown step type %q", kind)
	}
}

func sliceFromJSON(s *doc.Schema, v gjson.Result) (*doc.Slice, error) {
	content, err := fragmentFromJSON(s, v.Get("content"))
	if err != nil {
		return nil, err
	}
	return doc.NewSlice(content, int(v.Get("openStart").Int()), int(v.Get("openEnd").Int())), nil
}

func fragmentFromJSON(s *doc.Schema, v gjson.Result) (*doc.Fragment, error) {
	var children []*doc.Node
	var err error
	v.ForEach(func(_, child gjson.Result) bool {
		var n *doc.Node
		n, err = NodeFromJSON(s, child)
		if err != nil {
			return false
		}
		children = append(children, n)
		return true
	})
	if err != nil {
		return nil, err
	}
	return doc.NewFragment(children...), nil
}

// NodeFromJSON revives a serialized node subtree. The revived tree is
// re-validated through the schema constructors, so malformed input fails
// with the same errors as invalid construction.
func NodeFromJSON(s *doc.Schema, v gjson.Result) (*doc.Node, error) {
	typeName := v.Get("type").String()
	attrs := attrsFromJSON(v.Get("attrs"))
	if typeName == "text" {
		var marks []*doc.Mark
		var err error
		v.Get("marks").ForEach(func(_, mv gjson.Result) bool {
			var m *doc.Mark
			m, err = markFromJSON(s, mv)
			if err != nil {
				return false
			}
			marks = append(marks, m)
			return true
		})
		if err != nil {
			return nil, err
		}
		return s.Text(v.Get("text").String(), marks...)
	}
	content, err := fragmentFromJSON(s, v.Get("content"))
	if err != nil {
		return nil, err
	}
	return s.NodeFromFragment(typeName, attrs, content)
}

func markFromJSON(s *doc.Schema, v gjson.Result) (*doc.Mark, error) {
	return s.Mark(v.Get("type").String(), attrsFromJSON(v.Get("attrs")))
}

func attrsFromJSON(v gjson.Result) map[string]any {
	if !v.Exists() {
		return nil
	}
	attrs := map[string]any{}
	v.ForEach(func(k, val gjson.Result) bool {
		attrs[k.String()] = val.Value()
		return true
	})
	return attrs
}
