package app

import "github.com/dshills/inkwell/internal/doc"

// StorySchema is the document vocabulary of the story editor: headings and
// paragraphs of text, inline mention atoms, and the em, strong, and
// translation marks.
func StorySchema() (*doc.Schema, error) {
	return doc.NewSchema(doc.Spec{
		Nodes: []doc.NodeSpec{
			{Name: "doc", Content: "block+"},
			{Name: "paragraph", Content: "inline*", Group: "block"},
			{Name: "heading", Content: "inline*", Group: "block",
				Attrs: map[string]*doc.AttributeSpec{"level": {Default: 1}}},
			{Name: "text", Group: "inline"},
			{Name: "mention", Group: "inline", Inline: true, Atom: true,
				Attrs: map[string]*doc.AttributeSpec{"ref": {Required: true}}},
		},
		Marks: []doc.MarkSpec{
			{Name: "em"},
			{Name: "strong"},
			{Name: "translation",
				Attrs: map[string]*doc.AttributeSpec{"lang": {Required: true}}},
		},
	})
}
