package scripting

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/inkwell/internal/decoration"
	"github.com/dshills/inkwell/internal/doc"
	"github.com/dshills/inkwell/internal/state"
)

const highlightScript = `
local function highlight(blocks)
  local decos = {}
  for _, b in ipairs(blocks) do
    local s, e = string.find(b.text, "TODO", 1, true)
    while s do
      decos[#decos+1] = {
        from = b.start + s - 1,
        to = b.start + e,
        kind = "inline",
        attrs = {class = "todo"},
      }
      s, e = string.find(b.text, "TODO", e + 1, true)
    end
  end
  return decos
end

function init(blocks) return highlight(blocks) end
function apply(tx) return highlight(tx.blocks) end
`

func testSchema(t *testing.T) *doc.Schema {
	t.Helper()
	s, err := doc.NewSchema(doc.Spec{
		Nodes: []doc.NodeSpec{
			{Name: "doc", Content: "block+"},
			{Name: "paragraph", Content: "inline*", Group: "block"},
			{Name: "text", Group: "inline"},
		},
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func docWithText(t *testing.T, s *doc.Schema, text string) *doc.Node {
	t.Helper()
	var content []*doc.Node
	if text != "" {
		txt, err := s.Text(text)
		if err != nil {
			t.Fatalf("text: %v", err)
		}
		content = append(content, txt)
	}
	p, err := s.Node("paragraph", nil, content...)
	if err != nil {
		t.Fatalf("paragraph: %v", err)
	}
	d, err := s.Node("doc", nil, p)
	if err != nil {
		t.Fatalf("doc: %v", err)
	}
	return d
}

func newStateWith(t *testing.T, text string, plugins ...*state.Plugin) *state.EditorState {
	t.Helper()
	s := testSchema(t)
	st, err := state.New(state.Config{Schema: s, Doc: docWithText(t, s, text), Plugins: plugins})
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	return st
}

func TestScriptDecoratesOnInit(t *testing.T) {
	h := NewHost(nil)
	defer h.Close()
	p, err := h.LoadSource("todo.lua", highlightScript)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	st := newStateWith(t, "a TODO here", p)
	decos := st.Decorations().All()
	if len(decos) != 1 {
		t.Fatalf("expected 1 decoration, got %d", len(decos))
	}
	d := decos[0]
	if d.From != 3 || d.To != 7 {
		t.Errorf("expected decoration over (3,7), got (%d,%d)", d.From, d.To)
	}
	if d.Attrs["class"] != "todo" {
		t.Errorf("expected class todo, got %v", d.Attrs)
	}
}

func TestScriptRecomputesOnChange(t *testing.T) {
	h := NewHost(nil)
	defer h.Close()
	p, err := h.LoadSource("todo.lua", highlightScript)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	st := newStateWith(t, "a TODO here", p)
	tr := st.Tr()
	if err := tr.InsertText("X", 1); err != nil {
		t.Fatalf("insert: %v", err)
	}
	next, err := st.Apply(tr)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	decos := next.Decorations().All()
	if len(decos) != 1 {
		t.Fatalf("expected 1 decoration, got %d", len(decos))
	}
	if decos[0].From != 4 || decos[0].To != 8 {
		t.Errorf("expected decoration shifted to (4,8), got (%d,%d)", decos[0].From, decos[0].To)
	}
}

func TestScriptWithoutApplyMapsDecorations(t *testing.T) {
	h := NewHost(nil)
	defer h.Close()
	p, err := h.LoadSource("static.lua", `
function init(blocks)
  return {{from = 3, to = 7, attrs = {class = "pin"}}}
end
`)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	st := newStateWith(t, "a TODO here", p)
	tr := st.Tr()
	if err := tr.InsertText("X", 1); err != nil {
		t.Fatalf("insert: %v", err)
	}
	next, err := st.Apply(tr)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	decos := next.Decorations().All()
	if len(decos) != 1 || decos[0].From != 4 || decos[0].To != 8 {
		t.Fatalf("expected the decoration mapped to (4,8), got %v", decos)
	}
}

func TestScriptWidgets(t *testing.T) {
	h := NewHost(nil)
	defer h.Close()
	p, err := h.LoadSource("marker.lua", `
function init(blocks)
  return {{from = 1, kind = "widget", key = "start-marker", side = -1}}
end
`)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	st := newStateWith(t, "hi", p)
	decos := st.Decorations().All()
	if len(decos) != 1 || decos[0].Kind != decoration.KindWidget {
		t.Fatalf("expected a widget, got %v", decos)
	}
	if decos[0].Key != "start-marker" || decos[0].Side != -1 {
		t.Errorf("unexpected widget fields: %+v", decos[0])
	}
}

func TestScriptApplyErrorKeepsMappedSet(t *testing.T) {
	var buf bytes.Buffer
	h := NewHost(log.New(&buf, "", 0))
	defer h.Close()
	p, err := h.LoadSource("flaky.lua", `
function init(blocks)
  return {{from = 3, to = 7}}
end
function apply(tx)
  error("boom")
end
`)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	st := newStateWith(t, "a TODO here", p)
	tr := st.Tr()
	if err := tr.InsertText("X", 1); err != nil {
		t.Fatalf("insert: %v", err)
	}
	next, err := st.Apply(tr)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	decos := next.Decorations().All()
	if len(decos) != 1 || decos[0].From != 4 {
		t.Fatalf("expected the previous set mapped forward, got %v", decos)
	}
	if !bytes.Contains(buf.Bytes(), []byte("boom")) {
		t.Error("expected the script error to be logged")
	}
}

func TestLoadSourceRejectsBrokenScripts(t *testing.T) {
	h := NewHost(nil)
	defer h.Close()

	if _, err := h.LoadSource("broken.lua", "this is not lua"); err == nil {
		t.Error("expected a syntax error")
	}
	if _, err := h.LoadSource("empty.lua", "x = 1"); err == nil {
		t.Error("expected an error for a script without init")
	}
}

func TestLoadDirSkipsBrokenScripts(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.lua")
	bad := filepath.Join(dir, "bad.lua")
	if err := os.WriteFile(good, []byte("function init(blocks) return {} end"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(bad, []byte("not lua at all"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var buf bytes.Buffer
	h := NewHost(log.New(&buf, "", 0))
	defer h.Close()

	plugins, err := h.LoadDir(dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}
	if !bytes.Contains(buf.Bytes(), []byte("bad.lua")) {
		t.Error("expected the broken script to be logged")
	}
}
