// Package scripting hosts Lua scripts as editor plugins.
//
// A script defines an init function and optionally an apply function. Both
// receive the document as an array of blocks, each a table with the
// block's text and the document position of its content start, and return
// an array of decoration descriptors. init runs when the editor state is
// created; apply runs after every document change. A script without apply
// keeps its decorations, mapped through each transaction's position
// changes.
//
// A decoration descriptor is a table with from, to, kind ("inline",
// "widget" or "node"), and optionally attrs, side, and key.
package scripting

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/inkwell/internal/decoration"
	"github.com/dshills/inkwell/internal/doc"
	"github.com/dshills/inkwell/internal/state"
)

// Host loads and owns script plugins. The Lua states it creates live until
// Close; scripts run on the editor loop, never concurrently.
type Host struct {
	logger *log.Logger
	states []*lua.LState
}

// NewHost creates a host. A nil logger suppresses script diagnostics.
func NewHost(logger *log.Logger) *Host {
	return &Host{logger: logger}
}

// Close shuts down every loaded script.
func (h *Host) Close() {
	for _, L := range h.states {
		L.Close()
	}
	h.states = nil
}

// LoadDir loads every .lua file in dir, in name order. Scripts that fail
// to load are logged and skipped rather than failing the rest.
func (h *Host) LoadDir(dir string) ([]*state.Plugin, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return nil, fmt.Errorf("scripting: scanning %s: %w", dir, err)
	}
	sort.Strings(matches)
	var plugins []*state.Plugin
	for _, path := range matches {
		p, err := h.LoadScript(path)
		if err != nil {
			h.logf("scripting: skipping %s: %v", path, err)
			continue
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

// LoadScript loads one script file.
func (h *Host) LoadScript(path string) (*state.Plugin, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: %w", err)
	}
	return h.LoadSource(filepath.Base(path), string(src))
}

// LoadSource loads a script from source text. The name is used in the
// plugin key and in diagnostics.
func (h *Host) LoadSource(name, src string) (*state.Plugin, error) {
	L := lua.NewState()
	// Scripts compute decorations; they get no ambient authority.
	L.SetGlobal("os", lua.LNil)
	L.SetGlobal("io", lua.LNil)

	if err := L.DoString(src); err != nil {
		L.Close()
		return nil, fmt.Errorf("scripting: %s: %w", name, err)
	}
	initFn, ok := L.GetGlobal("init").(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, fmt.Errorf("scripting: %s: missing init function", name)
	}
	applyFn, _ := L.GetGlobal("apply").(*lua.LFunction)

	h.states = append(h.states, L)
	return h.plugin(name, L, initFn, applyFn), nil
}

func (h *Host) plugin(name string, L *lua.LState, initFn, applyFn *lua.LFunction) *state.Plugin {
	key := state.NewPluginKey("script:" + name + ":" + uuid.NewString()[:8])
	return &state.Plugin{
		Key: key,
		State: &state.StateField{
			Init: func(_ state.Config, s *state.EditorState) any {
				set, err := h.call(L, initFn, blocksTable(L, s.Doc), s.Doc)
				if err != nil {
					h.logf("scripting: %s: init: %v", name, err)
					return decoration.Empty
				}
				return set
			},
			Apply: func(tr *state.Transaction, value any, _, _ *state.EditorState) any {
				set := value.(*decoration.Set)
				if !tr.DocChanged() {
					return set
				}
				if applyFn == nil {
					return set.Map(tr.Mapping())
				}
				tx := L.NewTable()
				tx.RawSetString("blocks", blocksTable(L, tr.Doc()))
				tx.RawSetString("steps", lua.LNumber(len(tr.Steps())))
				next, err := h.call(L, applyFn, tx, tr.Doc())
				if err != nil {
					h.logf("scripting: %s: apply: %v", name, err)
					return set.Map(tr.Mapping())
				}
				return next
			},
		},
		Props: state.Props{
			Decorations: func(s *state.EditorState) *decoration.Set {
				if set, ok := key.GetState(s).(*decoration.Set); ok {
					return set
				}
				return nil
			},
		},
	}
}

// call invokes a script function with one argument and converts its return
// value into a decoration set validated against d.
func (h *Host) call(L *lua.LState, fn *lua.LFunction, arg lua.LValue, d *doc.Node) (*decoration.Set, error) {
	L.Push(fn)
	L.Push(arg)
	if err := L.PCall(1, 1, nil); err != nil {
		return nil, err
	}
	ret := L.Get(-1)
	L.Pop(1)

	decos, err := decorationsFrom(ret)
	if err != nil {
		return nil, err
	}
	return decoration.Create(d, decos)
}

// blocksTable flattens the document's textblocks into the table handed to
// scripts: {text, start} per block, where start is the document position
// of the block's first character.
func blocksTable(L *lua.LState, d *doc.Node) *lua.LTable {
	blocks := L.NewTable()
	d.NodesBetween(0, d.Content.Size, func(n *doc.Node, pos int, _ *doc.Node) bool {
		if !n.IsTextblock() {
			return true
		}
		b := L.NewTable()
		b.RawSetString("text", lua.LString(n.TextContent()))
		b.RawSetString("start", lua.LNumber(pos+1))
		blocks.Append(b)
		return false
	})
	return blocks
}

// decorationsFrom converts a script's return value into decorations. nil
// and a missing return mean no decorations.
func decorationsFrom(lv lua.LValue) ([]decoration.Decoration, error) {
	if lv == lua.LNil {
		return nil, nil
	}
	tbl, ok := lv.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("expected a table of decorations, got %s", lv.Type())
	}
	var decos []decoration.Decoration
	for i := 1; ; i++ {
		v := tbl.RawGetInt(i)
		if v == lua.LNil {
			break
		}
		entry, ok := v.(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("decoration %d: expected a table, got %s", i, v.Type())
		}
		d, err := decorationFrom(entry)
		if err != nil {
			return nil, fmt.Errorf("decoration %d: %w", i, err)
		}
		decos = append(decos, d)
	}
	return decos, nil
}

func decorationFrom(t *lua.LTable) (decoration.Decoration, error) {
	from, ok := tableInt(t, "from")
	if !ok {
		return decoration.Decoration{}, fmt.Errorf("missing from")
	}
	kind := "inline"
	if s, ok := tableString(t, "kind"); ok {
		kind = s
	}

	switch kind {
	case "widget":
		side, _ := tableInt(t, "side")
		key, _ := tableString(t, "key")
		return decoration.Widget(from, side, key), nil
	case "inline", "node":
		to, ok := tableInt(t, "to")
		if !ok {
			return decoration.Decoration{}, fmt.Errorf("missing to")
		}
		attrs := tableAttrs(t)
		if kind == "node" {
			return decoration.Node(from, to, attrs), nil
		}
		return decoration.Inline(from, to, attrs), nil
	default:
		return decoration.Decoration{}, fmt.Errorf("unknown kind %q", kind)
	}
}

func tableInt(t *lua.LTable, key string) (int, bool) {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return int(n), true
	}
	return 0, false
}

func tableString(t *lua.LTable, key string) (string, bool) {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s), true
	}
	return "", false
}

func tableAttrs(t *lua.LTable) map[string]string {
	at, ok := t.RawGetString("attrs").(*lua.LTable)
	if !ok {
		return nil
	}
	attrs := make(map[string]string)
	at.ForEach(func(k, v lua.LValue) {
		attrs[k.String()] = v.String()
	})
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

func (h *Host) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
