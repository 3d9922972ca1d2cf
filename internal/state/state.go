package state

import (
	"fmt"
	"time"

	"github.com/dshills/inkwell/internal/decoration"
	"github.com/dshills/inkwell/internal/doc"
	"github.com/dshills/inkwell/internal/transform"
)

// Config describes how to create an initial EditorState.
type Config struct {
	// Schema is the document vocabulary. Required.
	Schema *doc.Schema

	// Doc is the initial document. Required and must belong to Schema.
	Doc *doc.Node

	// Selection is the initial selection. Defaults to a cursor at 0.
	Selection *Selection

	// Plugins are installed in order; their keys must be unique.
	Plugins []*Plugin
}

// EditorState is an immutable snapshot of the editor: schema, document,
// selection, and per-plugin state. Old snapshots stay valid after new ones
// are created.
type EditorState struct {
	// Schema is the document vocabulary.
	Schema *doc.Schema

	// Doc is the current document.
	Doc *doc.Node

	// Selection is the current selection, always valid against Doc.
	Selection Selection

	plugins     []*Plugin
	pluginState map[*PluginKey]any
	config      Config
}

// New creates the initial editor state from a config and runs every
// plugin's Init hook.
func New(cfg Config) (*EditorState, error) {
	if cfg.Schema == nil {
		return nil, fmt.Errorf("new state: schema is required")
	}
	if cfg.Doc == nil {
		return nil, fmt.Errorf("new state: doc is required")
	}
	sel := TextSelection(0, 0)
	if cfg.Selection != nil {
		sel = *cfg.Selection
	}
	if err := sel.Validate(cfg.Doc); err != nil {
		return nil, fmt.Errorf("new state: %w", err)
	}
	seen := make(map[*PluginKey]bool, len(cfg.Plugins))
	for _, p := range cfg.Plugins {
		if p.Key == nil {
			return nil, fmt.Errorf("new state: plugin without a key")
		}
		if seen[p.Key] {
			return nil, fmt.Errorf("new state: duplicate plugin key %q", p.Key.Name())
		}
		seen[p.Key] = true
	}
	s := &EditorState{
		Schema:      cfg.Schema,
		Doc:         cfg.Doc,
		Selection:   sel,
		plugins:     cfg.Plugins,
		pluginState: make(map[*PluginKey]any, len(cfg.Plugins)),
		config:      cfg,
	}
	for _, p := range cfg.Plugins {
		if p.State != nil && p.State.Init != nil {
			s.pluginState[p.Key] = p.State.Init(cfg, s)
		}
	}
	return s, nil
}

// Plugins returns the installed plugins.
func (s *EditorState) Plugins() []*Plugin { return s.plugins }

// PluginState returns the state value stored for the given key, or nil.
func (s *EditorState) PluginState(key *PluginKey) any {
	return s.pluginState[key]
}

// Tr starts a new transaction against this state.
func (s *EditorState) Tr() *Transaction {
	return &Transaction{
		base:      s,
		schema:    s.Schema,
		doc:       s.Doc,
		mapping:   transform.NewMapping(nil),
		selection: s.Selection,
		time:      time.Now(),
	}
}

// Apply consumes a transaction and returns the resulting state. The
// transaction must have been built from this exact state; anything else is
// a caller error and fails fast with ErrStaleTransaction rather than being
// silently rebased. Plugins with an AppendSteps hook may extend the
// transaction before the new state is frozen; then every plugin's state
// field is recomputed. The input state and the transaction remain valid
// and unmodified observable values afterwards.
func (s *EditorState) Apply(tr *Transaction) (*EditorState, error) {
	if tr.applied {
		return nil, ErrTransactionApplied
	}
	if tr.base != s {
		return nil, ErrStaleTransaction
	}

	for _, p := range s.plugins {
		if p.AppendSteps != nil {
			p.AppendSteps(tr, s)
		}
	}
	tr.applied = true

	if err := tr.selection.Validate(tr.doc); err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}

	next := &EditorState{
		Schema:      s.Schema,
		Doc:         tr.doc,
		Selection:   tr.selection,
		plugins:     s.plugins,
		pluginState: make(map[*PluginKey]any, len(s.plugins)),
		config:      s.config,
	}
	for _, p := range s.plugins {
		if p.State != nil && p.State.Apply != nil {
			next.pluginState[p.Key] = p.State.Apply(tr, s.pluginState[p.Key], s, next)
		} else {
			next.pluginState[p.Key] = s.pluginState[p.Key]
		}
	}
	return next, nil
}

// Decorations queries every plugin's decoration prop against this state
// and unions the results.
func (s *EditorState) Decorations() *decoration.Set {
	var sets []*decoration.Set
	for _, p := range s.plugins {
		if p.Props.Decorations != nil {
			if set := p.Props.Decorations(s); set != nil {
				sets = append(sets, set)
			}
		}
	}
	return decoration.Union(sets...)
}
