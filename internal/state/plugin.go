package state

import "github.com/dshills/inkwell/internal/decoration"

// PluginKey identifies a plugin and its state slot within an EditorState.
// Two plugins may not share a key.
type PluginKey struct {
	name string
}

// NewPluginKey creates a key with the given debug name.
func NewPluginKey(name string) *PluginKey {
	return &PluginKey{name: name}
}

// Name returns the key's debug name.
func (k *PluginKey) Name() string { return k.name }

// GetState reads this plugin's state from an editor state. It returns nil
// when the plugin is not installed.
func (k *PluginKey) GetState(s *EditorState) any {
	return s.PluginState(k)
}

// StateField describes a plugin's state lifecycle: Init produces the
// initial value when the editor state is created, and Apply produces the
// next value for every applied transaction. Values are treated as
// immutable; Apply must return a new value rather than mutating the old.
type StateField struct {
	Init  func(cfg Config, s *EditorState) any
	Apply func(tr *Transaction, value any, oldState, newState *EditorState) any
}

// Props are the read-side hooks a plugin exposes to the host. The host
// queries Decorations from every plugin on each render and unions the
// results.
type Props struct {
	Decorations func(s *EditorState) *decoration.Set
}

// Plugin bundles a key, an optional state field, optional props, and an
// optional step-appending hook.
type Plugin struct {
	// Key identifies the plugin. Required.
	Key *PluginKey

	// State is the plugin's state lifecycle, or nil for stateless
	// plugins.
	State *StateField

	// Props are the plugin's read-side hooks.
	Props Props

	// AppendSteps, when non-nil, runs during EditorState.Apply before
	// the new state is frozen and may append further steps to the
	// transaction. Normalization plugins use this to fix up documents
	// after arbitrary edits.
	AppendSteps func(tr *Transaction, oldState *EditorState)
}
