// Package state implements the editor state container and the transaction
// pipeline.
//
// An EditorState is an immutable snapshot of {schema, document, selection,
// per-plugin state}. Edits are described by a Transaction: an ordered batch
// of steps built against one specific state, with a running position
// mapping, a derived selection, and a metadata bag for out-of-band flags.
// Applying a transaction with EditorState.Apply produces a brand-new state;
// the input state and the transaction stay valid, which is what allows the
// history plugin to keep references to past states without copying
// documents.
//
// Plugins observe every apply. A plugin may carry its own state value
// (initialized at editor construction, recomputed from each transaction)
// and may contribute decorations through its props. Plugins that normalize
// documents can append extra steps to a transaction before the new state is
// frozen.
package state
