// Package history provides undo and redo as an editor plugin.
//
// The plugin records an inverted copy of every undoable step and groups
// consecutive steps into events, so one undo reverses one user-perceived
// action rather than one keystroke. Changes marked as not part of the
// history still happen and are never undone; the recorded steps are mapped
// through them so undo stays correct around them.
package history
