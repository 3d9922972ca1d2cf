// Package doc implements the immutable document model for the editing kernel.
//
// A document is a tree of Nodes. Every Node has a type drawn from a Schema,
// a set of attributes, and either a Fragment of child nodes or, for text
// nodes, a string with an attached set of Marks. Nodes and Fragments are
// immutable: every edit produces a new tree that shares the untouched
// subtrees of the old one.
//
// # Positions
//
// All addressing uses flat integer positions. A text node contributes one
// position per character; an element node contributes two boundary tokens
// (one before its content, one after) plus the size of its content. Position
// 0 sits before the first child of the document, and doc.Content.Size sits
// after the last.
//
// Resolving a position with [Node.Resolve] yields a [ResolvedPos] that
// records the path of (node, index) pairs from the root down to the
// position, enabling parent, depth, and offset queries.
//
// # Schema
//
// A [Schema] is built from a declarative [Spec] describing the allowed node
// and mark shapes. Node construction is validated against the type's content
// expression; invalid trees fail with a [*SchemaError] at construction time
// rather than surfacing later as corrupt documents.
//
// # Slices and replacement
//
// A [Slice] is a Fragment with "open" depths on either side, representing
// content cut out of the middle of a tree. [Node.Replace] splices a slice
// into a document range, joining open ends onto compatible parents. Splits
// and joins are expressed as plain replacements with open slices, which
// keeps the edit vocabulary minimal and uniformly invertible.
package doc
