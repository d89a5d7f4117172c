// Package tree implements the pure mutation operations over a page schema.
//
// Every operation takes a domain.Schema and returns a new one together with a
// flag telling whether anything changed. Inputs are never modified: the path
// from the root to the touched node is rebuilt on the way up while untouched
// subtrees are shared. Lookups are depth-first with first-match semantics.
//
// Indices are clamped rather than rejected, and unknown ids are no-ops,
// because interactive editing is racy by nature.
package tree
