// Package splice replaces the region of a text document that sits between a
// start marker and the first end marker following it.
//
// Both markers survive every splice untouched, so the same document can be
// spliced any number of times; each run replaces whatever currently sits
// between them. Before the target is modified, its previous content is
// written to a single sibling backup file which every run overwrites.
//
// Apply is the pure string transformation. Splice wraps it with the file
// handling used by the CLI: existence checks, backup, and (by default) an
// atomic rename-based replacement of the target.
package splice
