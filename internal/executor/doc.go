// Package executor expands the interpreted component tree of a Document into
// a tree of render nodes.
//
// User components are inlined with their arguments bound, kernel components
// become render nodes with resolved text, attributes and style. Conditions
// set visibility and loops over static lists produce one node per item. A
// loop over a list that can change at runtime produces a single dummy node
// carrying the unresolved invocation, to be expanded client side.
//
// Every resolved value records the mutable variables it depends on, so the
// HTML generator can emit update closures for them.
package executor
