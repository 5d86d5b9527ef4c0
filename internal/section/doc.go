// Package section implements the structural parser: it turns raw document text
// into a tree of named sections with typed headers, an optional body and source
// line numbers.
//
// A section starts with a line of the form `-- [kind] name: [caption]`, is
// followed by `[kind] key: [value]` header lines, and optionally by a blank
// line and free-form body text. Sections that own
// children are closed with `-- end: name`. Comments start with `;;`.
//
// Nothing here knows what a record or a component is; that is the job of the
// ast package.
package section
