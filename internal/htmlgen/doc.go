// Package htmlgen renders an executed render tree as static HTML.
//
// Besides the markup, Generate returns the script that wires the page to the
// client runtime: the document data as JSON, user functions translated to
// JS, handlers for events attached to the window, templates for loops over
// mutable lists and one update closure per mutable variable.
//
// Output is deterministic: the same tree always renders to the same bytes.
package htmlgen
