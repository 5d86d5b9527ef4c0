// Package interpreter turns the syntax nodes of a document and its imports into
// a Document: a bag of fully-qualified Things plus the resolved root component
// tree.
//
// Interpretation is a resumable state machine. Interpret returns one of four
// states. Done carries the finished Document. StuckOnImport,
// StuckOnProcessor and StuckOnForeignVariable each carry a Continuation that
// the caller resumes once it has the missing input. The call stack always
// unwinds on suspension; the Continuation is the entire state, and re-running
// the node that suspended is safe because node processing is atomic.
//
// Names are fully qualified as `<module>#<name>`. Component arguments are
// `<module>#<component>.<argument>` and loop aliases are `$loop$#<alias>`.
// The kernel lives in module `ui`.
package interpreter
