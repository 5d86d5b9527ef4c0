// Package jsgen turns an interpreted document into a reactive program for the
// client runtime.
//
// Unlike htmlgen it works from the bag rather than an executed tree: loops
// and conditions are emitted as statements, and every value that can change
// becomes a formula listing the names it depends on, so the runtime only
// recomputes what a mutation affects.
package jsgen
