// Package registry maps processor names used in documents to compiled Go
// handlers.
//
// A handler declares its arguments as a struct whose fields carry `quill`
// tags. During startup the registry is validated so that every tagged field
// has a cty equivalent; at render time the string arguments of a processor
// call are converted into that struct before the handler runs.
package registry
