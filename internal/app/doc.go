// Package app is the render entry point. It drives the interpreter to
// completion, answering its questions through caller supplied resolvers, and
// hands the finished document to the HTML or JS back end. It is decoupled from
// any specific entrypoint like a CLI or server.
package app
