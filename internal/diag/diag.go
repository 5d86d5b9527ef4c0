// Package diag defines the single diagnostic shape shared by every stage of the
// pipeline. Each error carries the document it came from, the line it points at
// and a human readable message, tagged with the stage that produced it.
package diag

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// Kind identifies the pipeline stage that rejected the input.
type Kind int

const (
	ParseError Kind = iota + 1
	ASTError
	InterpreterError
	ExecutorError
	GeneratorError
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case ASTError:
		return "ASTError"
	case InterpreterError:
		return "InterpreterError"
	case ExecutorError:
		return "ExecutorError"
	case GeneratorError:
		return "GeneratorError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the structured {document, line, message} triple.
type Error struct {
	Kind    Kind
	DocID   string
	Line    int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s:%d -> %s", e.Kind, e.DocID, e.Line, e.Message)
}

// New builds an error of the given kind.
func New(kind Kind, docID string, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, DocID: docID, Line: line, Message: fmt.Sprintf(format, args...)}
}

// Parse, AST, Interp, Exec and Gen are shorthands used by the stages.
func Parse(docID string, line int, format string, args ...any) *Error {
	return New(ParseError, docID, line, format, args...)
}

func AST(docID string, line int, format string, args ...any) *Error {
	return New(ASTError, docID, line, format, args...)
}

func Interp(docID string, line int, format string, args ...any) *Error {
	return New(InterpreterError, docID, line, format, args...)
}

func Exec(docID string, line int, format string, args ...any) *Error {
	return New(ExecutorError, docID, line, format, args...)
}

func Gen(docID string, line int, format string, args ...any) *Error {
	return New(GeneratorError, docID, line, format, args...)
}

// FromHCL converts hcl diagnostics into a single error of the given kind. The
// source line is offset by baseLine, since expressions are parsed one header
// at a time starting from line 1.
func FromHCL(kind Kind, docID string, baseLine int, diags hcl.Diagnostics) *Error {
	if !diags.HasErrors() {
		return nil
	}
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		line := baseLine
		if d.Subject != nil && d.Subject.Start.Line > 1 {
			line += d.Subject.Start.Line - 1
		}
		msg := d.Summary
		if d.Detail != "" {
			msg += ": " + d.Detail
		}
		return New(kind, docID, line, "%s", msg)
	}
	return nil
}

// As extracts a *Error from err, following wrapped errors.
func As(err error) (*Error, bool) {
	var d *Error
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// Is reports whether err is a diagnostic of the given kind.
func Is(err error, kind Kind) bool {
	d, ok := As(err)
	return ok && d.Kind == kind
}
