// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the closed set of syntax nodes. Node is sealed with an
// unexported method, so a type switch over the seven node types is exhaustive.
package ast

// Node is one typed top-level declaration of a document.
type Node interface {
	SourceLine() int
	isNode()
}

// Import pulls another module into scope under an alias.
type Import struct {
	Module string
	Alias  string
	Line   int
}

// RecordDefinition declares a named record type.
type RecordDefinition struct {
	Name   string
	Fields []*Field
	Line   int
}

// OrTypeDefinition declares a tagged union. A variant without a kind is a
// constant.
type OrTypeDefinition struct {
	Name     string
	Variants []*Variant
	Line     int
}

// Variant is one alternative of an or-type.
type Variant struct {
	Name string
	Kind *Kind
	Line int
}

// ComponentDefinition declares a reusable component.
type ComponentDefinition struct {
	Name      string
	Arguments []*Field
	Root      *ComponentInvocation
	Line      int
}

// FunctionDefinition declares a user function. Body holds the raw statement
// text; BodyLine is the line it starts on.
type FunctionDefinition struct {
	Name       string
	ReturnKind *Kind // nil for functions used only as actions
	Params     []*Field
	Body       string
	BodyLine   int
	Line       int
}

// VariableDefinition declares a document variable. Value is the caption or the
// body; Properties are record fields or processor arguments; Items hold list
// entries.
type VariableDefinition struct {
	Name       string
	Kind       Kind
	Mutable    bool
	Value      *Property
	Properties []*Property
	Items      []*VariableDefinition
	Processor  string
	Line       int
}

// ComponentInvocation is a use of a kernel or user component.
type ComponentInvocation struct {
	Name       string
	Properties []*Property
	Events     []*Event
	Condition  *Condition
	Loop       *Loop
	Children   []*ComponentInvocation
	Line       int
}

// Field is a declared record field, component argument or function parameter.
type Field struct {
	Name    string
	Kind    Kind
	Mutable bool
	Default *Property
	Line    int
}

// Source records where a property value came from.
type Source int

const (
	SourceHeader Source = iota
	SourceCaption
	SourceBody
	SourceSubsection
)

func (s Source) String() string {
	switch s {
	case SourceCaption:
		return "caption"
	case SourceBody:
		return "body"
	case SourceSubsection:
		return "subsection"
	default:
		return "header"
	}
}

// Property is a single unresolved value on a section. Key is empty for caption
// and body values.
type Property struct {
	Key       string
	Source    Source
	Condition *Condition
	Value     *string
	Children  []*ComponentInvocation
	Line      int
}

// ValueString returns the raw value or an empty string.
func (p *Property) ValueString() string {
	if p == nil || p.Value == nil {
		return ""
	}
	return *p.Value
}

// Condition is a raw boolean expression.
type Condition struct {
	Expression string
	Line       int
}

// Loop is a `$loop$: $list as $alias` header.
type Loop struct {
	On    string
	Alias string
	Line  int
}

// Event is a `$on-<name>$: $fn(...)` header. Name is the event without the
// `on-` prefix, e.g. `click` or `global-key[ctrl-a]`.
type Event struct {
	Name   string
	Action string
	Line   int
}

func (n *Import) SourceLine() int              { return n.Line }
func (n *RecordDefinition) SourceLine() int    { return n.Line }
func (n *OrTypeDefinition) SourceLine() int    { return n.Line }
func (n *ComponentDefinition) SourceLine() int { return n.Line }
func (n *FunctionDefinition) SourceLine() int  { return n.Line }
func (n *VariableDefinition) SourceLine() int  { return n.Line }
func (n *ComponentInvocation) SourceLine() int { return n.Line }

func (*Import) isNode()              {}
func (*RecordDefinition) isNode()    {}
func (*OrTypeDefinition) isNode()    {}
func (*ComponentDefinition) isNode() {}
func (*FunctionDefinition) isNode()  {}
func (*VariableDefinition) isNode()  {}
func (*ComponentInvocation) isNode() {}
