package jsgen

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/quill/internal/expr"
)

// Program is the reactive form of a document.
type Program struct {
	Instructions []Instruction
	// MutableVariables lists every mutable document variable, in definition
	// order.
	MutableVariables []string
}

// Instruction is one top-level declaration.
type Instruction interface{ isInstruction() }

// MutableVariable declares a variable the runtime observes.
type MutableVariable struct {
	Name  string
	Value PropertyValue
	// IsQuoted is set when the value is a string literal.
	IsQuoted bool
}

// StaticVariable declares a variable that never changes after load.
type StaticVariable struct {
	Name     string
	Value    PropertyValue
	IsQuoted bool
}

// FunctionDeclaration is a user function rewritten as statements. Params
// arrive boxed.
type FunctionDeclaration struct {
	Name   string
	Params []string
	Body   string
}

// ComponentDeclaration builds a component under `parent`. The root tree is
// declared as `main`.
type ComponentDeclaration struct {
	Name   string
	Params []*Param
	Body   []Statement
}

// Param is a component argument as the declaration receives it.
type Param struct {
	Name    string
	Mutable bool
	// Default is nil when the caller must supply the argument.
	Default PropertyValue
}

func (*MutableVariable) isInstruction()      {}
func (*StaticVariable) isInstruction()       {}
func (*FunctionDeclaration) isInstruction()  {}
func (*ComponentDeclaration) isInstruction() {}

// Statement is one step of a component declaration.
type Statement interface{ isStatement() }

// CreateKernel creates a kernel element named Var under Parent.
type CreateKernel struct {
	Var    string
	Kind   string
	Parent string
}

// SetProperty sets one property of an element.
type SetProperty struct {
	Element string
	Kind    string
	Value   PropertyValue
}

// AddEventHandler attaches an action to an element.
type AddEventHandler struct {
	Element   string
	Event     string
	Function  string
	Arguments []*Argument
}

// InstantiateComponent builds a user component named Var under Parent.
type InstantiateComponent struct {
	Var       string
	Name      string
	Arguments []*Argument
	Parent    string
}

// ForLoop repeats Body once per item of List, with the item bound to Alias.
// Body builds under `root`.
type ForLoop struct {
	Parent string
	List   PropertyValue
	Alias  string
	Body   []Statement
}

// ConditionalDom builds Body under `root` while Condition holds.
type ConditionalDom struct {
	Parent    string
	Condition *Formula
	Body      []Statement
}

func (*CreateKernel) isStatement()         {}
func (*SetProperty) isStatement()          {}
func (*AddEventHandler) isStatement()      {}
func (*InstantiateComponent) isStatement() {}
func (*ForLoop) isStatement()              {}
func (*ConditionalDom) isStatement()       {}

// Argument is a named value passed to a component or an action.
type Argument struct {
	Name  string
	Value PropertyValue
}

// PropertyValue is the value of a property or argument.
type PropertyValue interface{ isPropertyValue() }

// Value is a constant, already rendered as JS.
type Value struct {
	JS string
}

// Reference passes a name through without reading it, so the receiver
// observes it.
type Reference struct {
	Name string
	JS   string
}

// Formula is recomputed whenever one of Deps changes.
type Formula struct {
	// Deps are the fully-qualified names the formula reads, each once.
	Deps []string
	// DepsJS renders Deps.
	DepsJS            []string
	ConditionalValues []*ConditionalValue
}

// ConditionalValue is one candidate of a formula. The last candidate whose
// condition holds wins; a candidate without condition is the fallback.
type ConditionalValue struct {
	Condition  string
	Expression string
}

// Closure is a children value: statements building under `parent`.
type Closure struct {
	Body []Statement
}

func (*Value) isPropertyValue()     {}
func (*Reference) isPropertyValue() {}
func (*Formula) isPropertyValue()   {}
func (*Closure) isPropertyValue()   {}

// Render prints p as JS for the companion runtime.
func Render(p *Program) string {
	var w writer
	for _, in := range p.Instructions {
		switch v := in.(type) {
		case *MutableVariable:
			w.linef("global[%s] = ftd.mutable(%s);", jsString(v.Name), w.value(v.Value))
		case *StaticVariable:
			w.linef("global[%s] = %s;", jsString(v.Name), w.value(v.Value))
		case *FunctionDeclaration:
			w.linef("global[%s] = function(%s) {", jsString(v.Name), strings.Join(v.Params, ", "))
			w.indent++
			for _, line := range strings.Split(v.Body, "\n") {
				w.line(line)
			}
			w.indent--
			w.line("};")
		case *ComponentDeclaration:
			if v.Name == MainComponent {
				w.line("function main(parent) {")
			} else {
				w.linef("global[%s] = function(parent, args) {", jsString(v.Name))
			}
			w.indent++
			if len(v.Params) > 0 {
				w.params(v.Params)
			}
			w.statements(v.Body)
			w.indent--
			w.line("}")
		}
		w.line("")
	}
	return w.String()
}

type writer struct {
	strings.Builder
	indent int
}

func (w *writer) line(s string) {
	if s != "" {
		w.WriteString(strings.Repeat("  ", w.indent))
	}
	w.WriteString(s)
	w.WriteByte('\n')
}

func (w *writer) linef(format string, args ...any) {
	w.line(fmt.Sprintf(format, args...))
}

func (w *writer) params(params []*Param) {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		def := "undefined"
		if p.Default != nil {
			def = w.value(p.Default)
		}
		parts = append(parts, fmt.Sprintf("{name: %s, mutable: %t, default: %s}", jsString(p.Name), p.Mutable, def))
	}
	w.linef("args = ftd.args(args, [%s]);", strings.Join(parts, ", "))
}

func (w *writer) statements(stmts []Statement) {
	for _, s := range stmts {
		switch v := s.(type) {
		case *CreateKernel:
			w.linef("let %s = ftd.createKernel(%s, %s);", v.Var, v.Parent, jsString(v.Kind))
		case *SetProperty:
			w.linef("%s.setProperty(%s, %s);", v.Element, jsString(v.Kind), w.value(v.Value))
		case *AddEventHandler:
			w.linef("%s.addEventHandler(%s, function() { ftd.action(%s, %s); });",
				v.Element, jsString(v.Event), jsString(v.Function), w.arguments(v.Arguments))
		case *InstantiateComponent:
			w.linef("let %s = ftd.instantiate(%s, global[%s], %s);", v.Var, v.Parent, jsString(v.Name), w.arguments(v.Arguments))
		case *ForLoop:
			w.linef("ftd.forLoop(%s, %s, function(root, %s, index) {", v.Parent, w.value(v.List), expr.JSIdent(v.Alias))
			w.indent++
			w.statements(v.Body)
			w.indent--
			w.line("});")
		case *ConditionalDom:
			w.linef("ftd.conditionalDom(%s, %s, function(root) {", v.Parent, w.value(v.Condition))
			w.indent++
			w.statements(v.Body)
			w.indent--
			w.line("});")
		}
	}
}

func (w *writer) arguments(args []*Argument) string {
	if len(args) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, jsString(a.Name)+": "+w.value(a.Value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (w *writer) value(pv PropertyValue) string {
	switch v := pv.(type) {
	case *Value:
		return v.JS
	case *Reference:
		return v.JS
	case *Formula:
		return formulaJS(v)
	case *Closure:
		var inner writer
		inner.indent = w.indent + 1
		inner.statements(v.Body)
		return "function(parent) {\n" + inner.String() + strings.Repeat("  ", w.indent) + "}"
	}
	return "undefined"
}

// formulaJS renders a formula. Candidates are tested last first.
func formulaJS(f *Formula) string {
	var (
		b        strings.Builder
		fallback = "null"
	)
	fmt.Fprintf(&b, "ftd.formula([%s], function() { ", strings.Join(f.DepsJS, ", "))
	for i := len(f.ConditionalValues) - 1; i >= 0; i-- {
		cv := f.ConditionalValues[i]
		if cv.Condition == "" {
			if fallback == "null" {
				fallback = cv.Expression
			}
			continue
		}
		fmt.Fprintf(&b, "if (%s) { return %s; } ", cv.Condition, cv.Expression)
	}
	fmt.Fprintf(&b, "return %s; })", fallback)
	return b.String()
}

func jsString(s string) string {
	out, err := expr.ValueToJS(cty.StringVal(s))
	if err != nil {
		panic(err)
	}
	return out
}
