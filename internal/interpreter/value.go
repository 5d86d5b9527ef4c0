package interpreter

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/quill/internal/ast"
	"github.com/vk/quill/internal/expr"
)

// PropertyValue is Value, Reference or Formula.
type PropertyValue interface {
	isPropertyValue()
}

// Value is a concrete value.
type Value struct {
	Value cty.Value
}

// Binding records how a source path was resolved: Source is the consumed part
// of the path (`card.title`), Name the fully-qualified target.
type Binding struct {
	Source []string
	Name   string
}

// Reference points at a named value; Rest walks into it.
type Reference struct {
	Binding
	Rest hcl.Traversal
	Kind Kind
	Line int
}

// Formula is an expression over resolved references. Module selects the user
// functions visible to it.
type Formula struct {
	Expr     hclsyntax.Expression
	Bindings []Binding
	Module   string
	Text     string
	Kind     Kind
	Line     int
}

func (*Value) isPropertyValue()     {}
func (*Reference) isPropertyValue() {}
func (*Formula) isPropertyValue()   {}

// Dependencies returns the distinct names pv reads, in first-use order.
func Dependencies(pv PropertyValue) []string {
	switch v := pv.(type) {
	case *Reference:
		return []string{v.Name}
	case *Formula:
		seen := map[string]bool{}
		var out []string
		for _, b := range v.Bindings {
			if !seen[b.Name] {
				seen[b.Name] = true
				out = append(out, b.Name)
			}
		}
		return out
	}
	return nil
}

// Property is a resolved property of an invocation. Key is the argument name.
type Property struct {
	Key       string
	Value     PropertyValue
	Condition *Formula
	Source    ast.Source
	Line      int
}

// Invocation is a resolved component invocation.
type Invocation struct {
	Name       string
	Properties []*Property
	Events     []*Event
	Condition  *Formula
	Loop       *Loop
	Module     string
	Line       int
}

// PropertiesFor returns the properties bound to key, in source order.
func (inv *Invocation) PropertiesFor(key string) []*Property {
	var out []*Property
	for _, p := range inv.Properties {
		if p.Key == key {
			out = append(out, p)
		}
	}
	return out
}

// Loop repeats an invocation once per item of On.
type Loop struct {
	On    *Reference
	Alias string
	Line  int
}

// LoopName is the fully-qualified name of a loop alias.
func LoopName(alias string) string {
	return "$loop$#" + alias
}

// Event binds an action to a DOM event.
type Event struct {
	Name   string
	Action *Action
	Line   int
}

// Action is a call to a function with named arguments.
type Action struct {
	Function  string
	Arguments []*ActionArgument
	Line      int
}

// ActionArgument is one `$name = value` pair of an action.
type ActionArgument struct {
	Name  string
	Value PropertyValue
}

// LookupFunc returns the current value of a fully-qualified name.
type LookupFunc func(name string) (cty.Value, error)

// Evaluate computes pv. funcs supplies user functions per module.
func Evaluate(pv PropertyValue, lookup LookupFunc, funcs func(module string) map[string]function.Function) (cty.Value, error) {
	switch v := pv.(type) {
	case *Value:
		return v.Value, nil
	case *Reference:
		base, err := lookup(v.Name)
		if err != nil {
			return cty.NilVal, err
		}
		return traverse(base, v.Rest)
	case *Formula:
		return evalFormula(v, lookup, funcs(v.Module))
	case nil:
		return cty.NilVal, fmt.Errorf("missing value")
	}
	return cty.NilVal, fmt.Errorf("unhandled property value %T", pv)
}

func traverse(base cty.Value, rest hcl.Traversal) (cty.Value, error) {
	if len(rest) == 0 {
		return base, nil
	}
	out, diags := rest.TraverseRel(base)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("%s", diags.Error())
	}
	return out, nil
}

func evalFormula(f *Formula, lookup LookupFunc, funcs map[string]function.Function) (cty.Value, error) {
	vars := map[string]cty.Value{}
	for _, b := range f.Bindings {
		v, err := lookup(b.Name)
		if err != nil {
			return cty.NilVal, err
		}
		if err := expr.SetPath(vars, b.Source, v); err != nil {
			return cty.NilVal, err
		}
	}
	v, diags := expr.Eval(f.Expr, &hcl.EvalContext{Variables: vars, Functions: funcs})
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("%s", diags.Error())
	}
	if f.Kind.Type != cty.NilType && v.IsKnown() {
		cv, err := convert.Convert(v, f.Kind.Type)
		if err != nil {
			return cty.NilVal, fmt.Errorf("%s: %w", f.Text, err)
		}
		return cv, nil
	}
	return v, nil
}
