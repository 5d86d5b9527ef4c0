package htmlgen

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/quill/internal/diag"
	"github.com/vk/quill/internal/executor"
	"github.com/vk/quill/internal/expr"
	"github.com/vk/quill/internal/interpreter"
)

// script renders the data, functions, outer events and loop templates.
func (g *generator) script() (string, error) {
	var b strings.Builder
	doc := jsString(g.id)

	data, err := g.data()
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "window.ftd.data[%s] = %s;\n", doc, data)

	fmt.Fprintf(&b, "window.ftd.functions[%s] = {\n", doc)
	for _, name := range g.bag.Names() {
		fn, ok := interpreter.Lookup[*interpreter.Function](g.bag, name)
		if !ok || interpreter.IsDefault(name) {
			continue
		}
		js, err := g.function(fn)
		if err != nil {
			return "", err
		}
		b.WriteString(js)
	}
	b.WriteString("};\n")

	for _, ev := range g.out.OuterEvents {
		fmt.Fprintf(&b, "window.ftd.add_outer_event(%s, %s, function(event) { %s; });\n",
			jsString(ev.ID), jsString(ev.Event), ev.Handler)
	}
	for _, d := range g.out.Dummies {
		fmt.Fprintf(&b, "window.ftd.dummies[%s] = %s;\n", jsString(d.ID), d.JS)
	}
	return b.String(), nil
}

// data returns every document variable and component local as one JSON
// object keyed by storage name.
func (g *generator) data() (string, error) {
	vals := map[string]cty.Value{}
	for _, name := range g.bag.Names() {
		v, ok := interpreter.Lookup[*interpreter.Variable](g.bag, name)
		if !ok || interpreter.IsDefault(name) || v.Data == cty.NilVal {
			continue
		}
		vals[name] = v.Data
	}
	for name, v := range g.tree.Locals {
		vals[name] = v
	}
	obj := cty.EmptyObjectVal
	if len(vals) > 0 {
		obj = cty.ObjectVal(vals)
	}
	out, err := ctyjson.Marshal(obj, obj.Type())
	if err != nil {
		return "", diag.Gen(g.tree.DocID, 0, "encoding data: %v", err)
	}
	return string(out), nil
}

// function translates a user function. Parameters arrive boxed so that
// assignments reach the caller.
func (g *generator) function(fn *interpreter.Function) (string, error) {
	module, _ := interpreter.SplitName(fn.Name)
	params := map[string]bool{}
	names := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		params[p.Name] = true
		names = append(names, expr.JSIdent(p.Name))
	}
	body, err := expr.ProgramToJS(fn.Program, expr.JSOptions{
		Params:   params,
		Function: g.functionName(module),
	}, true)
	if err != nil {
		return "", diag.Gen(module, fn.Line, "function %q: %v", fn.Name, err)
	}
	return fmt.Sprintf("%s: function(%s) {\n%s\n},\n", jsString(fn.Name), strings.Join(names, ", "), body), nil
}

// functionName renders a function called from module. User functions are
// looked up in the runtime, which boxes plain arguments.
func (g *generator) functionName(module string) func(string) (string, error) {
	return func(name string) (string, error) {
		fq := interpreter.QualifiedName(module, name)
		if _, ok := interpreter.Lookup[*interpreter.Function](g.bag, fq); ok {
			return fmt.Sprintf("window.ftd.fn(%s, %s)", jsString(g.id), jsString(fq)), nil
		}
		if _, ok := expr.Builtins()[name]; ok {
			return "window.ftd.builtins." + name, nil
		}
		return "", fmt.Errorf("%w: function %q", expr.ErrUnsupported, name)
	}
}

// fragment records the template of a dummy node.
func (g *generator) fragment(n *executor.Node, full string) error {
	d := n.Dummy
	fail := func(err error) error {
		return diag.Gen(d.Invocation.Module, d.Invocation.Line, "loop over %s: %v", d.Source, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "{\ncomponent: %s,\nsource: %s,\nalias: %s,\n", jsString(d.Component), jsString(d.Source), jsString(d.Alias))
	cond := "null"
	if d.Condition != nil {
		js, err := g.bindingJS(d.Condition)
		if err != nil {
			return fail(err)
		}
		cond = closure(js)
	}
	fmt.Fprintf(&b, "condition: %s,\nproperties: [\n", cond)
	for _, p := range d.Properties {
		value, err := g.bindingJS(p.Value)
		if err != nil {
			return fail(err)
		}
		pc := "null"
		if p.Condition != nil {
			js, err := g.bindingJS(p.Condition)
			if err != nil {
				return fail(err)
			}
			pc = closure(js)
		}
		fmt.Fprintf(&b, "{key: %s, condition: %s, value: %s},\n", jsString(p.Key), pc, closure(value))
	}
	b.WriteString("],\n}")
	g.out.Dummies = append(g.out.Dummies, Fragment{ID: full, JS: b.String()})
	return nil
}

func closure(body string) string {
	return "function(data, item) { return " + body + "; }"
}

// actionsJSON encodes the actions of one handler for the runtime dispatcher.
func actionsJSON(actions []*executor.Action) (string, error) {
	list := make([]cty.Value, 0, len(actions))
	for _, a := range actions {
		values := map[string]cty.Value{}
		for _, arg := range a.Arguments {
			if arg.Reference != "" {
				values[arg.Name] = cty.ObjectVal(map[string]cty.Value{"reference": cty.StringVal(arg.Reference)})
				continue
			}
			values[arg.Name] = cty.ObjectVal(map[string]cty.Value{"value": arg.Value})
		}
		vals := cty.EmptyObjectVal
		if len(values) > 0 {
			vals = cty.ObjectVal(values)
		}
		list = append(list, cty.ObjectVal(map[string]cty.Value{
			"action": cty.StringVal("call"),
			"name":   cty.StringVal(a.Function),
			"values": vals,
		}))
	}
	v := cty.EmptyTupleVal
	if len(list) > 0 {
		v = cty.TupleVal(list)
	}
	out, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// jsString quotes s as a JS string literal.
func jsString(s string) string {
	out, err := expr.ValueToJS(cty.StringVal(s))
	if err != nil {
		panic(err)
	}
	return out
}

// jsSingleQuoted escapes s for use inside a single-quoted JS string.
func jsSingleQuoted(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
