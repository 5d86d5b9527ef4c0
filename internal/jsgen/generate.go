package jsgen

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/quill/internal/diag"
	"github.com/vk/quill/internal/expr"
	"github.com/vk/quill/internal/interpreter"
)

// MainComponent names the declaration of the root tree.
const MainComponent = "main"

// Generate walks the bag of doc and returns its reactive program.
func Generate(doc *interpreter.Document) (*Program, error) {
	p := &Program{}
	for _, name := range doc.Bag.Names() {
		if interpreter.IsDefault(name) {
			continue
		}
		g := &generator{bag: doc.Bag, module: moduleOf(name)}
		thing, _ := doc.Bag.Get(name)
		var (
			in  Instruction
			err error
		)
		switch t := thing.(type) {
		case *interpreter.Variable:
			in, err = g.variable(t)
			if t.Mutable {
				p.MutableVariables = append(p.MutableVariables, t.Name)
			}
		case *interpreter.Function:
			in, err = g.function(t)
		case *interpreter.Component:
			in, err = g.componentDecl(t)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		p.Instructions = append(p.Instructions, in)
	}

	g := &generator{bag: doc.Bag, module: doc.Name}
	body, err := g.invocations(doc.Tree, "parent")
	if err != nil {
		return nil, err
	}
	p.Instructions = append(p.Instructions, &ComponentDeclaration{Name: MainComponent, Body: body})
	return p, nil
}

// generator translates the things of one module.
type generator struct {
	bag    *interpreter.Bag
	module string
	// component is the declaration being generated, if any.
	component *interpreter.Component
	elements  int
}

func (g *generator) errorf(line int, format string, args ...any) error {
	return diag.Gen(g.module, line, format, args...)
}

func (g *generator) variable(v *interpreter.Variable) (Instruction, error) {
	value, quoted, err := g.variableValue(v)
	if err != nil {
		return nil, err
	}
	if v.Mutable {
		return &MutableVariable{Name: v.Name, Value: value, IsQuoted: quoted}, nil
	}
	return &StaticVariable{Name: v.Name, Value: value, IsQuoted: quoted}, nil
}

// variableValue keeps formulas over mutable variables live; anything else is
// the value computed by the interpreter.
func (g *generator) variableValue(v *interpreter.Variable) (PropertyValue, bool, error) {
	if f, ok := v.Value.(*interpreter.Formula); ok && !v.Mutable {
		for _, dep := range interpreter.Dependencies(f) {
			if g.bag.IsMutable(dep) {
				pv, err := g.property([]*interpreter.Property{{Key: v.Name, Value: f, Line: v.Line}})
				return pv, false, err
			}
		}
	}
	js, err := expr.ValueToJS(v.Data)
	if err != nil {
		return nil, false, g.errorf(v.Line, "variable %q: %v", v.Name, err)
	}
	return &Value{JS: js}, v.Data.Type().Equals(cty.String), nil
}

func (g *generator) function(fn *interpreter.Function) (Instruction, error) {
	params := map[string]bool{}
	names := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		params[p.Name] = true
		names = append(names, expr.JSIdent(p.Name))
	}
	body, err := expr.ProgramToJS(fn.Program, expr.JSOptions{Params: params, Function: g.functionName}, true)
	if err != nil {
		return nil, g.errorf(fn.Line, "function %q: %v", fn.Name, err)
	}
	return &FunctionDeclaration{Name: fn.Name, Params: names, Body: body}, nil
}

func (g *generator) componentDecl(c *interpreter.Component) (Instruction, error) {
	g.component = c
	decl := &ComponentDeclaration{Name: c.Name}
	for _, arg := range c.Arguments {
		p := &Param{Name: arg.Name, Mutable: arg.Mutable}
		if arg.Default != nil {
			v, err := g.single(arg.Default, arg.Line)
			if err != nil {
				return nil, err
			}
			p.Default = v
		}
		decl.Params = append(decl.Params, p)
	}
	if c.Root == nil {
		return nil, g.errorf(c.Line, "component %q has no body", c.Name)
	}
	body, err := g.invocation(c.Root, "parent")
	if err != nil {
		return nil, err
	}
	decl.Body = body
	return decl, nil
}

func (g *generator) invocations(invs []*interpreter.Invocation, parent string) ([]Statement, error) {
	var out []Statement
	for _, inv := range invs {
		stmts, err := g.invocation(inv, parent)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	return out, nil
}

// invocation emits the statements of inv. Loops and conditions are left to
// the runtime.
func (g *generator) invocation(inv *interpreter.Invocation, parent string) ([]Statement, error) {
	if inv.Loop != nil {
		list, err := g.single(inv.Loop.On, inv.Line)
		if err != nil {
			return nil, err
		}
		body, err := g.conditional(inv, "root")
		if err != nil {
			return nil, err
		}
		return []Statement{&ForLoop{Parent: parent, List: list, Alias: inv.Loop.Alias, Body: body}}, nil
	}
	return g.conditional(inv, parent)
}

func (g *generator) conditional(inv *interpreter.Invocation, parent string) ([]Statement, error) {
	if inv.Condition == nil {
		return g.instance(inv, parent)
	}
	cond, err := g.formula([]*interpreter.Property{{Value: inv.Condition, Line: inv.Line}})
	if err != nil {
		return nil, err
	}
	body, err := g.instance(inv, "root")
	if err != nil {
		return nil, err
	}
	return []Statement{&ConditionalDom{Parent: parent, Condition: cond, Body: body}}, nil
}

func (g *generator) instance(inv *interpreter.Invocation, parent string) ([]Statement, error) {
	comp, ok := interpreter.Lookup[*interpreter.Component](g.bag, inv.Name)
	if !ok {
		return nil, g.errorf(inv.Line, "unknown component %q", inv.Name)
	}
	el := fmt.Sprintf("e%d", g.elements)
	g.elements++

	var out []Statement
	if comp.Kernel {
		_, kind := interpreter.SplitName(comp.Name)
		out = append(out, &CreateKernel{Var: el, Kind: kind, Parent: parent})
		var children []Statement
		for _, arg := range comp.Arguments {
			props := inv.PropertiesFor(arg.Name)
			if len(props) == 0 {
				continue
			}
			if arg.Kind.IsChildren() {
				stmts, err := g.children(props, el)
				if err != nil {
					return nil, err
				}
				children = append(children, stmts...)
				continue
			}
			pv, err := g.property(props)
			if err != nil {
				return nil, err
			}
			out = append(out, &SetProperty{Element: el, Kind: arg.Name, Value: pv})
		}
		events, err := g.events(inv, el)
		if err != nil {
			return nil, err
		}
		out = append(out, events...)
		return append(out, children...), nil
	}

	call := &InstantiateComponent{Var: el, Name: comp.Name, Parent: parent}
	for _, arg := range comp.Arguments {
		props := inv.PropertiesFor(arg.Name)
		if len(props) == 0 {
			continue
		}
		var (
			pv  PropertyValue
			err error
		)
		switch {
		case arg.Kind.IsChildren():
			pv, err = g.closure(props)
		case arg.Kind.List:
			pv, err = g.list(props)
		default:
			pv, err = g.property(props)
		}
		if err != nil {
			return nil, err
		}
		call.Arguments = append(call.Arguments, &Argument{Name: arg.Name, Value: pv})
	}
	out = append(out, call)
	events, err := g.events(inv, el)
	if err != nil {
		return nil, err
	}
	return append(out, events...), nil
}

// children emits the statements of nested invocations directly, or forwards
// a children argument received from a caller.
func (g *generator) children(props []*interpreter.Property, el string) ([]Statement, error) {
	var out []Statement
	for _, p := range props {
		if v, ok := p.Value.(*interpreter.Value); ok {
			c, ok := interpreter.ChildrenOf(v.Value)
			if !ok {
				continue
			}
			stmts, err := g.invocations(c.Components, el)
			if err != nil {
				return nil, err
			}
			out = append(out, stmts...)
			continue
		}
		pv, err := g.single(p.Value, p.Line)
		if err != nil {
			return nil, err
		}
		out = append(out, &SetProperty{Element: el, Kind: "children", Value: pv})
	}
	return out, nil
}

func (g *generator) closure(props []*interpreter.Property) (PropertyValue, error) {
	if len(props) == 1 {
		if v, ok := props[0].Value.(*interpreter.Value); ok {
			c, _ := interpreter.ChildrenOf(v.Value)
			cl := &Closure{}
			if c != nil {
				body, err := g.invocations(c.Components, "parent")
				if err != nil {
					return nil, err
				}
				cl.Body = body
			}
			return cl, nil
		}
		return g.single(props[0].Value, props[0].Line)
	}
	return nil, g.errorf(props[0].Line, "children given more than once")
}

func (g *generator) events(inv *interpreter.Invocation, el string) ([]Statement, error) {
	var out []Statement
	for _, ev := range inv.Events {
		h := &AddEventHandler{Element: el, Event: ev.Name, Function: ev.Action.Function}
		for _, a := range ev.Action.Arguments {
			var (
				pv  PropertyValue
				err error
			)
			if ref, ok := a.Value.(*interpreter.Reference); ok && len(ref.Rest) == 0 {
				pv = &Reference{Name: ref.Name, JS: g.accessor(ref.Name)}
			} else if pv, err = g.single(a.Value, ev.Line); err != nil {
				return nil, err
			}
			h.Arguments = append(h.Arguments, &Argument{Name: a.Name, Value: pv})
		}
		out = append(out, h)
	}
	return out, nil
}

// property turns the properties bound to one argument into a value. A
// single unconditional constant or plain reference stays as is; anything
// else is a formula.
func (g *generator) property(props []*interpreter.Property) (PropertyValue, error) {
	if len(props) == 1 && props[0].Condition == nil {
		return g.single(props[0].Value, props[0].Line)
	}
	return g.formula(props)
}

// list collects the items of a list argument. A property holding a whole
// list is spread into it.
func (g *generator) list(props []*interpreter.Property) (PropertyValue, error) {
	if len(props) == 1 && props[0].Condition == nil && isList(props[0].Value) {
		return g.single(props[0].Value, props[0].Line)
	}
	f := &Formula{}
	parts := make([]string, 0, len(props))
	for _, p := range props {
		e, err := g.expression(p.Value, p.Line)
		if err != nil {
			return nil, err
		}
		g.addDeps(f, interpreter.Dependencies(p.Value))
		if !isList(p.Value) {
			e = "[" + e + "]"
		}
		if p.Condition != nil {
			cond, err := g.expression(p.Condition, p.Line)
			if err != nil {
				return nil, err
			}
			g.addDeps(f, interpreter.Dependencies(p.Condition))
			e = "(" + cond + " ? " + e + " : [])"
		}
		parts = append(parts, "..."+e)
	}
	f.ConditionalValues = []*ConditionalValue{{Expression: "[" + strings.Join(parts, ", ") + "]"}}
	return f, nil
}

func isList(pv interpreter.PropertyValue) bool {
	switch v := pv.(type) {
	case *interpreter.Value:
		return v.Value.Type().IsListType()
	case *interpreter.Reference:
		return v.Kind.List
	case *interpreter.Formula:
		return v.Kind.List
	}
	return false
}

func (g *generator) single(pv interpreter.PropertyValue, line int) (PropertyValue, error) {
	switch v := pv.(type) {
	case *interpreter.Value:
		js, err := g.valueJS(v, line)
		if err != nil {
			return nil, err
		}
		return &Value{JS: js}, nil
	case *interpreter.Reference:
		if len(v.Rest) == 0 {
			return &Reference{Name: v.Name, JS: g.accessor(v.Name)}, nil
		}
	}
	return g.formula([]*interpreter.Property{{Value: pv, Line: line}})
}

func (g *generator) formula(props []*interpreter.Property) (*Formula, error) {
	f := &Formula{}
	for _, p := range props {
		cv := &ConditionalValue{}
		if p.Condition != nil {
			cond, err := g.expression(p.Condition, p.Line)
			if err != nil {
				return nil, err
			}
			cv.Condition = cond
			g.addDeps(f, interpreter.Dependencies(p.Condition))
		}
		e, err := g.expression(p.Value, p.Line)
		if err != nil {
			return nil, err
		}
		cv.Expression = e
		g.addDeps(f, interpreter.Dependencies(p.Value))
		f.ConditionalValues = append(f.ConditionalValues, cv)
	}
	return f, nil
}

// addDeps records names read by a formula once each. Loop items are not
// observable and are skipped.
func (g *generator) addDeps(f *Formula, names []string) {
	for _, n := range names {
		if strings.HasPrefix(n, interpreter.LoopName("")) || slices.Contains(f.Deps, n) {
			continue
		}
		f.Deps = append(f.Deps, n)
		f.DepsJS = append(f.DepsJS, g.accessor(n))
	}
}

// expression renders pv as a JS expression that reads current values.
func (g *generator) expression(pv interpreter.PropertyValue, line int) (string, error) {
	switch v := pv.(type) {
	case *interpreter.Value:
		return g.valueJS(v, line)
	case *interpreter.Reference:
		rest, err := expr.StepsToJS(v.Rest)
		if err != nil {
			return "", g.errorf(line, "%v", err)
		}
		return g.read(v.Name) + rest, nil
	case *interpreter.Formula:
		js, err := expr.ToJS(v.Expr, expr.JSOptions{
			Reference: func(t hcl.Traversal) (string, error) { return g.traversal(t, v.Bindings) },
			Function:  g.functionName,
		})
		if err != nil {
			return "", g.errorf(v.Line, "formula %q: %v", v.Text, err)
		}
		return js, nil
	}
	return "", g.errorf(line, "%v: property value %T", expr.ErrUnsupported, pv)
}

func (g *generator) traversal(t hcl.Traversal, bindings []interpreter.Binding) (string, error) {
	path, rest := expr.TraversalPath(t)
	var best *interpreter.Binding
	for i := range bindings {
		b := &bindings[i]
		if len(b.Source) <= len(path) && slices.Equal(b.Source, path[:len(b.Source)]) &&
			(best == nil || len(b.Source) > len(best.Source)) {
			best = b
		}
	}
	if best == nil {
		return "", fmt.Errorf("%q is not bound", expr.TraversalKey(t))
	}
	js := g.read(best.Name)
	for _, attr := range path[len(best.Source):] {
		js += "." + attr
	}
	steps, err := expr.StepsToJS(rest)
	if err != nil {
		return "", err
	}
	return js + steps, nil
}

func (g *generator) valueJS(v *interpreter.Value, line int) (string, error) {
	if _, ok := interpreter.ChildrenOf(v.Value); ok {
		return "", g.errorf(line, "%v: children value", expr.ErrUnsupported)
	}
	js, err := expr.ValueToJS(v.Value)
	if err != nil {
		return "", g.errorf(line, "%v", err)
	}
	return js, nil
}

// read renders the current value of name.
func (g *generator) read(name string) string {
	if alias, ok := strings.CutPrefix(name, interpreter.LoopName("")); ok {
		return expr.JSIdent(alias)
	}
	return "ftd.get(" + g.accessor(name) + ")"
}

// accessor renders the observable slot of name: a loop item, an argument of
// the component being declared, or a document variable.
func (g *generator) accessor(name string) string {
	if alias, ok := strings.CutPrefix(name, interpreter.LoopName("")); ok {
		return expr.JSIdent(alias)
	}
	if g.component != nil {
		if arg, ok := strings.CutPrefix(name, g.component.Name+"."); ok {
			return "args[" + jsString(arg) + "]"
		}
	}
	return "global[" + jsString(name) + "]"
}

func (g *generator) functionName(name string) (string, error) {
	fq := interpreter.QualifiedName(g.module, name)
	if _, ok := interpreter.Lookup[*interpreter.Function](g.bag, fq); ok {
		return "ftd.fn(global[" + jsString(fq) + "])", nil
	}
	if _, ok := expr.Builtins()[name]; ok {
		return "ftd.builtins." + name, nil
	}
	return "", fmt.Errorf("%w: function %q", expr.ErrUnsupported, name)
}

func moduleOf(name string) string {
	module, _ := interpreter.SplitName(name)
	return module
}
