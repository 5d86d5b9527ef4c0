package interpreter

import (
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/quill/internal/ast"
	"github.com/vk/quill/internal/expr"
)

var (
	eventNameRe = regexp.MustCompile(`^(click|click-outside|mouse-enter|mouse-leave|change|input|global-key\[[^\]]+\]|global-key-seq\[[^\]]+\])$`)
	actionRe    = regexp.MustCompile(`(?s)^\$?([A-Za-z_][\w.-]*)\s*(?:\((.*)\))?$`)
	actionArgRe = regexp.MustCompile(`(?s)^\$?([A-Za-z_][\w-]*)\s*=\s*(.+)$`)
)

var booleanKind = Kind{Name: ast.KindBoolean, Type: cty.Bool}

// invocation resolves a component invocation and everything nested in it.
func (s *scope) invocation(n *ast.ComponentInvocation) (*Invocation, error) {
	inv := &Invocation{Module: s.doc.ID, Line: n.Line}

	if n.Loop != nil {
		on, err := s.reference("$"+strings.TrimPrefix(n.Loop.On, "$"), n.Loop.Line)
		if err != nil {
			return nil, err
		}
		if !on.Kind.Type.IsListType() {
			return nil, s.errorf(n.Loop.Line, "cannot loop over %q: it is a %s, not a list", n.Loop.On, on.Kind)
		}
		inv.Loop = &Loop{On: on, Alias: n.Loop.Alias, Line: n.Loop.Line}
		s = s.withLoop(n.Loop.Alias, on.Kind.Element())
	}

	comp, err := s.componentNamed(n.Name, n.Line)
	if err != nil {
		return nil, err
	}
	inv.Name = comp.Name

	if n.Condition != nil {
		cond, err := s.formula(n.Condition.Expression, booleanKind, n.Condition.Line)
		if err != nil {
			return nil, err
		}
		inv.Condition = cond
	}

	for _, p := range n.Properties {
		prop, err := s.property(comp, p)
		if err != nil {
			return nil, err
		}
		inv.Properties = append(inv.Properties, prop)
	}
	if len(n.Children) > 0 {
		arg, ok := comp.ChildrenArgument()
		if !ok {
			return nil, s.errorf(n.Line, "component %q does not take children", n.Name)
		}
		children, err := s.children(n.Children)
		if err != nil {
			return nil, err
		}
		inv.Properties = append(inv.Properties, &Property{Key: arg.Name, Value: children, Source: ast.SourceSubsection, Line: n.Line})
	}
	if err := s.checkArguments(comp, inv); err != nil {
		return nil, err
	}

	for _, e := range n.Events {
		ev, err := s.event(e)
		if err != nil {
			return nil, err
		}
		inv.Events = append(inv.Events, ev)
	}
	return inv, nil
}

// componentNamed resolves an invocation name. A component may refer to itself
// by its short name.
func (s *scope) componentNamed(name string, line int) (*Component, error) {
	if s.component != nil && name == shortName(s.component.Name) {
		return s.component, nil
	}
	fq, err := s.resolveName(name, line)
	if err != nil {
		return nil, err
	}
	comp, ok := Lookup[*Component](s.c.Bag, fq)
	if !ok {
		return nil, s.errorf(line, "%q is not a component", name)
	}
	return comp, nil
}

// property binds one invocation property to an argument of comp.
func (s *scope) property(comp *Component, p *ast.Property) (*Property, error) {
	var (
		arg *Field
		ok  bool
	)
	switch p.Source {
	case ast.SourceCaption:
		if arg, ok = comp.CaptionArgument(); !ok {
			return nil, s.errorf(p.Line, "component %q does not take a caption", shortName(comp.Name))
		}
	case ast.SourceBody:
		if arg, ok = comp.BodyArgument(); !ok {
			return nil, s.errorf(p.Line, "component %q does not take a body", shortName(comp.Name))
		}
	default:
		if arg, ok = comp.Argument(strings.TrimPrefix(p.Key, "$")); !ok {
			return nil, s.errorf(p.Line, "component %q has no argument %q", shortName(comp.Name), p.Key)
		}
	}

	k := arg.Kind
	// A literal list entry is one item; repeated headers accumulate.
	if k.List && p.Source != ast.SourceSubsection && !isComputed(p.ValueString()) {
		k = k.Element()
	}
	pv, err := s.propertyValue(p, k)
	if err != nil {
		return nil, err
	}
	prop := &Property{Key: arg.Name, Value: pv, Source: p.Source, Line: p.Line}
	if p.Condition != nil {
		cond, err := s.formula(p.Condition.Expression, booleanKind, p.Condition.Line)
		if err != nil {
			return nil, err
		}
		prop.Condition = cond
	}
	return prop, nil
}

// checkArguments rejects duplicate unconditional properties and missing
// required arguments. List and children arguments default to empty.
func (s *scope) checkArguments(comp *Component, inv *Invocation) error {
	for _, arg := range comp.Arguments {
		props := inv.PropertiesFor(arg.Name)
		unconditional := 0
		for _, p := range props {
			if p.Condition == nil {
				unconditional++
			}
		}
		if unconditional > 1 && !arg.Kind.List {
			return s.errorf(props[len(props)-1].Line, "argument %q of %q is set more than once", arg.Name, shortName(comp.Name))
		}
		required := !arg.Kind.Optional && !arg.Kind.List && !arg.Kind.IsChildren() && arg.Default == nil
		if required && len(props) == 0 {
			return s.errorf(inv.Line, "missing value for argument %q of component %q", arg.Name, shortName(comp.Name))
		}
	}
	return nil
}

// propertyValue resolves a raw property to a value of kind k.
func (s *scope) propertyValue(p *ast.Property, k Kind) (PropertyValue, error) {
	if p.Source == ast.SourceSubsection || len(p.Children) > 0 {
		if !k.IsChildren() {
			return nil, s.errorf(p.Line, "%q takes a %s, not components", p.Key, k)
		}
		return s.children(p.Children)
	}
	if p.Value == nil {
		if k.IsChildren() {
			return &Value{Value: ChildrenVal(&Children{})}, nil
		}
		if k.Optional {
			return &Value{Value: cty.NullVal(k.Type)}, nil
		}
		if k.Name == ast.KindString {
			return &Value{Value: cty.StringVal("")}, nil
		}
		return nil, s.errorf(p.Line, "%q has no value", p.Key)
	}
	return s.valueOf(*p.Value, k, p.Line)
}

// valueOf interprets header text: `$path` is a reference, `{ expr }` and
// `$fn(...)` are formulas, `\$` escapes a literal dollar and anything else is
// literal text of kind k.
func (s *scope) valueOf(text string, k Kind, line int) (PropertyValue, error) {
	t := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(t, `\$`):
		return s.literal(strings.TrimPrefix(t, `\`), k, line)
	case referenceRe.MatchString(t):
		ref, err := s.reference(t, line)
		if err != nil {
			return nil, err
		}
		if !assignable(ref.Kind.Type, k) {
			return nil, s.errorf(line, "%s is a %s, expected %s", t, ref.Kind, k)
		}
		return ref, nil
	case strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}"):
		return s.formula(t[1:len(t)-1], k, line)
	case strings.HasPrefix(t, "$") && strings.HasSuffix(t, ")"):
		return s.formula(t, k, line)
	}
	return s.literal(text, k, line)
}

func isComputed(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, "$") || strings.HasPrefix(t, "{")
}

func (s *scope) literal(text string, k Kind, line int) (PropertyValue, error) {
	v, err := s.c.Bag.parseLiteral(text, k)
	if err != nil {
		return nil, s.errorf(line, "%v", err)
	}
	return &Value{Value: v}, nil
}

// formula parses src and checks it against k by evaluating it over unknown
// values of the referenced kinds.
func (s *scope) formula(src string, k Kind, line int) (*Formula, error) {
	e, diags := expr.Parse(src, line)
	if diags.HasErrors() {
		return nil, s.errorf(line, "invalid expression %q: %s", strings.TrimSpace(src), diags.Error())
	}
	f := &Formula{Expr: e, Module: s.doc.ID, Text: strings.TrimSpace(src), Kind: k, Line: line}

	vars := map[string]cty.Value{}
	container := expr.NewContainer(e)
	for _, ref := range container.References() {
		names, _ := expr.TraversalPath(ref)
		b, err := s.resolve(names, line)
		if err != nil {
			return nil, err
		}
		bk, err := s.kindOf(b, line)
		if err != nil {
			return nil, err
		}
		if bk.IsChildren() {
			return nil, s.errorf(line, "children value %q cannot be used in an expression", strings.Join(b.Source, "."))
		}
		if err := expr.SetPath(vars, b.Source, cty.UnknownVal(bk.Type)); err != nil {
			return nil, s.errorf(line, "%v", err)
		}
		f.Bindings = append(f.Bindings, b)
	}

	funcs := s.c.Bag.Functions(s.doc.ID)
	for _, name := range container.CalledFunctions() {
		if _, ok := funcs[name]; !ok {
			return nil, s.errorf(line, "unknown function %q", name)
		}
	}

	v, diags := e.Value(&hcl.EvalContext{Variables: vars, Functions: funcs})
	if diags.HasErrors() {
		return nil, s.errorf(line, "invalid expression %q: %s", f.Text, diags.Error())
	}
	if !assignable(v.Type(), k) {
		return nil, s.errorf(line, "expression %q is a %s, expected %s", f.Text, friendlyKindName(v.Type()), k)
	}
	return f, nil
}

// children resolves the invocations written for a children argument. They
// close over the current scope.
func (s *scope) children(nodes []*ast.ComponentInvocation) (*Value, error) {
	c := &Children{}
	for _, n := range nodes {
		inv, err := s.invocation(n)
		if err != nil {
			return nil, err
		}
		c.Components = append(c.Components, inv)
	}
	return &Value{Value: ChildrenVal(c)}, nil
}

func (s *scope) event(e *ast.Event) (*Event, error) {
	if !eventNameRe.MatchString(e.Name) {
		return nil, s.errorf(e.Line, "unknown event %q", e.Name)
	}
	action, err := s.action(e.Action, e.Line)
	if err != nil {
		return nil, err
	}
	return &Event{Name: e.Name, Action: action, Line: e.Line}, nil
}

// action resolves `$fn($a = $x, ...)`. Parameters the function assigns must be
// bound to a mutable value.
func (s *scope) action(text string, line int) (*Action, error) {
	m := actionRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil, s.errorf(line, "action must be a function call, found %q", text)
	}
	fq, err := s.resolveName(m[1], line)
	if err != nil {
		return nil, err
	}
	fn, ok := Lookup[*Function](s.c.Bag, fq)
	if !ok {
		return nil, s.errorf(line, "%q is not a function", m[1])
	}
	a := &Action{Function: fq, Line: line}

	given := map[string]bool{}
	for _, raw := range splitArgs(m[2]) {
		am := actionArgRe.FindStringSubmatch(raw)
		if am == nil {
			return nil, s.errorf(line, "action argument must be '$name = value', found %q", raw)
		}
		param, ok := fn.Param(am[1])
		if !ok {
			return nil, s.errorf(line, "function %q has no parameter %q", m[1], am[1])
		}
		if given[param.Name] {
			return nil, s.errorf(line, "parameter %q is passed twice", param.Name)
		}
		given[param.Name] = true

		pv, err := s.valueOf(am[2], param.Kind, line)
		if err != nil {
			return nil, err
		}
		if fn.Assigns(param.Name) {
			ref, isRef := pv.(*Reference)
			if !isRef || !s.isMutable(ref) {
				return nil, s.errorf(line, "parameter %q of %q is modified and needs a mutable reference", param.Name, m[1])
			}
		}
		a.Arguments = append(a.Arguments, &ActionArgument{Name: param.Name, Value: pv})
	}
	for _, p := range fn.Params {
		if !given[p.Name] && p.Default == nil && !p.Kind.Optional {
			return nil, s.errorf(line, "missing value for parameter %q of %q", p.Name, m[1])
		}
	}
	return a, nil
}

// isMutable reports whether ref names a mutable variable or argument.
func (s *scope) isMutable(ref *Reference) bool {
	if s.component != nil && strings.HasPrefix(ref.Name, s.component.Name+".") {
		arg, ok := s.component.Argument(strings.TrimPrefix(ref.Name, s.component.Name+"."))
		return ok && arg.Mutable
	}
	return s.c.Bag.IsMutable(ref.Name)
}

// splitArgs splits on commas outside quotes, parentheses and brackets.
func splitArgs(src string) []string {
	var (
		out   []string
		depth int
		quote bool
		start int
	)
	for i, r := range src {
		switch {
		case r == '"' && (i == 0 || src[i-1] != '\\'):
			quote = !quote
		case quote:
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			depth--
		case r == ',' && depth == 0:
			out = append(out, strings.TrimSpace(src[start:i]))
			start = i + 1
		}
	}
	if last := strings.TrimSpace(src[start:]); last != "" {
		out = append(out, last)
	}
	return out
}
