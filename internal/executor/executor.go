package executor

import (
	"fmt"
	"slices"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/quill/internal/diag"
	"github.com/vk/quill/internal/interpreter"
	"github.com/vk/quill/internal/nodeid"
)

// Execute expands the root component tree of doc.
func Execute(doc *interpreter.Document) (*Tree, error) {
	e := &executor{
		doc:      doc,
		tree:     &Tree{DocID: doc.Name, Locals: map[string]cty.Value{}},
		globals:  map[string]*resolved{},
		closures: map[*interpreter.Children]*frame{},
	}
	nodes, err := e.invocations(doc.Tree, &frame{}, nil)
	if err != nil {
		return nil, err
	}
	e.tree.Nodes = nodes
	return e.tree, nil
}

type executor struct {
	doc      *interpreter.Document
	tree     *Tree
	globals  map[string]*resolved
	closures map[*interpreter.Children]*frame
	// stack holds the user components being expanded.
	stack []string
}

func (e *executor) errorf(inv *interpreter.Invocation, format string, args ...any) error {
	return diag.Exec(inv.Module, inv.Line, format, args...)
}

// wrap turns a plain error into an ExecutorError at inv.
func (e *executor) wrap(inv *interpreter.Invocation, err error) error {
	if _, ok := diag.As(err); ok {
		return err
	}
	return e.errorf(inv, "%v", err)
}

// invocations expands a list of sibling invocations under parent. A nil
// parent places them at the top level.
func (e *executor) invocations(invs []*interpreter.Invocation, f *frame, parent *nodeid.Address) ([]*Node, error) {
	var out []*Node
	for i, inv := range invs {
		id := nodeid.Root(i)
		if parent != nil {
			id = parent.Child(i)
		}
		nodes, err := e.invocation(inv, f, id)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

func (e *executor) invocation(inv *interpreter.Invocation, f *frame, id *nodeid.Address) ([]*Node, error) {
	if inv.Loop == nil {
		n, err := e.instance(inv, f, id)
		if err != nil {
			return nil, err
		}
		return []*Node{n}, nil
	}
	return e.loop(inv, f, id)
}

// loop expands one node per item of a static list. A list that can change
// at runtime gives a single dummy node instead.
func (e *executor) loop(inv *interpreter.Invocation, f *frame, id *nodeid.Address) ([]*Node, error) {
	src, err := e.resolve(inv.Loop.On, f)
	if err != nil {
		return nil, e.wrap(inv, err)
	}
	items, err := e.items(inv, f, id, src.value)
	if err != nil {
		return nil, err
	}
	if !src.reactive() {
		return items, nil
	}

	dummy, err := e.dummy(inv, f, src)
	if err != nil {
		return nil, err
	}
	return []*Node{{
		Kind:         "dummy",
		Tag:          "div",
		ID:           id,
		Visible:      true,
		Dummy:        dummy,
		Children:     items,
		Dependencies: map[string][]string{TargetItems: src.deps},
		Formulas:     map[string]*Binding{TargetItems: bindingOf(src)},
	}}, nil
}

func (e *executor) items(inv *interpreter.Invocation, f *frame, id *nodeid.Address, list cty.Value) ([]*Node, error) {
	if list.IsNull() {
		return nil, nil
	}
	var out []*Node
	for i, it := 0, list.ElementIterator(); it.Next(); i++ {
		_, item := it.Element()
		n, err := e.instance(inv, f.withLoop(inv.Loop.Alias, constant(item)), id.WithIteration(i))
		if err != nil {
			return nil, err
		}
		n.Iteration = &Iteration{Alias: inv.Loop.Alias, Index: i}
		out = append(out, n)
	}
	return out, nil
}

// dummy resolves the properties of a reactive loop with the item left free.
func (e *executor) dummy(inv *interpreter.Invocation, f *frame, src *resolved) (*Dummy, error) {
	alias := inv.Loop.Alias
	d := &Dummy{Invocation: inv, Alias: alias, Component: inv.Name}
	if src.ref != nil {
		d.Source = src.ref.Storage
	}

	item := &resolved{
		value: cty.UnknownVal(src.value.Type().ElementType()),
		ref:   &Ref{Item: alias},
		deps:  src.deps,
	}
	lf := f.withLoop(alias, item)

	if inv.Condition != nil {
		r, err := e.resolve(inv.Condition, lf)
		if err != nil {
			return nil, e.wrap(inv, err)
		}
		d.Condition = bindingOf(r)
	}
	for _, p := range inv.Properties {
		r, err := e.resolve(p.Value, lf)
		if err != nil {
			return nil, e.wrap(inv, err)
		}
		if _, ok := interpreter.ChildrenOf(r.value); ok {
			continue
		}
		dp := &DummyProperty{Key: p.Key, Value: bindingOf(r)}
		if p.Condition != nil {
			c, err := e.resolve(p.Condition, lf)
			if err != nil {
				return nil, e.wrap(inv, err)
			}
			dp.Condition = bindingOf(c)
		}
		d.Properties = append(d.Properties, dp)
	}
	return d, nil
}

// instance renders one invocation, ignoring its loop.
func (e *executor) instance(inv *interpreter.Invocation, f *frame, id *nodeid.Address) (*Node, error) {
	comp, ok := interpreter.Lookup[*interpreter.Component](e.doc.Bag, inv.Name)
	if !ok {
		return nil, e.errorf(inv, "unknown component %q", inv.Name)
	}

	visible, cond, err := e.condition(inv.Condition, f)
	if err != nil {
		return nil, e.wrap(inv, err)
	}
	nf, err := e.bindArguments(comp, inv, f, id)
	if err != nil {
		return nil, err
	}

	var n *Node
	if comp.Kernel {
		n, err = e.kernel(comp, inv, nf, id)
	} else {
		n, err = e.expand(comp, inv, nf, id)
	}
	if err != nil {
		return nil, err
	}
	if n.Null {
		return n, nil
	}

	events, err := e.events(inv, f)
	if err != nil {
		return nil, err
	}
	n.Events = append(n.Events, events...)

	n.Visible = n.Visible && visible
	if cond.reactive() {
		n.Dependencies[TargetVisible] = appendUnique(n.Dependencies[TargetVisible], cond.deps...)
		if prev, ok := n.Formulas[TargetVisible]; ok {
			n.Formulas[TargetVisible] = &Binding{All: []*Binding{bindingOf(cond), prev}}
		} else {
			n.Formulas[TargetVisible] = bindingOf(cond)
		}
	}
	return n, nil
}

// expand inlines the root of a user component.
func (e *executor) expand(comp *interpreter.Component, inv *interpreter.Invocation, nf *frame, id *nodeid.Address) (*Node, error) {
	if comp.Root == nil {
		return nil, e.errorf(inv, "component %q has no body", comp.Name)
	}
	if comp.Root.Loop != nil {
		return nil, e.errorf(comp.Root, "the root of component %q cannot loop", comp.Name)
	}
	if slices.Contains(e.stack, comp.Name) {
		return nil, e.errorf(inv, "component %q expands into itself: %v", comp.Name, append(e.stack, comp.Name))
	}
	e.stack = append(e.stack, comp.Name)
	defer func() { e.stack = e.stack[:len(e.stack)-1] }()

	return e.instance(comp.Root, nf, id)
}

// bindArguments binds every argument of comp for one invocation: the
// property, then the declared default, then the kind default.
func (e *executor) bindArguments(comp *interpreter.Component, inv *interpreter.Invocation, caller *frame, id *nodeid.Address) (*frame, error) {
	nf := &frame{component: comp, id: id, args: make(map[string]*resolved, len(comp.Arguments))}
	for _, arg := range comp.Arguments {
		def := func() (*resolved, error) { return e.defaultValue(arg, nf) }
		var (
			r   *resolved
			err error
		)
		if arg.Kind.List {
			r, err = e.bindList(arg, inv, caller)
			if r == nil && err == nil {
				r, err = def()
			}
		} else {
			r, err = e.bindSingle(arg, inv, caller, def)
		}
		if err != nil {
			return nil, e.wrap(inv, err)
		}
		if r == nil {
			return nil, e.errorf(inv, "missing value for argument %q of component %q", arg.Name, comp.Name)
		}
		if r, err = convertArgument(arg, r); err != nil {
			return nil, e.errorf(inv, "argument %q of component %q: %v", arg.Name, comp.Name, err)
		}
		if arg.Mutable && !comp.Kernel {
			r = e.storage(comp, arg, r, id)
		}
		nf.args[arg.Name] = r
	}
	return nf, nil
}

// convertArgument converts a bound value to the declared kind of arg.
func convertArgument(arg *interpreter.Field, r *resolved) (*resolved, error) {
	want := arg.Kind.Type
	if arg.Kind.IsChildren() || want == cty.NilType || want.Equals(cty.DynamicPseudoType) || r.value.Type().Equals(want) {
		return r, nil
	}
	v, err := convert.Convert(r.value, want)
	if err != nil {
		return nil, fmt.Errorf("cannot use a %s as %s: %w", r.value.Type().FriendlyName(), arg.Kind, err)
	}
	out := *r
	out.value = v
	if r.ref != nil && r.ref.Storage == "" && r.ref.Binding == nil && r.ref.Item == "" {
		out.ref = &Ref{Value: v}
	}
	return &out, nil
}

// bindSingle picks the value of a scalar argument. The last conditional
// property whose condition holds wins over the unconditional one; def
// supplies the value when none applies. Conditions that can change at runtime turn the value into a
// binding with cases.
func (e *executor) bindSingle(arg *interpreter.Field, inv *interpreter.Invocation, caller *frame, def func() (*resolved, error)) (*resolved, error) {
	var (
		chosen   *resolved
		fallback *resolved
		cases    []*Case
		deps     []string
	)
	for _, p := range inv.PropertiesFor(arg.Name) {
		ok, cond, err := e.condition(p.Condition, caller)
		if err != nil {
			return nil, err
		}
		if !ok && !cond.reactive() {
			continue
		}
		value, err := e.resolve(p.Value, caller)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", arg.Name, err)
		}
		if p.Condition == nil {
			fallback = value
			continue
		}
		if ok {
			chosen = value
		}
		if cond.reactive() {
			cases = append(cases, &Case{Condition: bindingOf(cond), Value: bindingOf(value)})
			deps = appendUnique(deps, cond.deps...)
			deps = appendUnique(deps, value.deps...)
		}
	}

	if fallback == nil && (chosen == nil || len(cases) > 0) {
		d, err := def()
		if err != nil {
			return nil, err
		}
		fallback = d
	}
	if chosen == nil {
		chosen = fallback
	}
	if chosen == nil || len(cases) == 0 {
		return chosen, nil
	}

	out := *chosen
	b := &Binding{Cases: cases}
	if fallback != nil {
		b.Default = bindingOf(fallback)
		deps = appendUnique(deps, fallback.deps...)
	}
	out.deps = appendUnique(deps, chosen.deps...)
	out.binding = b
	out.ref = &Ref{Binding: b}
	return &out, nil
}

// bindList collects the items of a list argument. A property holding a list
// contributes all its items.
func (e *executor) bindList(arg *interpreter.Field, inv *interpreter.Invocation, caller *frame) (*resolved, error) {
	props := inv.PropertiesFor(arg.Name)
	if len(props) == 0 {
		return nil, nil
	}
	var (
		items []cty.Value
		deps  []string
	)
	var single *resolved
	for _, p := range props {
		ok, cond, err := e.condition(p.Condition, caller)
		if err != nil {
			return nil, err
		}
		deps = appendUnique(deps, cond.deps...)
		if !ok {
			continue
		}
		r, err := e.resolve(p.Value, caller)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", arg.Name, err)
		}
		deps = appendUnique(deps, r.deps...)
		single = r
		if r.value.Type().IsListType() {
			if !r.value.IsNull() {
				items = append(items, r.value.AsValueSlice()...)
			}
			continue
		}
		items = append(items, r.value)
	}

	elem := arg.Kind.Element().Type
	out := constant(cty.ListValEmpty(elem))
	if len(items) > 0 {
		out = constant(cty.ListVal(items))
	}
	// A single reactive list passes through unchanged so loops over it stay
	// reactive.
	if len(props) == 1 && single != nil && single.reactive() && single.value.Type().IsListType() {
		return single, nil
	}
	out.deps = deps
	return out, nil
}

// defaultValue returns the declared default, evaluated in the component
// frame, or the kind default. It returns nil when neither exists.
func (e *executor) defaultValue(arg *interpreter.Field, nf *frame) (*resolved, error) {
	switch {
	case arg.Default != nil:
		return e.resolve(arg.Default, nf)
	case arg.Kind.IsChildren():
		return constant(e.closure(&interpreter.Children{}, nf)), nil
	case arg.Kind.List:
		return constant(cty.ListValEmpty(arg.Kind.Element().Type)), nil
	case arg.Kind.Optional:
		return constant(cty.NullVal(arg.Kind.Type)), nil
	}
	return nil, nil
}

// storage gives a mutable argument a storage name. An argument bound to a
// mutable value shares its storage; otherwise the instance gets its own.
func (e *executor) storage(comp *interpreter.Component, arg *interpreter.Field, r *resolved, id *nodeid.Address) *resolved {
	if r.ref != nil && r.ref.Storage != "" {
		return r
	}
	name := fmt.Sprintf("%s.%s@%s", comp.Name, arg.Name, id.String())
	e.tree.Locals[name] = r.value
	return &resolved{value: r.value, ref: &Ref{Storage: name}, deps: []string{name}}
}

// events resolves the event handlers of inv in the caller frame.
func (e *executor) events(inv *interpreter.Invocation, f *frame) ([]*Event, error) {
	var out []*Event
	for _, ev := range inv.Events {
		action := &Action{Function: ev.Action.Function}
		for _, a := range ev.Action.Arguments {
			arg := &ActionArgument{Name: a.Name}
			r, err := e.resolve(a.Value, f)
			if err != nil {
				return nil, e.wrap(inv, err)
			}
			ref, isRef := a.Value.(*interpreter.Reference)
			if isRef && len(ref.Rest) == 0 && r.ref != nil && r.ref.Storage != "" {
				arg.Reference = r.ref.Storage
			} else {
				arg.Value = r.value
			}
			action.Arguments = append(action.Arguments, arg)
		}
		out = append(out, &Event{Name: ev.Name, Actions: []*Action{action}})
	}
	return out, nil
}
