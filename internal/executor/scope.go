package executor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/quill/internal/interpreter"
	"github.com/vk/quill/internal/nodeid"
)

// frame is the scope of one component instance, or of the document for
// top-level invocations.
type frame struct {
	component *interpreter.Component
	id        *nodeid.Address
	args      map[string]*resolved
	loops     map[string]*resolved
}

func (f *frame) withLoop(alias string, r *resolved) *frame {
	n := *f
	n.loops = make(map[string]*resolved, len(f.loops)+1)
	for k, v := range f.loops {
		n.loops[k] = v
	}
	n.loops[alias] = r
	return &n
}

// resolved is a value plus what is needed to keep it up to date.
type resolved struct {
	value cty.Value
	// ref describes how the value resolves when read by name.
	ref *Ref
	// binding is set when the value can change at runtime.
	binding *Binding
	deps    []string
}

func (r *resolved) reactive() bool {
	return len(r.deps) > 0
}

func constant(v cty.Value) *resolved {
	return &resolved{value: v, ref: &Ref{Value: v}}
}

// name resolves a fully-qualified name in f.
func (e *executor) name(name string, f *frame) (*resolved, error) {
	if alias, ok := strings.CutPrefix(name, interpreter.LoopName("")); ok {
		if r, ok := f.loops[alias]; ok {
			return r, nil
		}
		return nil, fmt.Errorf("loop alias %q is not in scope", alias)
	}
	if f.component != nil {
		if arg, ok := strings.CutPrefix(name, f.component.Name+"."); ok {
			if r, ok := f.args[arg]; ok {
				return r, nil
			}
			return nil, fmt.Errorf("argument %q of %q is not bound", arg, f.component.Name)
		}
	}
	return e.global(name)
}

// global resolves a document variable. Mutable variables are storage;
// immutable variables computed from mutable ones are reactive bindings.
func (e *executor) global(name string) (*resolved, error) {
	if r, ok := e.globals[name]; ok {
		return r, nil
	}
	v, ok := interpreter.Lookup[*interpreter.Variable](e.doc.Bag, name)
	if !ok {
		return nil, fmt.Errorf("%q is not a variable", name)
	}

	r := constant(v.Data)
	switch {
	case v.Mutable:
		r.ref = &Ref{Storage: name}
		r.deps = []string{name}
	case v.Value != nil:
		computed, err := e.resolve(v.Value, &frame{})
		if err != nil {
			return nil, err
		}
		if computed.reactive() {
			r.ref = computed.ref
			r.binding = computed.binding
			r.deps = computed.deps
		}
	}
	e.globals[name] = r
	return r, nil
}

// resolve evaluates pv in f and records the mutable values it depends on.
func (e *executor) resolve(pv interpreter.PropertyValue, f *frame) (*resolved, error) {
	switch v := pv.(type) {
	case *interpreter.Value:
		if c, ok := interpreter.ChildrenOf(v.Value); ok {
			return constant(e.closure(c, f)), nil
		}
		return constant(v.Value), nil

	case *interpreter.Reference:
		base, err := e.name(v.Name, f)
		if err != nil {
			return nil, err
		}
		if len(v.Rest) == 0 {
			return base, nil
		}
		out, diags := v.Rest.TraverseRel(base.value)
		if diags.HasErrors() {
			return nil, fmt.Errorf("%s: %s", strings.Join(v.Source, "."), diags.Error())
		}
		r := constant(out)
		if base.reactive() {
			r.deps = base.deps
			r.binding = &Binding{Value: v, Refs: map[string]*Ref{sourceKey(v.Source): base.ref}}
			r.ref = &Ref{Binding: r.binding}
		}
		return r, nil

	case *interpreter.Formula:
		refs := make(map[string]*Ref, len(v.Bindings))
		var deps []string
		for _, b := range v.Bindings {
			r, err := e.name(b.Name, f)
			if err != nil {
				return nil, err
			}
			refs[sourceKey(b.Source)] = r.ref
			deps = appendUnique(deps, r.deps...)
		}
		out, err := interpreter.Evaluate(v, e.lookup(f), e.doc.Bag.Functions)
		if err != nil {
			return nil, err
		}
		r := constant(out)
		if len(deps) > 0 {
			r.deps = deps
			r.binding = &Binding{Value: v, Refs: refs}
			r.ref = &Ref{Binding: r.binding}
		}
		return r, nil

	case nil:
		return nil, fmt.Errorf("missing value")
	}
	return nil, fmt.Errorf("unhandled property value %T", pv)
}

func (e *executor) lookup(f *frame) interpreter.LookupFunc {
	return func(name string) (cty.Value, error) {
		r, err := e.name(name, f)
		if err != nil {
			return cty.NilVal, err
		}
		return r.value, nil
	}
}

// condition evaluates an optional boolean formula. A nil formula holds.
func (e *executor) condition(c *interpreter.Formula, f *frame) (bool, *resolved, error) {
	if c == nil {
		return true, constant(cty.True), nil
	}
	r, err := e.resolve(c, f)
	if err != nil {
		return false, nil, err
	}
	if r.value.IsNull() || !r.value.IsKnown() || !r.value.Type().Equals(cty.Bool) {
		return false, nil, fmt.Errorf("condition %q is not a boolean", c.Text)
	}
	return r.value.True(), r, nil
}

// closure rewraps a children value so that it remembers the frame it was
// written in.
func (e *executor) closure(c *interpreter.Children, f *frame) cty.Value {
	wrapped := &interpreter.Children{Components: c.Components}
	e.closures[wrapped] = f
	return interpreter.ChildrenVal(wrapped)
}

// bindingOf returns a binding for r, constant or not.
func bindingOf(r *resolved) *Binding {
	switch {
	case r.binding != nil:
		return r.binding
	case r.ref != nil && (r.ref.Storage != "" || r.ref.Binding != nil || r.ref.Item != ""):
		return &Binding{Ref: r.ref}
	}
	return &Binding{Value: &interpreter.Value{Value: r.value}}
}

func sourceKey(source []string) string {
	return strings.Join(source, ".")
}

func appendUnique(list []string, items ...string) []string {
	for _, it := range items {
		if !slices.Contains(list, it) {
			list = append(list, it)
		}
	}
	return list
}
