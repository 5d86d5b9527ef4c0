package interpreter

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/quill/internal/expr"
)

// Thing is a named definition stored in the bag.
type Thing interface {
	ThingName() string
	isThing()
}

// Record is a record type definition.
type Record struct {
	Name   string
	Fields []*Field
	Line   int
}

// Field returns the field with the given name.
func (r *Record) Field(name string) (*Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// OrType is a tagged union definition.
type OrType struct {
	Name     string
	Variants []*Variant
	Line     int
}

// Variant is one alternative of an or-type; Kind is nil for constants.
type Variant struct {
	Name string
	Kind *Kind
}

// Field is a record field, component argument or function parameter.
// Default is the unevaluated default; DefaultData is its value when it could
// be computed at definition time.
type Field struct {
	Name        string
	Kind        Kind
	Mutable     bool
	Default     PropertyValue
	DefaultData cty.Value
	Line        int
}

// Variable is a document variable. Value keeps the source form so generators
// can tell reactive values apart; Data is the value at interpretation time.
type Variable struct {
	Name    string
	Kind    Kind
	Mutable bool
	Foreign bool
	Value   PropertyValue
	Data    cty.Value
	Line    int
}

// Function is a user or kernel function.
type Function struct {
	Name       string
	ReturnKind *Kind
	Params     []*Field
	Program    *expr.Program
	Source     string
	Line       int

	// Impl is the callable form used by expressions.
	Impl function.Function
}

// Param returns the parameter with the given name.
func (f *Function) Param(name string) (*Field, bool) {
	for _, p := range f.Params {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Assigns reports whether the body assigns to the named parameter.
func (f *Function) Assigns(name string) bool {
	for _, st := range f.Program.Statements {
		if st.Target == name {
			return true
		}
	}
	return false
}

// Component is a user component or a kernel element. Kernel components have
// no Root.
type Component struct {
	Name      string
	Arguments []*Field
	Root      *Invocation
	Kernel    bool
	Line      int
}

// Argument returns the argument with the given name.
func (c *Component) Argument(name string) (*Field, bool) {
	for _, a := range c.Arguments {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// CaptionArgument returns the argument that takes the caption.
func (c *Component) CaptionArgument() (*Field, bool) {
	for _, a := range c.Arguments {
		if a.Kind.Caption {
			return a, true
		}
	}
	return nil, false
}

// BodyArgument returns the argument that takes the body.
func (c *Component) BodyArgument() (*Field, bool) {
	for _, a := range c.Arguments {
		if a.Kind.Body {
			return a, true
		}
	}
	return nil, false
}

// ChildrenArgument returns the first argument of kind children.
func (c *Component) ChildrenArgument() (*Field, bool) {
	for _, a := range c.Arguments {
		if a.Kind.IsChildren() {
			return a, true
		}
	}
	return nil, false
}

func (t *Record) ThingName() string    { return t.Name }
func (t *OrType) ThingName() string    { return t.Name }
func (t *Variable) ThingName() string  { return t.Name }
func (t *Function) ThingName() string  { return t.Name }
func (t *Component) ThingName() string { return t.Name }

func (*Record) isThing()    {}
func (*OrType) isThing()    {}
func (*Variable) isThing()  {}
func (*Function) isThing()  {}
func (*Component) isThing() {}

// Bag is the insertion-ordered symbol table of a document. It is append-only
// while interpreting and read-only afterwards.
type Bag struct {
	names  []string
	things map[string]Thing
}

// NewBag returns an empty bag.
func NewBag() *Bag {
	return &Bag{things: map[string]Thing{}}
}

// Insert adds t. Inserting a name twice is an error.
func (b *Bag) Insert(t Thing) error {
	name := t.ThingName()
	if _, ok := b.things[name]; ok {
		return fmt.Errorf("%q is already defined", name)
	}
	b.names = append(b.names, name)
	b.things[name] = t
	return nil
}

// Get returns the thing with the given fully-qualified name.
func (b *Bag) Get(name string) (Thing, bool) {
	t, ok := b.things[name]
	return t, ok
}

// Names returns every name in insertion order.
func (b *Bag) Names() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// Len returns the number of things.
func (b *Bag) Len() int {
	return len(b.names)
}

// Lookup returns the thing with the given name if it has type T.
func Lookup[T Thing](b *Bag, name string) (T, bool) {
	t, ok := b.things[name].(T)
	return t, ok
}

// IsMutable reports whether name is a mutable variable.
func (b *Bag) IsMutable(name string) bool {
	v, ok := Lookup[*Variable](b, name)
	return ok && v.Mutable
}

// Functions returns the expression functions visible to documents of module:
// the builtins plus the module's own functions, keyed by short name.
func (b *Bag) Functions(module string) map[string]function.Function {
	funcs := expr.Builtins()
	prefix := module + "#"
	for _, name := range b.names {
		fn, ok := b.things[name].(*Function)
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		funcs[strings.TrimPrefix(name, prefix)] = fn.Impl
	}
	return funcs
}

// IsDefault reports whether name belongs to the kernel.
func IsDefault(name string) bool {
	return strings.HasPrefix(name, KernelModule+"#")
}

// QualifiedName joins a module and a name.
func QualifiedName(module, name string) string {
	return module + "#" + name
}

// SplitName splits a fully-qualified name into module and name.
func SplitName(fq string) (module, name string) {
	i := strings.LastIndex(fq, "#")
	if i < 0 {
		return "", fq
	}
	return fq[:i], fq[i+1:]
}
