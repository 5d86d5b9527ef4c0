package interpreter

import (
	"fmt"

	"github.com/vk/quill/internal/ast"
	"github.com/vk/quill/internal/expr"
)

// KernelModule is the module holding the built-in components and actions.
const KernelModule = "ui"

// CommonProperties are accepted by every kernel component.
var CommonProperties = []string{
	"id", "padding", "margin", "spacing", "width", "height", "color",
	"background-color", "border-width", "border-color", "border-radius",
	"text-align", "link", "classes",
}

type kernelArg struct {
	name string
	kind string
}

var kernelComponents = []struct {
	name string
	args []kernelArg
}{
	{"text", []kernelArg{{"text", "caption or body"}}},
	{"integer", []kernelArg{{"value", "caption integer"}}},
	{"decimal", []kernelArg{{"value", "caption decimal"}}},
	{"boolean", []kernelArg{{"value", "caption boolean"}}},
	{"image", []kernelArg{{"src", "caption"}, {"alt", "optional string"}}},
	{"row", []kernelArg{{"children", "optional children"}}},
	{"column", []kernelArg{{"children", "optional children"}}},
	{"document", []kernelArg{
		{"title", "optional string"},
		{"og-title", "optional string"},
		{"css", "optional string"},
		{"js", "optional string"},
		{"children", "optional children"},
	}},
}

var kernelFunctions = []struct {
	name   string
	params []kernelArg
	body   string
}{
	{"toggle", []kernelArg{{"a", "boolean"}}, "a = !a"},
	{"increment", []kernelArg{{"a", "integer"}}, "a = a + 1"},
	{"decrement", []kernelArg{{"a", "integer"}}, "a = a - 1"},
	{"increment-by", []kernelArg{{"a", "integer"}, {"v", "integer"}}, "a = a + v"},
	{"set-boolean", []kernelArg{{"a", "boolean"}, {"v", "boolean"}}, "a = v"},
	{"set-integer", []kernelArg{{"a", "integer"}, {"v", "integer"}}, "a = v"},
	{"set-string", []kernelArg{{"a", "string"}, {"v", "string"}}, "a = v"},
}

// DefaultBag returns a bag holding the kernel components and actions.
func DefaultBag() *Bag {
	b := NewBag()
	for _, kc := range kernelComponents {
		comp := &Component{Name: QualifiedName(KernelModule, kc.name), Kernel: true}
		for _, a := range kc.args {
			comp.Arguments = append(comp.Arguments, &Field{Name: a.name, Kind: mustKernelKind(a.kind)})
		}
		for _, p := range CommonProperties {
			comp.Arguments = append(comp.Arguments, &Field{Name: p, Kind: mustKernelKind("optional string")})
		}
		comp.Arguments = append(comp.Arguments, &Field{Name: "open-in-new-tab", Kind: mustKernelKind("optional boolean")})
		mustInsert(b, comp)
	}

	for _, kf := range kernelFunctions {
		fn := &Function{Name: QualifiedName(KernelModule, kf.name), Source: kf.body}
		for _, p := range kf.params {
			// Every action parameter that is assigned is mutable.
			fn.Params = append(fn.Params, &Field{Name: p.name, Kind: mustKernelKind(p.kind), Mutable: p.name == "a"})
		}
		prog, diags := expr.ParseProgram(kf.body, 1)
		if diags.HasErrors() {
			panic(fmt.Sprintf("kernel function %s: %s", kf.name, diags.Error()))
		}
		fn.Program = prog
		fn.Impl = functionImpl(fn, b, KernelModule)
		mustInsert(b, fn)
	}
	return b
}

func mustKernelKind(text string) Kind {
	ak, err := ast.ParseKind(text)
	if err != nil {
		panic(err)
	}
	t, ok := builtinType(ak.Name)
	if !ok {
		panic(fmt.Sprintf("kernel kind %q is not builtin", text))
	}
	return Kind{Name: ak.Name, Optional: ak.Optional, Caption: ak.Caption, Body: ak.Body, Type: t}
}

func mustInsert(b *Bag, t Thing) {
	if err := b.Insert(t); err != nil {
		panic(err)
	}
}

// IsKernelValueComponent reports whether name is a kernel component that
// renders a single value.
func IsKernelValueComponent(name string) bool {
	switch name {
	case QualifiedName(KernelModule, "text"), QualifiedName(KernelModule, "integer"),
		QualifiedName(KernelModule, "decimal"), QualifiedName(KernelModule, "boolean"):
		return true
	}
	return false
}
