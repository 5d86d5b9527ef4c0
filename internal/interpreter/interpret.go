package interpreter

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/quill/internal/ast"
	"github.com/vk/quill/internal/expr"
)

// process handles one step of module d. It either inserts the step's things
// into the bag or returns an error; a *suspension leaves the bag untouched.
func (c *Continuation) process(d *docState, st step) error {
	s := &scope{c: c, doc: d}
	switch n := st.node.(type) {
	case *ast.Import:
		return c.importModule(s, n)
	case *ast.RecordDefinition:
		return c.record(s, n)
	case *ast.OrTypeDefinition:
		return c.orType(s, n)
	case *ast.FunctionDefinition:
		return c.function(s, n)
	case *ast.VariableDefinition:
		return c.variable(s, n)
	case *ast.ComponentDefinition:
		if st.body {
			return c.componentBody(s, n)
		}
		return c.componentSignature(s, n)
	case *ast.ComponentInvocation:
		// Only the root document renders; invocations in imported modules
		// are ignored.
		if d.ID != c.Root {
			return nil
		}
		inv, err := s.invocation(n)
		if err != nil {
			return err
		}
		c.tree = append(c.tree, inv)
		return nil
	}
	return fmt.Errorf("unhandled node %T", st.node)
}

func (c *Continuation) importModule(s *scope, n *ast.Import) error {
	d := s.doc
	switch {
	case n.Alias == KernelModule:
		return s.errorf(n.Line, "import alias %q is reserved", KernelModule)
	case n.Module == d.ID:
		return s.errorf(n.Line, "module %q imports itself", n.Module)
	}
	if prev, ok := d.Aliases[n.Alias]; ok && prev != n.Module {
		return s.errorf(n.Line, "import alias %q is already used for %q", n.Alias, prev)
	}
	if _, ok := d.Declared[n.Alias]; ok {
		return s.errorf(n.Line, "import alias %q clashes with a definition", n.Alias)
	}

	c.Imports.AddNode(n.Module)
	if err := c.Imports.AddEdge(n.Module, d.ID); err != nil {
		return s.errorf(n.Line, "%v", err)
	}
	if err := c.Imports.DetectCycles(); err != nil {
		return s.errorf(n.Line, "import cycle: %v", err)
	}

	if _, ok := c.Docs[n.Module]; !ok {
		return &suspension{state: &StuckOnImport{Module: n.Module, Continuation: c}}
	}
	d.Aliases[n.Alias] = n.Module
	return nil
}

// kind maps a kind annotation onto its value type.
func (s *scope) kind(ak ast.Kind, line int) (Kind, error) {
	k := Kind{Name: ak.Name, List: ak.List, Optional: ak.Optional, Caption: ak.Caption, Body: ak.Body}
	t, ok := builtinType(ak.Name)
	if !ok {
		fq, err := s.resolveName(ak.Name, line)
		if err != nil {
			return Kind{}, err
		}
		switch thing, _ := s.c.Bag.Get(fq); thing := thing.(type) {
		case *Record:
			t = recordType(thing)
		case *OrType:
			t = OrTypeValueType
		default:
			return Kind{}, s.errorf(line, "%q is not a record or or-type", ak.Name)
		}
		k.Name = fq
	}
	if ak.List {
		if k.IsChildren() {
			return Kind{}, s.errorf(line, "children cannot be a list")
		}
		t = cty.List(t)
	}
	k.Type = t
	return k, nil
}

func (c *Continuation) record(s *scope, n *ast.RecordDefinition) error {
	r := &Record{Name: QualifiedName(s.doc.ID, n.Name), Line: n.Line}
	fields, err := s.fields(n.Fields, true)
	if err != nil {
		return err
	}
	for _, f := range fields {
		if f.Kind.IsChildren() {
			return s.errorf(f.Line, "record field %q cannot be children", f.Name)
		}
	}
	r.Fields = fields
	return s.insert(r, n.Line)
}

func (c *Continuation) orType(s *scope, n *ast.OrTypeDefinition) error {
	t := &OrType{Name: QualifiedName(s.doc.ID, n.Name), Line: n.Line}
	for _, v := range n.Variants {
		variant := &Variant{Name: v.Name}
		if v.Kind != nil {
			k, err := s.kind(*v.Kind, v.Line)
			if err != nil {
				return err
			}
			if k.List || k.IsChildren() || !k.Type.IsPrimitiveType() {
				return s.errorf(v.Line, "variant %q must carry a string, integer, decimal or boolean", v.Name)
			}
			variant.Kind = &k
		}
		t.Variants = append(t.Variants, variant)
	}
	return s.insert(t, n.Line)
}

// fields resolves declared fields. evalDefaults computes default values now,
// which requires them not to depend on component arguments.
func (s *scope) fields(decls []*ast.Field, evalDefaults bool) ([]*Field, error) {
	out := make([]*Field, 0, len(decls))
	for _, d := range decls {
		k, err := s.kind(d.Kind, d.Line)
		if err != nil {
			return nil, err
		}
		out = append(out, &Field{Name: d.Name, Kind: k, Mutable: d.Mutable, Line: d.Line})
	}
	for i, d := range decls {
		if d.Default == nil {
			continue
		}
		f := out[i]
		pv, err := s.propertyValue(d.Default, f.Kind)
		if err != nil {
			return nil, err
		}
		f.Default = pv
		if v, ok := pv.(*Value); ok {
			f.DefaultData = v.Value
		} else if evalDefaults {
			data, err := s.c.evaluate(pv)
			if err != nil {
				return nil, s.errorf(d.Line, "default of %q: %v", d.Name, err)
			}
			f.DefaultData = data
		}
	}
	return out, nil
}

func (c *Continuation) function(s *scope, n *ast.FunctionDefinition) error {
	fn := &Function{Name: QualifiedName(s.doc.ID, n.Name), Source: n.Body, Line: n.Line}
	params, err := s.fields(n.Params, true)
	if err != nil {
		return err
	}
	fn.Params = params
	if n.ReturnKind != nil {
		k, err := s.kind(*n.ReturnKind, n.Line)
		if err != nil {
			return err
		}
		fn.ReturnKind = &k
	}

	prog, diags := expr.ParseProgram(n.Body, n.BodyLine)
	if diags.HasErrors() {
		return s.errorf(n.BodyLine, "function %q: %s", n.Name, diags.Error())
	}
	fn.Program = prog

	known := map[string]bool{}
	for _, p := range params {
		known[p.Name] = true
	}
	for _, st := range prog.Statements {
		known[st.Target] = true
	}
	container := expr.NewContainer()
	container.AddProgram(prog)
	for _, ref := range container.References() {
		if !known[ref.RootName()] {
			return s.errorf(n.BodyLine, "function %q: unknown name %q", n.Name, ref.RootName())
		}
	}
	funcs := c.Bag.Functions(s.doc.ID)
	for _, name := range container.CalledFunctions() {
		if _, ok := funcs[name]; !ok {
			return s.errorf(n.BodyLine, "function %q calls unknown function %q", n.Name, name)
		}
	}

	fn.Impl = functionImpl(fn, c.Bag, s.doc.ID)
	return s.insert(fn, n.Line)
}

// functionImpl wraps a user function as a callable for expressions. The body
// runs with the functions visible to module.
func functionImpl(fn *Function, bag *Bag, module string) function.Function {
	params := make([]function.Parameter, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = function.Parameter{Name: p.Name, Type: p.Kind.Type, AllowNull: p.Kind.Optional}
	}
	ret := cty.DynamicPseudoType
	if fn.ReturnKind != nil {
		ret = fn.ReturnKind.Type
	}
	return function.New(&function.Spec{
		Params: params,
		Type:   function.StaticReturnType(ret),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			vars := make(map[string]cty.Value, len(args))
			for i, a := range args {
				vars[fn.Params[i].Name] = a
			}
			out, _, diags := fn.Program.Run(&hcl.EvalContext{Variables: vars, Functions: bag.Functions(module)})
			if diags.HasErrors() {
				return cty.NilVal, diags
			}
			if out == cty.NilVal {
				return cty.NullVal(retType), nil
			}
			return convert.Convert(out, retType)
		},
	})
}

func (c *Continuation) variable(s *scope, n *ast.VariableDefinition) error {
	k, err := s.kind(n.Kind, n.Line)
	if err != nil {
		return err
	}
	if k.IsChildren() {
		return s.errorf(n.Line, "variable %q cannot be children", n.Name)
	}
	v := &Variable{Name: QualifiedName(s.doc.ID, n.Name), Kind: k, Mutable: n.Mutable, Line: n.Line}

	if n.Processor != "" {
		raw, ok := c.processorValues[v.Name]
		if !ok {
			return &suspension{state: &StuckOnProcessor{
				Module:       s.doc.ID,
				Processor:    n.Processor,
				Variable:     n,
				Continuation: c,
			}}
		}
		data, err := convertTo(raw, k)
		if err != nil {
			return s.errorf(n.Line, "processor %q for %q: %v", n.Processor, n.Name, err)
		}
		delete(c.processorValues, v.Name)
		v.Value, v.Data = &Value{Value: data}, data
		return s.insert(v, n.Line)
	}

	pv, data, err := s.variableValue(n, k)
	if err != nil {
		return err
	}
	v.Value, v.Data = pv, data
	return s.insert(v, n.Line)
}

// variableValue computes the value of a variable or list item of kind k.
// Values that read other variables are snapshotted.
func (s *scope) variableValue(n *ast.VariableDefinition, k Kind) (PropertyValue, cty.Value, error) {
	switch {
	case n.Value != nil && (len(n.Items) > 0 || len(n.Properties) > 0):
		return nil, cty.NilVal, s.errorf(n.Line, "%q mixes a value with fields or items", n.Name)
	case n.Value != nil:
		pv, err := s.propertyValue(n.Value, k)
		if err != nil {
			return nil, cty.NilVal, err
		}
		data, err := s.c.evaluate(pv)
		if err != nil {
			return nil, cty.NilVal, s.errorf(n.Line, "%v", err)
		}
		return pv, data, nil
	case k.List:
		return s.listValue(n, k)
	case len(n.Properties) > 0:
		return s.recordLiteral(n, k)
	case k.Optional:
		data := cty.NullVal(k.Type)
		return &Value{Value: data}, data, nil
	}
	if r, ok := Lookup[*Record](s.c.Bag, k.Name); ok {
		data, err := s.c.Bag.recordValue(r, nil)
		if err != nil {
			return nil, cty.NilVal, s.errorf(n.Line, "%v", err)
		}
		return &Value{Value: data}, data, nil
	}
	return nil, cty.NilVal, s.errorf(n.Line, "%q has no value", n.Name)
}

func (s *scope) listValue(n *ast.VariableDefinition, k Kind) (PropertyValue, cty.Value, error) {
	elem := k.Element()
	if len(n.Properties) > 0 {
		return nil, cty.NilVal, s.errorf(n.Line, "list %q cannot have headers", n.Name)
	}
	if len(n.Items) == 0 {
		data := cty.ListValEmpty(elem.Type)
		return &Value{Value: data}, data, nil
	}
	items := make([]cty.Value, 0, len(n.Items))
	for _, item := range n.Items {
		ik, err := s.kind(item.Kind, item.Line)
		if err != nil {
			return nil, cty.NilVal, err
		}
		if ik.Name != elem.Name || ik.List {
			return nil, cty.NilVal, s.errorf(item.Line, "list %q holds %s items, found %s", n.Name, elem, ik)
		}
		_, data, err := s.variableValue(item, elem)
		if err != nil {
			return nil, cty.NilVal, err
		}
		items = append(items, data)
	}
	data := cty.ListVal(items)
	return &Value{Value: data}, data, nil
}

func (s *scope) recordLiteral(n *ast.VariableDefinition, k Kind) (PropertyValue, cty.Value, error) {
	r, ok := Lookup[*Record](s.c.Bag, k.Name)
	if !ok {
		return nil, cty.NilVal, s.errorf(n.Line, "%q is a %s and cannot have fields", n.Name, k)
	}
	given := map[string]cty.Value{}
	for _, p := range n.Properties {
		f, ok := r.Field(p.Key)
		if !ok {
			return nil, cty.NilVal, s.errorf(p.Line, "record %s has no field %q", k.Name, p.Key)
		}
		if _, dup := given[p.Key]; dup {
			return nil, cty.NilVal, s.errorf(p.Line, "field %q is set twice", p.Key)
		}
		pv, err := s.propertyValue(p, f.Kind)
		if err != nil {
			return nil, cty.NilVal, err
		}
		data, err := s.c.evaluate(pv)
		if err != nil {
			return nil, cty.NilVal, s.errorf(p.Line, "%v", err)
		}
		given[p.Key] = data
	}
	data, err := s.c.Bag.recordValue(r, given)
	if err != nil {
		return nil, cty.NilVal, s.errorf(n.Line, "%v", err)
	}
	return &Value{Value: data}, data, nil
}

func (c *Continuation) componentSignature(s *scope, n *ast.ComponentDefinition) error {
	comp := &Component{Name: QualifiedName(s.doc.ID, n.Name), Line: n.Line}
	s.component = comp
	args := make([]*Field, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		k, err := s.kind(a.Kind, a.Line)
		if err != nil {
			return err
		}
		args = append(args, &Field{Name: a.Name, Kind: k, Mutable: a.Mutable, Line: a.Line})
	}
	comp.Arguments = args
	// Defaults may read earlier arguments, so they resolve in component scope.
	for i, a := range n.Arguments {
		if a.Default == nil {
			continue
		}
		pv, err := s.propertyValue(a.Default, args[i].Kind)
		if err != nil {
			return err
		}
		args[i].Default = pv
		if v, ok := pv.(*Value); ok {
			args[i].DefaultData = v.Value
		}
	}
	return s.insert(comp, n.Line)
}

func (c *Continuation) componentBody(s *scope, n *ast.ComponentDefinition) error {
	comp, ok := Lookup[*Component](c.Bag, QualifiedName(s.doc.ID, n.Name))
	if !ok {
		return s.errorf(n.Line, "component %q was not declared", n.Name)
	}
	s.component = comp
	root, err := s.invocation(n.Root)
	if err != nil {
		return err
	}
	comp.Root = root
	return nil
}

func (s *scope) insert(t Thing, line int) error {
	if err := s.c.Bag.Insert(t); err != nil {
		return s.errorf(line, "%v", err)
	}
	return nil
}

// evaluate computes a value at definition time. Only document variables have
// a value then.
func (c *Continuation) evaluate(pv PropertyValue) (cty.Value, error) {
	return Evaluate(pv, c.lookup, c.Bag.Functions)
}

func (c *Continuation) lookup(name string) (cty.Value, error) {
	if v, ok := Lookup[*Variable](c.Bag, name); ok {
		return v.Data, nil
	}
	return cty.NilVal, fmt.Errorf("%q has no value outside a component", name)
}
