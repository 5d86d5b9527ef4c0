package interpreter

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/quill/internal/ast"
	"github.com/vk/quill/internal/dag"
	"github.com/vk/quill/internal/diag"
	"github.com/vk/quill/internal/section"
)

// State is the result of a single interpretation step.
type State interface {
	isState()
}

// Done is the terminal state.
type Done struct {
	Document *Document
}

// StuckOnImport asks the caller for the source of Module.
type StuckOnImport struct {
	Module       string
	Continuation *Continuation
}

// StuckOnProcessor asks the caller to run Processor for Variable of Module.
type StuckOnProcessor struct {
	Module       string
	Processor    string
	Variable     *ast.VariableDefinition
	Continuation *Continuation
}

// StuckOnForeignVariable asks the caller for the value of a variable that
// Module declared as foreign.
type StuckOnForeignVariable struct {
	Module       string
	Variable     string
	Continuation *Continuation
}

func (*Done) isState()                   {}
func (*StuckOnImport) isState()          {}
func (*StuckOnProcessor) isState()       {}
func (*StuckOnForeignVariable) isState() {}

// Document is the result of a finished interpretation.
type Document struct {
	Name    string
	Aliases map[string]string
	Bag     *Bag
	Tree    []*Invocation
}

// Continuation is the complete interpreter state between steps.
type Continuation struct {
	Root    string
	Bag     *Bag
	Docs    map[string]*docState
	Stack   []string
	Imports *dag.Graph

	processorValues map[string]cty.Value
	waiting         State
	tree            []*Invocation
}

// docState tracks the progress of one module.
type docState struct {
	ID       string
	Nodes    []step
	Next     int
	Aliases  map[string]string
	Declared map[string]ast.Node
	Foreign  map[string]bool
	Done     bool
	declared bool
}

// Interpret starts interpreting the document docID with the given source.
func Interpret(docID, source string) (State, error) {
	c := &Continuation{
		Root:            docID,
		Bag:             DefaultBag(),
		Docs:            map[string]*docState{},
		Imports:         dag.New(),
		processorValues: map[string]cty.Value{},
	}
	if err := c.push(docID, &source, nil); err != nil {
		return nil, err
	}
	return c.run()
}

// ContinueAfterImport supplies the source of the module the interpreter is
// waiting for. A nil source is an empty module. foreign lists the variables
// the module provides through ContinueAfterVariable.
func (c *Continuation) ContinueAfterImport(module string, source *string, foreign []string) (State, error) {
	w, ok := c.waiting.(*StuckOnImport)
	if !ok || w.Module != module {
		return nil, fmt.Errorf("continuation is not waiting for module %q", module)
	}
	if err := c.push(module, source, foreign); err != nil {
		return nil, err
	}
	return c.run()
}

// ContinueAfterProcessor supplies the value produced by the pending processor.
// The value is converted to the variable's declared kind.
func (c *Continuation) ContinueAfterProcessor(value cty.Value) (State, error) {
	w, ok := c.waiting.(*StuckOnProcessor)
	if !ok {
		return nil, errors.New("continuation is not waiting for a processor")
	}
	if !value.IsWhollyKnown() {
		return nil, fmt.Errorf("processor %q for %s must return a known value", w.Processor, QualifiedName(w.Module, w.Variable.Name))
	}
	c.processorValues[QualifiedName(w.Module, w.Variable.Name)] = value
	return c.run()
}

// ContinueAfterVariable supplies the value of a foreign variable.
func (c *Continuation) ContinueAfterVariable(module, variable string, value cty.Value) (State, error) {
	w, ok := c.waiting.(*StuckOnForeignVariable)
	if !ok || w.Module != module || w.Variable != variable {
		return nil, fmt.Errorf("continuation is not waiting for variable %s#%s", module, variable)
	}
	if !value.IsWhollyKnown() {
		return nil, fmt.Errorf("foreign variable %s#%s must have a known value", module, variable)
	}
	v := &Variable{
		Name:    QualifiedName(module, variable),
		Kind:    kindOfValue(value),
		Foreign: true,
		Value:   &Value{Value: value},
		Data:    value,
	}
	if err := c.Bag.Insert(v); err != nil {
		return nil, err
	}
	return c.run()
}

// push parses a module and makes it the current one.
func (c *Continuation) push(module string, source *string, foreign []string) error {
	d := &docState{
		ID:       module,
		Aliases:  map[string]string{},
		Declared: map[string]ast.Node{},
		Foreign:  map[string]bool{},
	}
	for _, f := range foreign {
		d.Foreign[f] = true
	}
	if source != nil {
		sections, err := section.Parse(module, *source)
		if err != nil {
			return err
		}
		nodes, err := ast.FromSections(module, sections)
		if err != nil {
			return err
		}
		d.Nodes = orderNodes(nodes)
	}
	c.Docs[module] = d
	c.Stack = append(c.Stack, module)
	c.Imports.AddNode(module)
	return nil
}

// run processes nodes until the root module is finished or a node needs
// external input.
func (c *Continuation) run() (State, error) {
	c.waiting = nil
	for len(c.Stack) > 0 {
		d := c.Docs[c.Stack[len(c.Stack)-1]]
		if !d.declared {
			if err := c.declare(d); err != nil {
				return nil, err
			}
		}
		if d.Next >= len(d.Nodes) {
			d.Done = true
			c.Stack = c.Stack[:len(c.Stack)-1]
			continue
		}

		err := c.process(d, d.Nodes[d.Next])
		var s *suspension
		if errors.As(err, &s) {
			c.waiting = s.state
			return s.state, nil
		}
		if err != nil {
			return nil, err
		}
		d.Next++
	}

	root := c.Docs[c.Root]
	return &Done{Document: &Document{
		Name:    c.Root,
		Aliases: root.Aliases,
		Bag:     c.Bag,
		Tree:    c.tree,
	}}, nil
}

// declare records every name a module defines. Defining a name twice is an
// error.
func (c *Continuation) declare(d *docState) error {
	d.declared = true
	for _, st := range d.Nodes {
		if st.body {
			continue
		}
		n := st.node
		name := ""
		switch t := n.(type) {
		case *ast.RecordDefinition:
			name = t.Name
		case *ast.OrTypeDefinition:
			name = t.Name
		case *ast.ComponentDefinition:
			name = t.Name
		case *ast.FunctionDefinition:
			name = t.Name
		case *ast.VariableDefinition:
			name = t.Name
		case *ast.Import, *ast.ComponentInvocation:
			continue
		}
		if prev, ok := d.Declared[name]; ok {
			return interpError(d.ID, n.SourceLine(), "%q is already defined on line %d", name, prev.SourceLine())
		}
		if d.Foreign[name] {
			return interpError(d.ID, n.SourceLine(), "%q is declared as a foreign variable", name)
		}
		d.Declared[name] = n
	}
	return nil
}

// step is one unit of work. Component definitions appear twice: once for the
// signature and once, after every signature of the module, for the body.
type step struct {
	node ast.Node
	body bool
}

// orderNodes sorts nodes into processing phases, keeping source order within
// a phase: imports, types, functions, variables, component signatures,
// component bodies, invocations.
func orderNodes(nodes []ast.Node) []step {
	phase := func(n ast.Node) int {
		switch n.(type) {
		case *ast.Import:
			return 0
		case *ast.RecordDefinition, *ast.OrTypeDefinition:
			return 1
		case *ast.FunctionDefinition:
			return 2
		case *ast.VariableDefinition:
			return 3
		case *ast.ComponentDefinition:
			return 4
		default:
			return 6
		}
	}
	out := make([]step, 0, len(nodes))
	for p := 0; p <= 6; p++ {
		for _, n := range nodes {
			switch {
			case p == 5 && phase(n) == 4:
				out = append(out, step{node: n, body: true})
			case phase(n) == p:
				out = append(out, step{node: n})
			}
		}
	}
	return out
}

func interpError(docID string, line int, format string, args ...any) error {
	return diag.Interp(docID, line, format, args...)
}

// kindOfValue infers a kind for a value supplied from outside.
func kindOfValue(v cty.Value) Kind {
	t := v.Type()
	k := Kind{Name: friendlyKindName(t), Type: t}
	if t.IsListType() {
		k.List = true
	}
	return k
}

func convertTo(v cty.Value, k Kind) (cty.Value, error) {
	if v.IsNull() && !k.Optional {
		return cty.NilVal, fmt.Errorf("a %s cannot be null", k)
	}
	return convert.Convert(v, k.Type)
}
