package expr

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
)

// Container gathers expressions and reports the references and function calls
// they contain. Results are sorted and unique.
type Container struct {
	expressions []hclsyntax.Expression

	analyzed        bool
	references      []hcl.Traversal
	calledFunctions []string
}

// NewContainer creates an empty container.
func NewContainer(exprs ...hclsyntax.Expression) *Container {
	c := &Container{}
	c.Add(exprs...)
	return c
}

// Add adds expressions for analysis, ignoring nils.
func (c *Container) Add(exprs ...hclsyntax.Expression) {
	c.analyzed = false
	for _, e := range exprs {
		if e != nil {
			c.expressions = append(c.expressions, e)
		}
	}
}

// AddProgram adds every statement of p.
func (c *Container) AddProgram(p *Program) {
	for _, st := range p.Statements {
		c.Add(st.Expr)
	}
}

// References returns every unique variable traversal.
func (c *Container) References() []hcl.Traversal {
	c.analyze()
	return c.references
}

// CalledFunctions returns every unique function name.
func (c *Container) CalledFunctions() []string {
	c.analyze()
	return c.calledFunctions
}

func (c *Container) analyze() {
	if c.analyzed {
		return
	}
	c.analyzed = true

	traversals := map[string]hcl.Traversal{}
	functions := map[string]struct{}{}
	for _, e := range c.expressions {
		for _, t := range e.Variables() {
			traversals[TraversalKey(t)] = t
		}
		walk(e, func(n hclsyntax.Expression) bool {
			if call, ok := n.(*hclsyntax.FunctionCallExpr); ok {
				functions[call.Name] = struct{}{}
			}
			return true
		})
	}

	keys := make([]string, 0, len(traversals))
	for k := range traversals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	c.references = make([]hcl.Traversal, 0, len(keys))
	for _, k := range keys {
		c.references = append(c.references, traversals[k])
	}

	c.calledFunctions = make([]string, 0, len(functions))
	for f := range functions {
		c.calledFunctions = append(c.calledFunctions, f)
	}
	sort.Strings(c.calledFunctions)
}

// TraversalKey generates a canonical string for t, e.g. `card.items[0].name`.
func TraversalKey(t hcl.Traversal) string {
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

// TraversalPath splits t into its leading attribute names (root included) and
// the remaining steps, which start at the first index step.
func TraversalPath(t hcl.Traversal) ([]string, hcl.Traversal) {
	var names []string
	for i, step := range t {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			names = append(names, s.Name)
		case hcl.TraverseAttr:
			names = append(names, s.Name)
		default:
			return names, t[i:]
		}
	}
	return names, nil
}
