package htmlgen

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/quill/internal/diag"
	"github.com/vk/quill/internal/executor"
	"github.com/vk/quill/internal/expr"
	"github.com/vk/quill/internal/interpreter"
)

// dependencies renders one update closure per mutable variable. Each closure
// recomputes every target that reads the variable.
func (g *generator) dependencies() (string, error) {
	updates := map[string][]string{}
	var failed error
	g.tree.Walk(func(n *executor.Node) {
		if failed != nil || n.Null {
			return
		}
		full := n.ID.Full(g.id)
		for _, target := range slices.Sorted(maps.Keys(n.Dependencies)) {
			b, ok := n.Formulas[target]
			if !ok {
				continue
			}
			js, err := g.bindingJS(b)
			if err != nil {
				failed = diag.Gen(g.tree.DocID, 0, "%s of %s: %v", target, full, err)
				return
			}
			stmt := g.update(full, target, js)
			for _, dep := range n.Dependencies[target] {
				updates[dep] = append(updates[dep], stmt)
			}
		}
	})
	if failed != nil {
		return "", failed
	}

	var b strings.Builder
	doc := jsString(g.id)
	for _, name := range slices.Sorted(maps.Keys(updates)) {
		fmt.Fprintf(&b, "window.ftd.dependencies[%s][%s] = function(data) {\n", doc, jsString(name))
		for _, stmt := range updates[name] {
			b.WriteString(stmt)
			b.WriteByte('\n')
		}
		b.WriteString("};\n")
	}
	return b.String(), nil
}

func (g *generator) update(full, target, js string) string {
	doc, id := jsString(g.id), jsString(full)
	switch {
	case target == executor.TargetText:
		return fmt.Sprintf("window.ftd.set_text(%s, %s, %s);", doc, id, js)
	case target == executor.TargetVisible:
		return fmt.Sprintf("window.ftd.set_visible(%s, %s, %s);", doc, id, js)
	case target == executor.TargetItems:
		return fmt.Sprintf("window.ftd.render_dummy(%s, %s, %s);", doc, id, js)
	case target == executor.TargetClasses:
		return fmt.Sprintf("window.ftd.set_classes(%s, %s, %s);", doc, id, js)
	case strings.HasPrefix(target, "style."):
		return fmt.Sprintf("window.ftd.set_style(%s, %s, %s, %s);", doc, id, jsString(strings.TrimPrefix(target, "style.")), js)
	case strings.HasPrefix(target, "attr."):
		return fmt.Sprintf("window.ftd.set_attr(%s, %s, %s, %s);", doc, id, jsString(strings.TrimPrefix(target, "attr.")), js)
	}
	return fmt.Sprintf("window.ftd.set(%s, %s, %s, %s);", doc, id, jsString(target), js)
}

// bindingJS translates b into a JS expression over `data` and, inside loop
// templates, `item`.
func (g *generator) bindingJS(b *executor.Binding) (string, error) {
	switch {
	case b.Ref != nil:
		return g.refJS(b.Ref)

	case len(b.Cases) > 0:
		out := "null"
		if b.Default != nil {
			var err error
			if out, err = g.bindingJS(b.Default); err != nil {
				return "", err
			}
		}
		// The last case whose condition holds wins, so it is tested first.
		for _, c := range b.Cases {
			cond, err := g.bindingJS(c.Condition)
			if err != nil {
				return "", err
			}
			val, err := g.bindingJS(c.Value)
			if err != nil {
				return "", err
			}
			out = fmt.Sprintf("(%s ? %s : %s)", cond, val, out)
		}
		return out, nil

	case len(b.All) > 0:
		parts := make([]string, 0, len(b.All))
		for _, a := range b.All {
			js, err := g.bindingJS(a)
			if err != nil {
				return "", err
			}
			parts = append(parts, js)
		}
		return "(" + strings.Join(parts, " && ") + ")", nil
	}
	return g.propertyJS(b.Value, b.Refs)
}

func (g *generator) refJS(r *executor.Ref) (string, error) {
	switch {
	case r.Storage != "":
		return "data[" + jsString(r.Storage) + "]", nil
	case r.Binding != nil:
		js, err := g.bindingJS(r.Binding)
		if err != nil {
			return "", err
		}
		return "(" + js + ")", nil
	case r.Item != "":
		return "item", nil
	}
	return valueJS(r.Value)
}

func (g *generator) propertyJS(pv interpreter.PropertyValue, refs map[string]*executor.Ref) (string, error) {
	switch v := pv.(type) {
	case *interpreter.Value:
		return valueJS(v.Value)

	case *interpreter.Reference:
		r, ok := refs[strings.Join(v.Source, ".")]
		if !ok {
			return "", fmt.Errorf("%q is not bound", strings.Join(v.Source, "."))
		}
		base, err := g.refJS(r)
		if err != nil {
			return "", err
		}
		rest, err := expr.StepsToJS(v.Rest)
		if err != nil {
			return "", err
		}
		return base + rest, nil

	case *interpreter.Formula:
		return expr.ToJS(v.Expr, expr.JSOptions{
			Reference: func(t hcl.Traversal) (string, error) { return g.traversalJS(t, refs) },
			Function:  g.functionName(v.Module),
		})
	}
	return "", fmt.Errorf("%w: property value %T", expr.ErrUnsupported, pv)
}

// traversalJS resolves the longest bound prefix of t and walks the rest.
func (g *generator) traversalJS(t hcl.Traversal, refs map[string]*executor.Ref) (string, error) {
	path, rest := expr.TraversalPath(t)
	for i := len(path); i > 0; i-- {
		r, ok := refs[strings.Join(path[:i], ".")]
		if !ok {
			continue
		}
		base, err := g.refJS(r)
		if err != nil {
			return "", err
		}
		for _, attr := range path[i:] {
			base += "." + attr
		}
		steps, err := expr.StepsToJS(rest)
		if err != nil {
			return "", err
		}
		return base + steps, nil
	}
	return "", fmt.Errorf("%q is not bound", expr.TraversalKey(t))
}

func valueJS(v cty.Value) (string, error) {
	if _, ok := interpreter.ChildrenOf(v); ok {
		return "", fmt.Errorf("%w: children value", expr.ErrUnsupported)
	}
	return expr.ValueToJS(v)
}
