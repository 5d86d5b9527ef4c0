package expr

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// Validate rejects every construct outside the supported operator set.
func Validate(e hclsyntax.Expression) hcl.Diagnostics {
	var diags hcl.Diagnostics
	walk(e, func(n hclsyntax.Expression) bool {
		switch t := n.(type) {
		case *hclsyntax.LiteralValueExpr, *hclsyntax.ScopeTraversalExpr,
			*hclsyntax.BinaryOpExpr, *hclsyntax.UnaryOpExpr,
			*hclsyntax.TupleConsExpr, *hclsyntax.ParenthesesExpr:
			return true
		case *hclsyntax.FunctionCallExpr:
			if t.ExpandFinal {
				diags = append(diags, unsupported(n, "argument expansion"))
				return false
			}
			return true
		case *hclsyntax.TemplateExpr:
			if !isLiteralTemplate(t) {
				diags = append(diags, unsupported(n, "string interpolation"))
				return false
			}
			return true
		default:
			diags = append(diags, unsupported(n, describe(n)))
			return false
		}
	})
	return diags
}

func isLiteralTemplate(t *hclsyntax.TemplateExpr) bool {
	for _, part := range t.Parts {
		if _, ok := part.(*hclsyntax.LiteralValueExpr); !ok {
			return false
		}
	}
	return true
}

func unsupported(n hclsyntax.Expression, what string) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Unsupported expression",
		Detail:   fmt.Sprintf("%s is not supported in expressions.", what),
		Subject:  n.Range().Ptr(),
	}
}

func describe(n hclsyntax.Expression) string {
	switch n.(type) {
	case *hclsyntax.ConditionalExpr:
		return "The conditional operator"
	case *hclsyntax.ObjectConsExpr:
		return "An object constructor"
	case *hclsyntax.ForExpr:
		return "A for expression"
	case *hclsyntax.IndexExpr:
		return "A dynamic index"
	case *hclsyntax.SplatExpr:
		return "A splat expression"
	case *hclsyntax.TemplateWrapExpr:
		return "String interpolation"
	default:
		return fmt.Sprintf("%T", n)
	}
}

// walk visits n and its children in source order. Returning false from fn
// skips the children of that node.
func walk(n hclsyntax.Expression, fn func(hclsyntax.Expression) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch e := n.(type) {
	case *hclsyntax.FunctionCallExpr:
		for _, arg := range e.Args {
			walk(arg, fn)
		}
	case *hclsyntax.BinaryOpExpr:
		walk(e.LHS, fn)
		walk(e.RHS, fn)
	case *hclsyntax.UnaryOpExpr:
		walk(e.Val, fn)
	case *hclsyntax.TemplateExpr:
		for _, part := range e.Parts {
			walk(part, fn)
		}
	case *hclsyntax.TupleConsExpr:
		for _, item := range e.Exprs {
			walk(item, fn)
		}
	case *hclsyntax.ParenthesesExpr:
		walk(e.Expression, fn)
	}
}
