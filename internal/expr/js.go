package expr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// ErrUnsupported is returned for constructs the translator does not handle.
var ErrUnsupported = errors.New("unsupported construct")

// JSOptions controls how names are rendered.
type JSOptions struct {
	// Params are names read through a reactive box, rendered as `name.value`.
	Params map[string]bool
	// Reference renders a non-parameter traversal. Nil renders it verbatim.
	Reference func(t hcl.Traversal) (string, error)
	// Function renders a called function name. Nil keeps the name.
	Function func(name string) (string, error)
}

// ToJS translates a single expression.
func ToJS(e hclsyntax.Expression, opts JSOptions) (string, error) {
	switch t := e.(type) {
	case *hclsyntax.LiteralValueExpr:
		return ValueToJS(t.Val)
	case *hclsyntax.TemplateExpr:
		if !isLiteralTemplate(t) {
			return "", fmt.Errorf("%w: string interpolation", ErrUnsupported)
		}
		var b strings.Builder
		for _, part := range t.Parts {
			b.WriteString(part.(*hclsyntax.LiteralValueExpr).Val.AsString())
		}
		return ValueToJS(cty.StringVal(b.String()))
	case *hclsyntax.ScopeTraversalExpr:
		return traversalToJS(t.Traversal, opts)
	case *hclsyntax.ParenthesesExpr:
		inner, err := ToJS(t.Expression, opts)
		if err != nil {
			return "", err
		}
		return "(" + inner + ")", nil
	case *hclsyntax.UnaryOpExpr:
		val, err := ToJS(t.Val, opts)
		if err != nil {
			return "", err
		}
		switch t.Op {
		case hclsyntax.OpLogicalNot:
			return "!" + val, nil
		case hclsyntax.OpNegate:
			return "-" + val, nil
		}
		return "", fmt.Errorf("%w: unary operator", ErrUnsupported)
	case *hclsyntax.BinaryOpExpr:
		op, ok := jsOperators[t.Op]
		if !ok {
			return "", fmt.Errorf("%w: binary operator", ErrUnsupported)
		}
		lhs, err := ToJS(t.LHS, opts)
		if err != nil {
			return "", err
		}
		rhs, err := ToJS(t.RHS, opts)
		if err != nil {
			return "", err
		}
		return lhs + " " + op + " " + rhs, nil
	case *hclsyntax.FunctionCallExpr:
		if t.ExpandFinal {
			return "", fmt.Errorf("%w: argument expansion", ErrUnsupported)
		}
		name := t.Name
		if opts.Function != nil {
			var err error
			if name, err = opts.Function(t.Name); err != nil {
				return "", err
			}
		}
		args, err := listToJS(t.Args, opts)
		if err != nil {
			return "", err
		}
		return name + "(" + args + ")", nil
	case *hclsyntax.TupleConsExpr:
		items, err := listToJS(t.Exprs, opts)
		if err != nil {
			return "", err
		}
		return "[" + items + "]", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, describe(e))
	}
}

var jsOperators = map[*hclsyntax.Operation]string{
	hclsyntax.OpLogicalOr:          "||",
	hclsyntax.OpLogicalAnd:         "&&",
	hclsyntax.OpEqual:              "===",
	hclsyntax.OpNotEqual:           "!==",
	hclsyntax.OpGreaterThan:        ">",
	hclsyntax.OpGreaterThanOrEqual: ">=",
	hclsyntax.OpLessThan:           "<",
	hclsyntax.OpLessThanOrEqual:    "<=",
	hclsyntax.OpAdd:                "+",
	hclsyntax.OpSubtract:           "-",
	hclsyntax.OpMultiply:           "*",
	hclsyntax.OpDivide:             "/",
	hclsyntax.OpModulo:             "%",
}

func listToJS(exprs []hclsyntax.Expression, opts JSOptions) (string, error) {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		s, err := ToJS(e, opts)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", "), nil
}

func traversalToJS(t hcl.Traversal, opts JSOptions) (string, error) {
	root := t.RootName()
	if opts.Params[root] {
		rest, err := stepsToJS(t[1:])
		if err != nil {
			return "", err
		}
		return JSIdent(root) + ".value" + rest, nil
	}
	if opts.Reference != nil {
		return opts.Reference(t)
	}
	rest, err := stepsToJS(t[1:])
	if err != nil {
		return "", err
	}
	return root + rest, nil
}

// StepsToJS renders attribute and index steps as JS accessors.
func StepsToJS(steps hcl.Traversal) (string, error) {
	return stepsToJS(steps)
}

func stepsToJS(steps hcl.Traversal) (string, error) {
	var b strings.Builder
	for _, step := range steps {
		switch s := step.(type) {
		case hcl.TraverseAttr:
			b.WriteString(".")
			b.WriteString(s.Name)
		case hcl.TraverseIndex:
			key, err := ValueToJS(s.Key)
			if err != nil {
				return "", err
			}
			b.WriteString("[" + key + "]")
		default:
			return "", fmt.Errorf("%w: traversal step %T", ErrUnsupported, step)
		}
	}
	return b.String(), nil
}

// ValueToJS renders a known value as a JS literal.
func ValueToJS(v cty.Value) (string, error) {
	if !v.IsWhollyKnown() {
		return "", fmt.Errorf("%w: unknown value", ErrUnsupported)
	}
	if v.IsNull() {
		return "null", nil
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return string(b), nil
}

// ProgramToJS rewrites p as a JS statement list. Assignments to a parameter
// become `name.value = ...`; other assignments declare a local with `let`.
// When root is set, a trailing expression statement is returned.
func ProgramToJS(p *Program, opts JSOptions, root bool) (string, error) {
	lines := make([]string, 0, len(p.Statements))
	declared := map[string]bool{}
	outer := opts.Reference
	opts.Reference = func(t hcl.Traversal) (string, error) {
		if declared[t.RootName()] || outer == nil {
			rest, err := stepsToJS(t[1:])
			return JSIdent(t.RootName()) + rest, err
		}
		return outer(t)
	}
	for i, st := range p.Statements {
		rhs, err := ToJS(st.Expr, opts)
		if err != nil {
			return "", err
		}
		switch {
		case st.Target != "" && opts.Params[st.Target]:
			lines = append(lines, JSIdent(st.Target)+".value = "+rhs+";")
		case st.Target != "" && declared[st.Target]:
			lines = append(lines, JSIdent(st.Target)+" = "+rhs+";")
		case st.Target != "":
			declared[st.Target] = true
			lines = append(lines, "let "+JSIdent(st.Target)+" = "+rhs+";")
		case root && i == len(p.Statements)-1:
			lines = append(lines, "return "+rhs+";")
		default:
			lines = append(lines, rhs+";")
		}
	}
	return strings.Join(lines, "\n"), nil
}

// JSIdent turns a name that may contain dashes into a JS identifier.
func JSIdent(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
