package expr

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Builtins returns the functions every expression may call.
func Builtins() map[string]function.Function {
	return map[string]function.Function{
		"abs":      stdlib.AbsoluteFunc,
		"ceil":     stdlib.CeilFunc,
		"floor":    stdlib.FloorFunc,
		"max":      stdlib.MaxFunc,
		"min":      stdlib.MinFunc,
		"upper":    stdlib.UpperFunc,
		"lower":    stdlib.LowerFunc,
		"trim":     stdlib.TrimSpaceFunc,
		"length":   stdlib.LengthFunc,
		"strlen":   stdlib.StrlenFunc,
		"concat":   stdlib.ConcatFunc,
		"join":     stdlib.JoinFunc,
		"contains": stdlib.ContainsFunc,
		"format":   stdlib.FormatFunc,
		"substr":   stdlib.SubstrFunc,
		"reverse":  stdlib.ReverseListFunc,
		"coalesce": stdlib.CoalesceFunc,
		"tostring": toStringFunc,
		"tonumber": toNumberFunc,
	}
}

var toStringFunc = stdlib.MakeToFunc(cty.String)
var toNumberFunc = stdlib.MakeToFunc(cty.Number)

// Eval evaluates e against ctx.
func Eval(e hclsyntax.Expression, ctx *hcl.EvalContext) (cty.Value, hcl.Diagnostics) {
	return e.Value(ctx)
}

// Run executes p in a child scope of ctx. It returns the value of the last
// non-assignment statement (cty.NilVal when there is none) and the final value
// of every assigned name.
func (p *Program) Run(ctx *hcl.EvalContext) (cty.Value, map[string]cty.Value, hcl.Diagnostics) {
	scope := ctx.NewChild()
	scope.Variables = map[string]cty.Value{}
	assigned := map[string]cty.Value{}
	result := cty.NilVal

	for _, st := range p.Statements {
		v, diags := st.Expr.Value(scope)
		if diags.HasErrors() {
			return cty.NilVal, nil, diags
		}
		if st.Target == "" {
			result = v
			continue
		}
		scope.Variables[st.Target] = v
		assigned[st.Target] = v
		result = cty.NilVal
	}
	return result, assigned, nil
}

// SetPath stores v in vars under path, merging with objects already present,
// so that `card.title` and `card.count` can live side by side.
func SetPath(vars map[string]cty.Value, path []string, v cty.Value) error {
	if len(path) == 0 {
		return fmt.Errorf("empty path")
	}
	existing, ok := vars[path[0]]
	if !ok {
		existing = cty.NilVal
	}
	merged, err := setIn(existing, path[1:], v)
	if err != nil {
		return fmt.Errorf("%s: %w", path[0], err)
	}
	vars[path[0]] = merged
	return nil
}

func setIn(base cty.Value, path []string, v cty.Value) (cty.Value, error) {
	if len(path) == 0 {
		return v, nil
	}
	attrs := map[string]cty.Value{}
	if base != cty.NilVal && !base.IsNull() {
		if !base.Type().IsObjectType() || !base.IsKnown() {
			return cty.NilVal, fmt.Errorf("cannot set %q on a %s value", path[0], base.Type().FriendlyName())
		}
		for k, av := range base.AsValueMap() {
			attrs[k] = av
		}
	}
	child, ok := attrs[path[0]]
	if !ok {
		child = cty.NilVal
	}
	nv, err := setIn(child, path[1:], v)
	if err != nil {
		return cty.NilVal, err
	}
	attrs[path[0]] = nv
	return cty.ObjectVal(attrs), nil
}
