package app

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// ImportResolver supplies the source of an imported module. A nil source is
// an empty module. foreign names the variables the module provides through
// the ForeignVariableResolver.
type ImportResolver interface {
	ResolveImport(ctx context.Context, module string) (source *string, foreign []string, err error)
}

// ProcessorRequest describes one processor call found in a document.
type ProcessorRequest struct {
	Module    string
	Processor string
	Variable  string
	Args      map[string]string
	Line      int
}

// ProcessorRunner runs processor calls. The result is converted to the
// variable's declared kind by the interpreter.
type ProcessorRunner interface {
	RunProcessor(ctx context.Context, req *ProcessorRequest) (cty.Value, error)
}

// ForeignVariableResolver supplies the values of foreign variables.
type ForeignVariableResolver interface {
	ResolveVariable(ctx context.Context, module, variable string) (cty.Value, error)
}

// ImportFunc adapts a function to ImportResolver.
type ImportFunc func(ctx context.Context, module string) (*string, []string, error)

func (f ImportFunc) ResolveImport(ctx context.Context, module string) (*string, []string, error) {
	return f(ctx, module)
}

// ProcessorFunc adapts a function to ProcessorRunner.
type ProcessorFunc func(ctx context.Context, req *ProcessorRequest) (cty.Value, error)

func (f ProcessorFunc) RunProcessor(ctx context.Context, req *ProcessorRequest) (cty.Value, error) {
	return f(ctx, req)
}

// ForeignFunc adapts a function to ForeignVariableResolver.
type ForeignFunc func(ctx context.Context, module, variable string) (cty.Value, error)

func (f ForeignFunc) ResolveVariable(ctx context.Context, module, variable string) (cty.Value, error) {
	return f(ctx, module, variable)
}

// Resolvers answers the interpreter's questions. A nil resolver answers
// "absent": an empty module, or a null value.
type Resolvers struct {
	Imports    ImportResolver
	Processors ProcessorRunner
	Foreign    ForeignVariableResolver
}

func (r Resolvers) resolveImport(ctx context.Context, module string) (*string, []string, error) {
	if r.Imports == nil {
		return nil, nil, nil
	}
	return r.Imports.ResolveImport(ctx, module)
}

func (r Resolvers) runProcessor(ctx context.Context, req *ProcessorRequest) (cty.Value, error) {
	if r.Processors == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	return r.Processors.RunProcessor(ctx, req)
}

func (r Resolvers) resolveVariable(ctx context.Context, module, variable string) (cty.Value, error) {
	if r.Foreign == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	return r.Foreign.ResolveVariable(ctx, module, variable)
}
