package env_vars

import (
	"context"
	"os"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/quill/internal/ctxlog"
	"github.com/vk/quill/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of the 'env' processor.
type Input struct {
	// Name selects one variable. Without it the whole environment is
	// returned as a map.
	Name    *string `quill:"name,optional"`
	Default *string `quill:"default,optional"`
}

// OnRunEnv is the handler for the 'env' processor.
func OnRunEnv(ctx context.Context, input any) (cty.Value, error) {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx)

	if in.Name == nil {
		envMap := make(map[string]cty.Value)
		for _, e := range os.Environ() {
			pair := strings.SplitN(e, "=", 2)
			if len(pair) == 2 {
				envMap[pair[0]] = cty.StringVal(pair[1])
			}
		}
		logger.Debug("Returning the whole environment.", "count", len(envMap))
		if len(envMap) == 0 {
			return cty.MapValEmpty(cty.String), nil
		}
		return cty.MapVal(envMap), nil
	}

	if v, ok := os.LookupEnv(*in.Name); ok {
		return cty.StringVal(v), nil
	}
	if in.Default != nil {
		logger.Debug("Environment variable is unset, using default.", "name", *in.Name)
		return cty.StringVal(*in.Default), nil
	}
	logger.Warn("Environment variable is unset.", "name", *in.Name)
	return cty.NullVal(cty.String), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterProcessor("env", &registry.RegisteredProcessor{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        OnRunEnv,
	})
}
