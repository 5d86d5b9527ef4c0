package registry

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/quill/internal/app"
	"github.com/vk/quill/internal/ctxlog"
)

// Run decodes args into the handler's input struct and calls it. Unknown
// arguments and missing required ones are errors.
func (r *Registry) Run(ctx context.Context, name string, args map[string]string) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx)
	handler, ok := r.HandlerRegistry[name]
	if !ok {
		return cty.NilVal, fmt.Errorf("no processor named %q", name)
	}

	input, err := decodeInput(handler, args)
	if err != nil {
		return cty.NilVal, fmt.Errorf("processor %q: %w", name, err)
	}

	logger.Debug("Processor starting.", "processor", name)
	v, err := handler.Fn(ctx, input)
	if err != nil {
		return cty.NilVal, fmt.Errorf("processor %q: %w", name, err)
	}
	logger.Debug("Processor finished.", "processor", name, "type", v.Type().FriendlyName())
	return v, nil
}

// RunProcessor lets the registry answer processor calls directly: a
// document's processor name is the handler name.
func (r *Registry) RunProcessor(ctx context.Context, req *app.ProcessorRequest) (cty.Value, error) {
	return r.Run(ctx, req.Processor, req.Args)
}

func decodeInput(handler *RegisteredProcessor, args map[string]string) (any, error) {
	input := handler.NewInput()
	target := reflect.ValueOf(input).Elem()

	known := map[string]bool{}
	for _, f := range inputFields(handler.InputType) {
		known[f.name] = true
		raw, ok := args[f.name]
		if !ok {
			if !f.optional {
				return nil, fmt.Errorf("missing required argument %q", f.name)
			}
			continue
		}
		ty, err := gocty.ImpliedType(reflect.Zero(f.field.Type).Interface())
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", f.name, err)
		}
		v, err := convert.Convert(cty.StringVal(raw), ty)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", f.name, err)
		}
		if err := gocty.FromCtyValue(v, target.Field(f.index).Addr().Interface()); err != nil {
			return nil, fmt.Errorf("argument %q: %w", f.name, err)
		}
	}

	var unknown []string
	for name := range args {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown arguments %s", strings.Join(unknown, ", "))
	}
	return input, nil
}
