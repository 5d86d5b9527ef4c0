package print

import (
	"context"
	"reflect"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/quill/internal/ctxlog"
	"github.com/vk/quill/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of the 'print' processor.
type Input struct {
	Value string  `quill:"value"`
	Label *string `quill:"label,optional"`
}

// OnRunPrint is the handler for the 'print' processor. It logs its value and
// returns it unchanged.
func OnRunPrint(ctx context.Context, input any) (cty.Value, error) {
	in := input.(*Input)
	label := "print"
	if in.Label != nil {
		label = *in.Label
	}
	ctxlog.FromContext(ctx).Info("Printing value.", "label", label, "value", in.Value)
	return cty.StringVal(in.Value), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterProcessor("print", &registry.RegisteredProcessor{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        OnRunPrint,
	})
}
