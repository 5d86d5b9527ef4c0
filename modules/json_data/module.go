// Package json_data provides the 'json' processor, which loads structured data
// from a JSON file or an inline JSON text.
package json_data

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/quill/internal/ctxlog"
	"github.com/vk/quill/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of the 'json' processor. Exactly one of Path
// and Text is set.
type Input struct {
	Path *string `quill:"path,optional"`
	Text *string `quill:"text,optional"`
}

// OnRunJSON is the handler for the 'json' processor.
func OnRunJSON(ctx context.Context, input any) (cty.Value, error) {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx)

	var data []byte
	switch {
	case in.Path != nil && in.Text != nil:
		return cty.NilVal, errors.New("path and text are mutually exclusive")
	case in.Path != nil:
		b, err := os.ReadFile(*in.Path)
		if err != nil {
			return cty.NilVal, fmt.Errorf("reading %s: %w", *in.Path, err)
		}
		logger.Debug("Loaded JSON file.", "path", *in.Path, "bytes", len(b))
		data = b
	case in.Text != nil:
		data = []byte(*in.Text)
	default:
		return cty.NilVal, errors.New("one of path or text is required")
	}

	ty, err := ctyjson.ImpliedType(data)
	if err != nil {
		return cty.NilVal, fmt.Errorf("decoding JSON: %w", err)
	}
	v, err := ctyjson.Unmarshal(data, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("decoding JSON: %w", err)
	}
	return v, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterProcessor("json", &registry.RegisteredProcessor{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        OnRunJSON,
	})
}
