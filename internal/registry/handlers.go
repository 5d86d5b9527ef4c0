package registry

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/zclconf/go-cty/cty"
)

// RegisteredProcessor holds the compiled Go parts of a processor.
type RegisteredProcessor struct {
	// NewInput returns a pointer to a fresh input struct.
	NewInput func() any
	// InputType is the struct type NewInput points to.
	InputType reflect.Type
	Fn        func(ctx context.Context, input any) (cty.Value, error)
}

// RegisterProcessor registers a Go handler under name.
func (r *Registry) RegisterProcessor(name string, handler *RegisteredProcessor) {
	if _, exists := r.HandlerRegistry[name]; exists {
		panic(fmt.Sprintf("processor handler with name '%s' already registered", name))
	}
	slog.Debug("Registering processor handler.", "name", name)
	r.HandlerRegistry[name] = handler
}
