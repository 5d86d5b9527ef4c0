package registry

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/quill/internal/ctxlog"
)

const tagName = "quill"

// inputField is one tagged field of a processor input struct.
type inputField struct {
	name     string
	index    int
	optional bool
	field    reflect.StructField
}

// inputFields lists the tagged fields of t.
func inputFields(t reflect.Type) []inputField {
	var out []inputField
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		parts := strings.Split(field.Tag.Get(tagName), ",")
		if parts[0] == "" || parts[0] == "-" {
			continue
		}
		f := inputField{name: parts[0], index: i, field: field}
		for _, opt := range parts[1:] {
			if opt == "optional" {
				f.optional = true
			}
		}
		out = append(out, f)
	}
	return out
}

// ValidateRegistry checks that every handler's input struct can be decoded
// from cty values.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	names := r.Names()
	sort.Strings(names)
	for _, name := range names {
		handler := r.HandlerRegistry[name]
		if handler.Fn == nil {
			errs = append(errs, fmt.Sprintf("processor '%s': handler has no function", name))
			continue
		}
		if handler.InputType == nil || handler.NewInput == nil {
			errs = append(errs, fmt.Sprintf("processor '%s': handler has no input struct", name))
			continue
		}
		if handler.InputType.Kind() != reflect.Struct {
			errs = append(errs, fmt.Sprintf("processor '%s': input type %s is not a struct", name, handler.InputType))
			continue
		}
		if got := reflect.TypeOf(handler.NewInput()); got != reflect.PointerTo(handler.InputType) {
			errs = append(errs, fmt.Sprintf("processor '%s': NewInput returns %s, want *%s", name, got, handler.InputType))
			continue
		}

		seen := map[string]bool{}
		for _, f := range inputFields(handler.InputType) {
			if seen[f.name] {
				errs = append(errs, fmt.Sprintf("processor '%s': argument '%s' is declared twice", name, f.name))
				continue
			}
			seen[f.name] = true
			if _, err := gocty.ImpliedType(reflect.Zero(f.field.Type).Interface()); err != nil {
				errs = append(errs, fmt.Sprintf("processor '%s', argument '%s': could not imply cty type from Go field type %s: %v", name, f.name, f.field.Type, err))
			}
		}
		if len(seen) == 0 {
			logger.Debug("Processor takes no arguments.", "processor", name)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}
