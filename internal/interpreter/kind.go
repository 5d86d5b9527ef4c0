package interpreter

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/quill/internal/ast"
)

// Kind is a resolved kind: the annotation plus the value type it maps to.
// Name is a builtin name or the fully-qualified name of a record or or-type.
type Kind struct {
	Name     string
	List     bool
	Optional bool
	Caption  bool
	Body     bool
	Type     cty.Type
}

// Element returns the kind of a single list item.
func (k Kind) Element() Kind {
	e := k
	e.List = false
	e.Optional = false
	if k.List && k.Type.IsListType() {
		e.Type = k.Type.ElementType()
	}
	return e
}

// IsChildren reports whether values of this kind are component closures.
func (k Kind) IsChildren() bool {
	return k.Name == ast.KindChildren
}

func (k Kind) String() string {
	return ast.Kind{Name: k.Name, List: k.List, Optional: k.Optional, Caption: k.Caption, Body: k.Body}.String()
}

// Children is the value of a `children` argument: the component invocations
// written at the call site.
type Children struct {
	Components []*Invocation
}

// ChildrenType is the capsule type holding *Children values.
var ChildrenType = cty.Capsule("children", reflect.TypeOf(Children{}))

// ChildrenVal wraps c as a value.
func ChildrenVal(c *Children) cty.Value {
	return cty.CapsuleVal(ChildrenType, c)
}

// ChildrenOf unwraps a children value. A null value yields nil.
func ChildrenOf(v cty.Value) (*Children, bool) {
	if v.IsNull() || !v.Type().Equals(ChildrenType) {
		return nil, false
	}
	return v.EncapsulatedValue().(*Children), true
}

// OrTypeValueType is the value type of every or-type: the variant name plus
// the payload rendered as a string.
var OrTypeValueType = cty.Object(map[string]cty.Type{
	"variant": cty.String,
	"value":   cty.String,
})

func builtinType(name string) (cty.Type, bool) {
	switch name {
	case ast.KindString:
		return cty.String, true
	case ast.KindInteger, ast.KindDecimal:
		return cty.Number, true
	case ast.KindBoolean:
		return cty.Bool, true
	case ast.KindChildren:
		return ChildrenType, true
	}
	return cty.NilType, false
}

// recordType builds the object type of a record.
func recordType(r *Record) cty.Type {
	attrs := make(map[string]cty.Type, len(r.Fields))
	for _, f := range r.Fields {
		attrs[f.Name] = f.Kind.Type
	}
	return cty.Object(attrs)
}

// parseLiteral converts source text to a value of kind k. Records and lists
// are not written as literal text, except a record with a caption field.
func (b *Bag) parseLiteral(text string, k Kind) (cty.Value, error) {
	if k.List {
		return cty.NilVal, fmt.Errorf("a %s cannot be written as literal text", k)
	}
	switch k.Name {
	case ast.KindString:
		return cty.StringVal(text), nil
	case ast.KindInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return cty.NilVal, fmt.Errorf("%q is not an integer", text)
		}
		return cty.NumberIntVal(n), nil
	case ast.KindDecimal:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return cty.NilVal, fmt.Errorf("%q is not a decimal", text)
		}
		return cty.NumberFloatVal(f), nil
	case ast.KindBoolean:
		switch strings.TrimSpace(text) {
		case "true":
			return cty.True, nil
		case "false":
			return cty.False, nil
		}
		return cty.NilVal, fmt.Errorf("%q is not a boolean", text)
	case ast.KindChildren:
		return cty.NilVal, fmt.Errorf("children cannot be written as literal text")
	}

	switch t := b.things[k.Name].(type) {
	case *OrType:
		return b.parseOrTypeLiteral(t, strings.TrimSpace(text))
	case *Record:
		for _, f := range t.Fields {
			if f.Kind.Caption {
				fv, err := b.parseLiteral(text, f.Kind)
				if err != nil {
					return cty.NilVal, err
				}
				return b.recordValue(t, map[string]cty.Value{f.Name: fv})
			}
		}
		return cty.NilVal, fmt.Errorf("record %s has no caption field and cannot be written as text", t.Name)
	}
	return cty.NilVal, fmt.Errorf("unknown kind %q", k.Name)
}

// parseOrTypeLiteral parses `variant` or `variant(payload)`.
func (b *Bag) parseOrTypeLiteral(t *OrType, text string) (cty.Value, error) {
	name, payload, hasPayload := text, "", false
	if i := strings.Index(text, "("); i >= 0 && strings.HasSuffix(text, ")") {
		name, payload, hasPayload = strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+1:len(text)-1]), true
	}
	for _, v := range t.Variants {
		if v.Name != name {
			continue
		}
		switch {
		case v.Kind == nil && hasPayload:
			return cty.NilVal, fmt.Errorf("variant %s.%s takes no value", t.Name, name)
		case v.Kind == nil:
			return orTypeVal(name, ""), nil
		case !hasPayload:
			return cty.NilVal, fmt.Errorf("variant %s.%s needs a %s value", t.Name, name, v.Kind)
		}
		pv, err := b.parseLiteral(payload, *v.Kind)
		if err != nil {
			return cty.NilVal, fmt.Errorf("variant %s.%s: %w", t.Name, name, err)
		}
		s, err := convert.Convert(pv, cty.String)
		if err != nil {
			return cty.NilVal, fmt.Errorf("variant %s.%s: %w", t.Name, name, err)
		}
		return orTypeVal(name, s.AsString()), nil
	}
	return cty.NilVal, fmt.Errorf("%q is not a variant of %s", name, t.Name)
}

func orTypeVal(variant, value string) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"variant": cty.StringVal(variant),
		"value":   cty.StringVal(value),
	})
}

// recordValue fills a record from the given field values, applying defaults.
// Optional fields without a value are null and list fields are empty.
func (b *Bag) recordValue(r *Record, given map[string]cty.Value) (cty.Value, error) {
	attrs := make(map[string]cty.Value, len(r.Fields))
	for name := range given {
		if _, ok := r.Field(name); !ok {
			return cty.NilVal, fmt.Errorf("record %s has no field %q", r.Name, name)
		}
	}
	for _, f := range r.Fields {
		v, ok := given[f.Name]
		switch {
		case ok:
		case f.DefaultData != cty.NilVal:
			v = f.DefaultData
		case f.Kind.List:
			v = cty.ListValEmpty(f.Kind.Element().Type)
		case f.Kind.Optional:
			v = cty.NullVal(f.Kind.Type)
		default:
			return cty.NilVal, fmt.Errorf("record %s: missing value for field %q", r.Name, f.Name)
		}
		cv, err := convert.Convert(v, f.Kind.Type)
		if err != nil {
			return cty.NilVal, fmt.Errorf("record %s field %q: %w", r.Name, f.Name, err)
		}
		attrs[f.Name] = cv
	}
	if len(attrs) == 0 {
		return cty.EmptyObjectVal, nil
	}
	return cty.ObjectVal(attrs), nil
}

// assignable reports whether a value of type from may be used where k is
// expected, using safe cty conversions only.
func assignable(from cty.Type, k Kind) bool {
	if from.Equals(cty.DynamicPseudoType) || k.Type.Equals(cty.DynamicPseudoType) {
		return true
	}
	if from.Equals(k.Type) {
		return true
	}
	return convert.GetConversion(from, k.Type) != nil
}
