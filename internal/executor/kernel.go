package executor

import (
	"errors"
	"regexp"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/quill/internal/interpreter"
	"github.com/vk/quill/internal/nodeid"
)

// cssProperties maps kernel properties onto CSS properties.
var cssProperties = map[string]string{
	"padding":          "padding",
	"margin":           "margin",
	"spacing":          "gap",
	"width":            "width",
	"height":           "height",
	"color":            "color",
	"background-color": "background-color",
	"border-width":     "border-width",
	"border-color":     "border-color",
	"border-radius":    "border-radius",
	"text-align":       "text-align",
}

var plainNumberRe = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// kernel builds the render node of a kernel component from its bound
// arguments.
func (e *executor) kernel(comp *interpreter.Component, inv *interpreter.Invocation, f *frame, id *nodeid.Address) (*Node, error) {
	_, kind := interpreter.SplitName(comp.Name)
	n := &Node{
		Kind:         kind,
		Tag:          "div",
		ID:           id,
		Attrs:        map[string]string{},
		Style:        map[string]string{},
		Visible:      true,
		Dependencies: map[string][]string{},
		Formulas:     map[string]*Binding{},
	}

	switch kind {
	case "text", "integer", "decimal", "boolean":
		arg := "value"
		if kind == "text" {
			arg = "text"
		}
		r := f.args[arg]
		if r.value.IsNull() {
			return &Node{Kind: kind, ID: id, Null: true}, nil
		}
		text, err := Display(r.value)
		if err != nil {
			return nil, e.errorf(inv, "%s: %v", arg, err)
		}
		n.Text = &text
		n.track(TargetText, r)
	case "image":
		n.Tag = "img"
		n.setAttr("src", f.args["src"])
		n.setAttr("alt", f.args["alt"])
	case "row", "column":
		n.Style["display"] = "flex"
		n.Style["flex-direction"] = kind
	case "document":
		e.document(f)
	}

	for _, p := range interpreter.CommonProperties {
		r := f.args[p]
		switch p {
		case "id":
			n.setAttr("id", r)
		case "link":
			if !r.value.IsNull() {
				n.Tag = "a"
				n.setAttr("href", r)
			}
		case "classes":
			if !r.value.IsNull() {
				s, err := Display(r.value)
				if err != nil {
					return nil, e.errorf(inv, "property %q: %v", p, err)
				}
				n.Classes = strings.Fields(s)
				n.track(TargetClasses, r)
			}
		default:
			n.Style[cssProperties[p]] = NoValue
			if !r.value.IsNull() {
				s, err := Display(r.value)
				if err != nil {
					return nil, e.errorf(inv, "property %q: %v", p, err)
				}
				n.Style[cssProperties[p]] = CSSValue(s)
				n.track(StyleTarget(cssProperties[p]), r)
			}
		}
	}
	if open := f.args["open-in-new-tab"]; n.Tag == "a" && !open.value.IsNull() && open.value.True() {
		n.Attrs["target"] = "_blank"
	}

	if r, ok := f.args["children"]; ok {
		closure, ok := interpreter.ChildrenOf(r.value)
		if ok {
			cf, known := e.closures[closure]
			if !known {
				return nil, e.errorf(inv, "children of %q have no scope", comp.Name)
			}
			children, err := e.invocations(closure.Components, cf, id)
			if err != nil {
				return nil, err
			}
			n.Children = children
		}
	}
	return n, nil
}

// document copies the page settings of `ui.document` onto the tree.
func (e *executor) document(f *frame) {
	if v := f.args["title"].value; !v.IsNull() {
		s := v.AsString()
		e.tree.Title = &s
	}
	if v := f.args["og-title"].value; !v.IsNull() {
		s := v.AsString()
		e.tree.OGTitle = &s
	}
	if v := f.args["css"].value; !v.IsNull() {
		e.tree.CSS = append(e.tree.CSS, strings.Fields(v.AsString())...)
	}
	if v := f.args["js"].value; !v.IsNull() {
		e.tree.JS = append(e.tree.JS, strings.Fields(v.AsString())...)
	}
}

func (n *Node) setAttr(name string, r *resolved) {
	if r == nil || r.value.IsNull() {
		return
	}
	s, err := Display(r.value)
	if err != nil {
		return
	}
	n.Attrs[name] = s
	n.track(AttrTarget(name), r)
}

// track records the dependencies of a reactive target.
func (n *Node) track(target string, r *resolved) {
	if !r.reactive() {
		return
	}
	n.Dependencies[target] = r.deps
	n.Formulas[target] = bindingOf(r)
}

// Display renders a primitive value as text.
func Display(v cty.Value) (string, error) {
	if !v.IsWhollyKnown() {
		return "", errUnknownValue
	}
	switch {
	case v.Type().Equals(cty.String):
		return v.AsString(), nil
	case v.Type().Equals(cty.Number):
		return v.AsBigFloat().Text('f', -1), nil
	case v.Type().Equals(cty.Bool):
		if v.True() {
			return "true", nil
		}
		return "false", nil
	}
	return "", &displayError{typ: v.Type()}
}

var errUnknownValue = errors.New("cannot display a value that is not known yet")

type displayError struct {
	typ cty.Type
}

func (e *displayError) Error() string {
	return "cannot display a " + e.typ.FriendlyName()
}

// CSSValue adds the `px` unit to plain numbers.
func CSSValue(s string) string {
	s = strings.TrimSpace(s)
	if plainNumberRe.MatchString(s) {
		return s + "px"
	}
	return s
}
