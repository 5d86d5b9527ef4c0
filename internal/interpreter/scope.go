package interpreter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/quill/internal/expr"
)

var referenceRe = regexp.MustCompile(`^\$[A-Za-z_][\w-]*(\.[A-Za-z_][\w-]*|\[\d+\])*$`)

// scope is the name environment of the node being processed.
type scope struct {
	c   *Continuation
	doc *docState

	// component is set while processing a component body.
	component *Component
	// loops holds the aliases in scope, innermost last.
	loops []loopAlias
}

type loopAlias struct {
	alias string
	kind  Kind
}

func (s *scope) withLoop(alias string, k Kind) *scope {
	n := *s
	n.loops = append(append([]loopAlias{}, s.loops...), loopAlias{alias: alias, kind: k})
	return &n
}

// resolve maps a source path onto a fully-qualified name. The lookup order is
// loop alias, component argument, document, import alias and finally the
// kernel.
func (s *scope) resolve(path []string, line int) (Binding, error) {
	root := path[0]

	for i := len(s.loops) - 1; i >= 0; i-- {
		if s.loops[i].alias == root {
			return Binding{Source: path[:1], Name: LoopName(root)}, nil
		}
	}

	if s.component != nil && root == shortName(s.component.Name) {
		if len(path) < 2 {
			return Binding{}, s.errorf(line, "component %q cannot be used as a value", root)
		}
		if _, ok := s.component.Argument(path[1]); !ok {
			return Binding{}, s.errorf(line, "component %q has no argument %q", root, path[1])
		}
		return Binding{Source: path[:2], Name: s.component.Name + "." + path[1]}, nil
	}

	local := QualifiedName(s.doc.ID, root)
	if _, ok := s.doc.Declared[root]; ok {
		if _, defined := s.c.Bag.Get(local); !defined {
			return Binding{}, s.errorf(line, "%q is used before its definition", root)
		}
		return Binding{Source: path[:1], Name: local}, nil
	}
	if s.doc.Foreign[root] {
		if _, ok := s.c.Bag.Get(local); ok {
			return Binding{Source: path[:1], Name: local}, nil
		}
		return Binding{}, &suspension{state: &StuckOnForeignVariable{Module: s.doc.ID, Variable: root, Continuation: s.c}}
	}

	if module, ok := s.doc.Aliases[root]; ok {
		if len(path) < 2 {
			return Binding{}, s.errorf(line, "import alias %q cannot be used as a value", root)
		}
		fq := QualifiedName(module, path[1])
		if _, ok := s.c.Bag.Get(fq); ok {
			return Binding{Source: path[:2], Name: fq}, nil
		}
		if md, ok := s.c.Docs[module]; ok && md.Foreign[path[1]] {
			return Binding{}, &suspension{state: &StuckOnForeignVariable{Module: module, Variable: path[1], Continuation: s.c}}
		}
		return Binding{}, s.errorf(line, "module %q has no %q", module, path[1])
	}

	if root == KernelModule && len(path) >= 2 {
		fq := QualifiedName(KernelModule, path[1])
		if _, ok := s.c.Bag.Get(fq); ok {
			return Binding{Source: path[:2], Name: fq}, nil
		}
		return Binding{}, s.errorf(line, "the kernel has no %q", path[1])
	}

	return Binding{}, s.errorf(line, "unresolved name %q", strings.Join(path, "."))
}

// resolveName resolves a dotted name such as `ui.text` or `lib.card` that
// must consume the whole path.
func (s *scope) resolveName(name string, line int) (string, error) {
	path := strings.Split(name, ".")
	b, err := s.resolve(path, line)
	if err != nil {
		return "", err
	}
	if len(b.Source) != len(path) {
		return "", s.errorf(line, "%q does not name a definition", name)
	}
	return b.Name, nil
}

// kindOf returns the kind of the value a binding names.
func (s *scope) kindOf(b Binding, line int) (Kind, error) {
	if strings.HasPrefix(b.Name, "$loop$#") {
		alias := strings.TrimPrefix(b.Name, "$loop$#")
		for i := len(s.loops) - 1; i >= 0; i-- {
			if s.loops[i].alias == alias {
				return s.loops[i].kind, nil
			}
		}
	}
	if s.component != nil && strings.HasPrefix(b.Name, s.component.Name+".") {
		arg, _ := s.component.Argument(strings.TrimPrefix(b.Name, s.component.Name+"."))
		return arg.Kind, nil
	}
	switch t, _ := s.c.Bag.Get(b.Name); t := t.(type) {
	case *Variable:
		return t.Kind, nil
	case nil:
		return Kind{}, s.errorf(line, "%q is not defined", b.Name)
	default:
		return Kind{}, s.errorf(line, "%q is not a value", b.Name)
	}
}

// reference resolves a `$path` header value.
func (s *scope) reference(text string, line int) (*Reference, error) {
	trav, diags := parseTraversal(strings.TrimPrefix(text, "$"), line)
	if diags.HasErrors() {
		return nil, s.errorf(line, "invalid reference %q: %s", text, diags.Error())
	}
	names, rest := expr.TraversalPath(trav)
	b, err := s.resolve(names, line)
	if err != nil {
		return nil, err
	}
	k, err := s.kindOf(b, line)
	if err != nil {
		return nil, err
	}
	rest = append(traversalOf(names[len(b.Source):]), rest...)
	if len(rest) > 0 {
		if k.IsChildren() {
			return nil, s.errorf(line, "cannot access a field of children value %q", text)
		}
		v, err := traverse(cty.UnknownVal(k.Type), rest)
		if err != nil {
			return nil, s.errorf(line, "invalid reference %q: %v", text, err)
		}
		k = Kind{Name: friendlyKindName(v.Type()), Type: v.Type(), List: v.Type().IsListType()}
	}
	return &Reference{Binding: b, Rest: rest, Kind: k, Line: line}, nil
}

func (s *scope) errorf(line int, format string, args ...any) error {
	return interpError(s.doc.ID, line, format, args...)
}

func parseTraversal(src string, line int) (hcl.Traversal, hcl.Diagnostics) {
	return hclsyntax.ParseTraversalAbs([]byte(src), "reference", hcl.Pos{Line: line, Column: 1})
}

func traversalOf(names []string) hcl.Traversal {
	var t hcl.Traversal
	for _, n := range names {
		t = append(t, hcl.TraverseAttr{Name: n})
	}
	return t
}

func shortName(fq string) string {
	_, name := SplitName(fq)
	return name
}

func friendlyKindName(t cty.Type) string {
	switch {
	case t.Equals(cty.String):
		return "string"
	case t.Equals(cty.Number):
		return "decimal"
	case t.Equals(cty.Bool):
		return "boolean"
	case t.IsListType():
		return friendlyKindName(t.ElementType())
	default:
		return t.FriendlyName()
	}
}

// suspension unwinds processing when a node needs external input.
type suspension struct {
	state State
}

func (s *suspension) Error() string {
	return fmt.Sprintf("suspended: %T", s.state)
}
