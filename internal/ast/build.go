// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file maps sections onto nodes. There is one builder per node type and
// each returns at most one diagnostic; the first malformed construct aborts the
// section.
package ast

import (
	"regexp"
	"strings"

	"github.com/vk/quill/internal/diag"
	"github.com/vk/quill/internal/section"
)

// Special header keys.
const (
	HeaderIf        = "if"
	HeaderLoop      = "$loop$"
	HeaderProcessor = "$processor$"
)

var (
	eventHeaderRe = regexp.MustCompile(`^\$on-(.+)\$$`)
	loopRe        = regexp.MustCompile(`^(\$?[A-Za-z_][\w.#-]*)\s+as\s+\$?([A-Za-z_][\w-]*)$`)
	importRe      = regexp.MustCompile(`^(\S+)(?:\s+as\s+([A-Za-z_][\w-]*))?$`)
	identRe       = regexp.MustCompile(`^[A-Za-z_][\w-]*$`)
)

// FromSections builds every top-level section of a document.
func FromSections(docID string, sections []*section.Section) ([]Node, error) {
	nodes := make([]Node, 0, len(sections))
	for _, s := range sections {
		n, err := FromSection(s, docID)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// FromSection builds a single top-level section.
func FromSection(s *section.Section, docID string) (Node, error) {
	b := &builder{docID: docID}
	switch {
	case s.Name == "import" && s.Kind == "":
		return b.importNode(s)
	case s.Kind == "record":
		return b.record(s)
	case s.Kind == "or-type":
		return b.orType(s)
	case s.Kind == "component":
		return b.componentDefinition(s)
	case strings.Contains(s.Name, "("):
		return b.function(s)
	case s.Kind != "":
		return b.variable(s)
	default:
		return b.invocation(s)
	}
}

type builder struct {
	docID string
}

func (b *builder) errorf(line int, format string, args ...any) error {
	return diag.AST(b.docID, line, format, args...)
}

func (b *builder) importNode(s *section.Section) (*Import, error) {
	m := importRe.FindStringSubmatch(s.CaptionValue())
	if m == nil {
		return nil, b.errorf(s.Line, "import expects 'path [as alias]', found %q", s.CaptionValue())
	}
	if len(s.Headers) > 0 || s.Body != nil || len(s.SubSections) > 0 {
		return nil, b.errorf(s.Line, "import %q cannot have headers, body or sub-sections", m[1])
	}
	alias := m[2]
	if alias == "" {
		alias = m[1][strings.LastIndex(m[1], "/")+1:]
	}
	return &Import{Module: m[1], Alias: alias, Line: s.Line}, nil
}

func (b *builder) record(s *section.Section) (*RecordDefinition, error) {
	if s.Caption != nil || s.Body != nil || len(s.SubSections) > 0 {
		return nil, b.errorf(s.Line, "record %q can only declare fields", s.Name)
	}
	fields, err := b.fields(s.Headers, "record "+s.Name)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if f.Mutable {
			return nil, b.errorf(f.Line, "record field %q cannot be mutable", f.Name)
		}
	}
	return &RecordDefinition{Name: s.Name, Fields: fields, Line: s.Line}, nil
}

func (b *builder) orType(s *section.Section) (*OrTypeDefinition, error) {
	if len(s.Headers) > 0 || s.Caption != nil || s.Body != nil {
		return nil, b.errorf(s.Line, "or-type %q can only declare variants as sub-sections", s.Name)
	}
	if len(s.SubSections) == 0 {
		return nil, b.errorf(s.Line, "or-type %q has no variants", s.Name)
	}
	def := &OrTypeDefinition{Name: s.Name, Line: s.Line}
	seen := map[string]bool{}
	for _, sub := range s.SubSections {
		if !identRe.MatchString(sub.Name) {
			return nil, b.errorf(sub.Line, "invalid variant name %q", sub.Name)
		}
		if seen[sub.Name] {
			return nil, b.errorf(sub.Line, "variant %q is declared twice in or-type %q", sub.Name, s.Name)
		}
		seen[sub.Name] = true
		v := &Variant{Name: sub.Name, Line: sub.Line}
		if sub.Kind != "" {
			k, err := ParseKind(sub.Kind)
			if err != nil {
				return nil, b.errorf(sub.Line, "%v", err)
			}
			v.Kind = &k
		}
		def.Variants = append(def.Variants, v)
	}
	return def, nil
}

func (b *builder) componentDefinition(s *section.Section) (*ComponentDefinition, error) {
	if s.Caption != nil || s.Body != nil {
		return nil, b.errorf(s.Line, "component definition %q cannot have a caption or body", s.Name)
	}
	if len(s.SubSections) != 1 {
		return nil, b.errorf(s.Line, "component %q must have exactly one root component, found %d", s.Name, len(s.SubSections))
	}
	args, err := b.fields(s.Headers, "component "+s.Name)
	if err != nil {
		return nil, err
	}
	root, err := b.invocation(s.SubSections[0])
	if err != nil {
		return nil, err
	}
	return &ComponentDefinition{Name: s.Name, Arguments: args, Root: root, Line: s.Line}, nil
}

func (b *builder) function(s *section.Section) (*FunctionDefinition, error) {
	open := strings.Index(s.Name, "(")
	if !strings.HasSuffix(s.Name, ")") {
		return nil, b.errorf(s.Line, "function %q: parameter list is not closed", s.Name)
	}
	name := s.Name[:open]
	if !identRe.MatchString(name) {
		return nil, b.errorf(s.Line, "invalid function name %q", name)
	}
	def := &FunctionDefinition{Name: name, Line: s.Line}

	if s.Kind != "" && s.Kind != "void" {
		k, err := ParseKind(s.Kind)
		if err != nil {
			return nil, b.errorf(s.Line, "function %q: %v", name, err)
		}
		def.ReturnKind = &k
	}

	fields, err := b.fields(s.Headers, "function "+name)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	var params []string
	if inner := strings.TrimSpace(s.Name[open+1 : len(s.Name)-1]); inner != "" {
		for _, p := range strings.Split(inner, ",") {
			params = append(params, strings.TrimPrefix(strings.TrimSpace(p), "$"))
		}
	}
	for _, p := range params {
		f, ok := byName[p]
		if !ok {
			return nil, b.errorf(s.Line, "function %q: parameter %q has no typed header", name, p)
		}
		def.Params = append(def.Params, f)
		delete(byName, p)
	}
	for _, f := range fields {
		if _, extra := byName[f.Name]; extra {
			return nil, b.errorf(f.Line, "function %q: header %q is not a parameter", name, f.Name)
		}
	}

	if s.Body == nil || strings.TrimSpace(s.Body.Value) == "" {
		return nil, b.errorf(s.Line, "function %q has no body", name)
	}
	if len(s.SubSections) > 0 {
		return nil, b.errorf(s.Line, "function %q cannot have sub-sections", name)
	}
	def.Body = s.Body.Value
	def.BodyLine = s.Body.Line
	return def, nil
}

func (b *builder) variable(s *section.Section) (*VariableDefinition, error) {
	name, mutable := strings.CutPrefix(s.Name, "$")
	if !identRe.MatchString(name) {
		return nil, b.errorf(s.Line, "invalid variable name %q", s.Name)
	}
	k, err := ParseKind(s.Kind)
	if err != nil {
		return nil, b.errorf(s.Line, "variable %q: %v", name, err)
	}
	v, err := b.variableValue(s, k)
	if err != nil {
		return nil, err
	}
	v.Name = name
	v.Mutable = mutable
	return v, nil
}

// variableValue fills in the value parts shared by top-level variables and list
// items.
func (b *builder) variableValue(s *section.Section, k Kind) (*VariableDefinition, error) {
	v := &VariableDefinition{Kind: k, Line: s.Line}

	switch {
	case s.Caption != nil && s.Body != nil:
		return nil, b.errorf(s.Line, "%q has both a caption and a body value", s.Name)
	case s.Caption != nil:
		v.Value = &Property{Source: SourceCaption, Value: s.Caption, Line: s.Line}
	case s.Body != nil:
		body := s.Body.Value
		v.Value = &Property{Source: SourceBody, Value: &body, Line: s.Body.Line}
	}

	for _, h := range s.Headers {
		if h.Key == HeaderProcessor {
			if h.Value == nil {
				return nil, b.errorf(h.Line, "%s needs a processor name", HeaderProcessor)
			}
			v.Processor = *h.Value
			continue
		}
		p, err := b.property(h)
		if err != nil {
			return nil, err
		}
		if p.Condition != nil {
			return nil, b.errorf(h.Line, "conditions are not allowed on variable %q", s.Name)
		}
		v.Properties = append(v.Properties, p)
	}

	if len(s.SubSections) > 0 && !k.List {
		return nil, b.errorf(s.Line, "only list variables can have sub-sections")
	}
	for _, sub := range s.SubSections {
		ik, err := ParseKind(sub.Name)
		if err != nil {
			return nil, b.errorf(sub.Line, "list item: %v", err)
		}
		item, err := b.variableValue(sub, ik)
		if err != nil {
			return nil, err
		}
		v.Items = append(v.Items, item)
	}
	if v.Processor != "" && (v.Value != nil || len(v.Items) > 0) {
		return nil, b.errorf(s.Line, "a processor variable cannot also have a literal value")
	}
	return v, nil
}

func (b *builder) invocation(s *section.Section) (*ComponentInvocation, error) {
	if s.Kind != "" {
		return nil, b.errorf(s.Line, "component invocation %q cannot have a kind", s.Name)
	}
	inv := &ComponentInvocation{Name: s.Name, Line: s.Line}

	if s.Caption != nil {
		inv.Properties = append(inv.Properties, &Property{Source: SourceCaption, Value: s.Caption, Line: s.Line})
	}
	if s.Body != nil {
		body := s.Body.Value
		inv.Properties = append(inv.Properties, &Property{Source: SourceBody, Value: &body, Line: s.Body.Line})
	}

	for _, h := range s.Headers {
		switch {
		case h.Key == HeaderIf:
			if inv.Condition != nil {
				return nil, b.errorf(h.Line, "%q has more than one 'if' header", s.Name)
			}
			expr := strings.TrimSpace(h.ValueString())
			expr = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(expr, "{"), "}"))
			if expr == "" {
				return nil, b.errorf(h.Line, "empty condition on %q", s.Name)
			}
			inv.Condition = &Condition{Expression: expr, Line: h.Line}
		case h.Key == HeaderLoop:
			m := loopRe.FindStringSubmatch(strings.TrimSpace(h.ValueString()))
			if m == nil {
				return nil, b.errorf(h.Line, "loop expects '$list as $alias', found %q", h.ValueString())
			}
			inv.Loop = &Loop{On: m[1], Alias: m[2], Line: h.Line}
		case eventHeaderRe.MatchString(h.Key):
			if h.Value == nil {
				return nil, b.errorf(h.Line, "event %q has no action", h.Key)
			}
			name := eventHeaderRe.FindStringSubmatch(h.Key)[1]
			inv.Events = append(inv.Events, &Event{Name: name, Action: *h.Value, Line: h.Line})
		case h.Key == HeaderProcessor:
			return nil, b.errorf(h.Line, "%s is only valid on variables", HeaderProcessor)
		default:
			p, err := b.property(h)
			if err != nil {
				return nil, err
			}
			inv.Properties = append(inv.Properties, p)
		}
	}

	for _, sub := range s.SubSections {
		child, err := b.invocation(sub)
		if err != nil {
			return nil, err
		}
		inv.Children = append(inv.Children, child)
	}
	return inv, nil
}

func (b *builder) property(h *section.Header) (*Property, error) {
	p := &Property{Key: h.Key, Value: h.Value, Line: h.Line}
	if h.Condition != "" {
		p.Condition = &Condition{Expression: h.Condition, Line: h.Line}
	}
	if h.Type == section.HeaderSection {
		p.Source = SourceSubsection
		for _, sub := range h.Sections {
			child, err := b.invocation(sub)
			if err != nil {
				return nil, err
			}
			p.Children = append(p.Children, child)
		}
	}
	return p, nil
}

// fields turns typed headers into declarations. A header without a kind is an
// error.
func (b *builder) fields(headers []*section.Header, owner string) ([]*Field, error) {
	fields := make([]*Field, 0, len(headers))
	seen := map[string]bool{}
	for _, h := range headers {
		if h.Kind == "" {
			return nil, b.errorf(h.Line, "%s: header %q has no kind", owner, h.Key)
		}
		if h.Condition != "" {
			return nil, b.errorf(h.Line, "%s: declaration %q cannot be conditional", owner, h.Key)
		}
		k, err := ParseKind(h.Kind)
		if err != nil {
			return nil, b.errorf(h.Line, "%s: %v", owner, err)
		}
		name, mutable := strings.CutPrefix(h.Key, "$")
		if !identRe.MatchString(name) {
			return nil, b.errorf(h.Line, "%s: invalid name %q", owner, h.Key)
		}
		if seen[name] {
			return nil, b.errorf(h.Line, "%s: %q is declared twice", owner, name)
		}
		seen[name] = true

		f := &Field{Name: name, Kind: k, Mutable: mutable, Line: h.Line}
		if h.Value != nil || len(h.Sections) > 0 {
			def, err := b.property(h)
			if err != nil {
				return nil, err
			}
			f.Default = def
		}
		fields = append(fields, f)
	}
	return fields, nil
}
