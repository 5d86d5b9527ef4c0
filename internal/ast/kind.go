// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file parses kind annotations such as `optional string list` or
// `caption or body`. The result is still a name; the interpreter maps it to a
// concrete value type once records and or-types are known.
package ast

import (
	"fmt"
	"strings"
)

// Builtin kind names.
const (
	KindString   = "string"
	KindInteger  = "integer"
	KindDecimal  = "decimal"
	KindBoolean  = "boolean"
	KindChildren = "children"
)

// Kind is a parsed kind annotation.
type Kind struct {
	Name     string
	List     bool
	Optional bool
	Caption  bool
	Body     bool
}

// ParseKind parses `[optional] [caption [or body] | body] [name] [list]`. A bare
// `caption` or `body` modifier implies `string`.
func ParseKind(text string) (Kind, error) {
	var k Kind
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return k, fmt.Errorf("kind is missing")
	}

	if tokens[0] == "optional" {
		k.Optional = true
		tokens = tokens[1:]
	}
	if len(tokens) > 0 && tokens[len(tokens)-1] == "list" {
		k.List = true
		tokens = tokens[:len(tokens)-1]
	}

	for len(tokens) > 0 {
		switch tokens[0] {
		case "caption":
			k.Caption = true
		case "body":
			k.Body = true
		case "or":
			if !k.Caption || len(tokens) < 2 || tokens[1] != "body" {
				return k, fmt.Errorf("invalid kind %q: 'or' is only valid in 'caption or body'", text)
			}
		default:
			if k.Name != "" {
				return k, fmt.Errorf("invalid kind %q: unexpected %q", text, tokens[0])
			}
			k.Name = tokens[0]
		}
		tokens = tokens[1:]
	}

	if k.Name == "" {
		if !k.Caption && !k.Body {
			return k, fmt.Errorf("invalid kind %q: type name is missing", text)
		}
		k.Name = KindString
	}
	return k, nil
}

// String renders the kind back in canonical form.
func (k Kind) String() string {
	var parts []string
	if k.Optional {
		parts = append(parts, "optional")
	}
	switch {
	case k.Caption && k.Body:
		parts = append(parts, "caption or body")
	case k.Caption:
		parts = append(parts, "caption")
	case k.Body:
		parts = append(parts, "body")
	}
	parts = append(parts, k.Name)
	if k.List {
		parts = append(parts, "list")
	}
	return strings.Join(parts, " ")
}

// Element returns the kind of a single list item.
func (k Kind) Element() Kind {
	k.List = false
	k.Optional = false
	return k
}

// IsBuiltin reports whether the kind names a builtin scalar or children.
func (k Kind) IsBuiltin() bool {
	switch k.Name {
	case KindString, KindInteger, KindDecimal, KindBoolean, KindChildren:
		return true
	}
	return false
}
