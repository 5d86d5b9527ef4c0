// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package ast turns the untyped sections produced by package section into typed
// syntax nodes. Its core purpose is to give the interpreter a predictable shape
// to work with, so that every later stage can switch over a closed set of node
// types instead of poking at raw headers.
//
// # Core Concepts
//
// Each top-level section maps to exactly one Node:
//
//   - Import: `-- import: path [as alias]`.
//
//   - RecordDefinition: a section kinded `record`. Every header is a typed field.
//
//   - OrTypeDefinition: a section kinded `or-type`. Every sub-section is a variant.
//
//   - ComponentDefinition: a section kinded `component`. Headers declare the
//     arguments and the single sub-section is the component body.
//
//   - FunctionDefinition: a section whose name carries a parameter list, such as
//     `-- integer double(n):`. The body holds the statements.
//
//   - VariableDefinition: any other kinded section.
//
//   - ComponentInvocation: any unkinded section, such as `-- ui.text: hi`.
//
// The builder validates shape only. Names, kinds and values are kept as the
// source text and resolved by the interpreter.
package ast
