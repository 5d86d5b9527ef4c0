// Package expr is the embedded expression engine. Expressions are written with
// `$`-prefixed references (`$count + 1`, `upper($user.name)`); the prefix is
// stripped and the remainder is parsed with hclsyntax and evaluated with cty.
//
// Only a closed set of constructs is accepted: literals, references,
// arithmetic, comparison and boolean operators, function calls, tuples and
// parentheses. A program adds assignment (`a = b`) and statement chains
// separated by `;` or newlines. Everything else is rejected by Validate, and
// the JS translator reports it as unsupported rather than guessing.
package expr
