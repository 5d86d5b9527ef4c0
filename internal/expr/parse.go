package expr

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

const filename = "expression"

var assignmentRe = regexp.MustCompile(`(?s)^\$?([A-Za-z_][\w-]*)\s*=([^=].*)$`)

// Statement is one entry of a program. Target is set for assignments.
type Statement struct {
	Target string
	Expr   hclsyntax.Expression
	Line   int
}

// Program is a sequence of statements.
type Program struct {
	Statements []*Statement
}

// Normalize strips the `$` reference marker from identifiers outside string
// literals. `${` is left alone and later rejected as a template.
func Normalize(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	runes := []rune(src)
	inString := false
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inString && r == '\\' && i+1 < len(runes):
			b.WriteRune(r)
			i++
			b.WriteRune(runes[i])
			continue
		case r == '"':
			inString = !inString
		case !inString && r == '$' && i+1 < len(runes) && isIdentStart(runes[i+1]):
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

// Parse parses and validates a single expression. line is the source line the
// expression starts on.
func Parse(src string, line int) (hclsyntax.Expression, hcl.Diagnostics) {
	e, diags := hclsyntax.ParseExpression([]byte(Normalize(strings.TrimSpace(src))), filename, hcl.Pos{Line: line, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return nil, diags
	}
	if vd := Validate(e); vd.HasErrors() {
		return nil, vd
	}
	return e, nil
}

// ParseProgram splits src into statements and parses each one.
func ParseProgram(src string, line int) (*Program, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	p := &Program{}
	for _, chunk := range splitStatements(src, line) {
		st := &Statement{Line: chunk.line}
		text := chunk.text
		if m := assignmentRe.FindStringSubmatch(text); m != nil {
			st.Target = m[1]
			text = m[2]
		}
		e, d := Parse(text, chunk.line)
		diags = append(diags, d...)
		if d.HasErrors() {
			return nil, diags
		}
		st.Expr = e
		p.Statements = append(p.Statements, st)
	}
	if len(p.Statements) == 0 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Empty program",
			Detail:   "Expected at least one statement.",
			Subject:  &hcl.Range{Filename: filename, Start: hcl.Pos{Line: line}, End: hcl.Pos{Line: line}},
		})
		return nil, diags
	}
	return p, diags
}

type chunk struct {
	text string
	line int
}

// splitStatements splits on `;` and newlines that are outside brackets and
// string literals.
func splitStatements(src string, line int) []chunk {
	var out []chunk
	var cur strings.Builder
	depth := 0
	inString := false
	start := line

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, chunk{text: s, line: start})
		}
		cur.Reset()
	}

	runes := []rune(src)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if inString {
			cur.WriteRune(r)
			if r == '\\' && i+1 < len(runes) {
				i++
				cur.WriteRune(runes[i])
			} else if r == '"' {
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case ';':
			if depth == 0 {
				flush()
				start = line
				continue
			}
		case '\n':
			line++
			if depth == 0 {
				flush()
				start = line
				continue
			}
		}
		if cur.Len() == 0 && unicode.IsSpace(r) {
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return out
}
