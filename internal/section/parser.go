package section

import (
	"strings"

	"github.com/vk/quill/internal/diag"
)

const (
	sectionPrefix = "-- "
	endName       = "end"
	commentPrefix = ";;"
)

type phase int

const (
	phaseHeaders phase = iota
	phaseBody
)

// parser holds the line-oriented state while a document is scanned.
type parser struct {
	docID     string
	stack     []*Section
	current   *Section
	phase     phase
	bodyLines []string
	bodyStart int
}

// Parse splits text into top-level sections. It validates shape only.
func Parse(docID, text string) ([]*Section, error) {
	p := &parser{docID: docID}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	for i, raw := range strings.Split(text, "\n") {
		lineNum := i + 1
		trimmed := strings.TrimSpace(raw)

		if strings.HasPrefix(trimmed, commentPrefix) {
			continue
		}

		if strings.HasPrefix(raw, sectionPrefix) || raw == "--" {
			p.finishCurrent()
			if err := p.sectionLine(raw, lineNum); err != nil {
				return nil, err
			}
			continue
		}

		if p.current == nil {
			if trimmed != "" {
				return nil, diag.Parse(docID, lineNum, "content outside of a section: %q", trimmed)
			}
			continue
		}

		if p.phase == phaseHeaders {
			if trimmed == "" {
				p.phase = phaseBody
				continue
			}
			h, err := p.headerLine(trimmed, lineNum)
			if err != nil {
				return nil, err
			}
			p.current.Headers = append(p.current.Headers, h)
			continue
		}

		if len(p.bodyLines) == 0 && trimmed == "" {
			continue
		}
		if len(p.bodyLines) == 0 {
			p.bodyStart = lineNum
		}
		p.bodyLines = append(p.bodyLines, unescape(raw))
	}
	p.finishCurrent()

	for _, s := range p.stack {
		liftHeaderSections(s)
	}
	return p.stack, nil
}

// sectionLine handles `-- [kind] name: [caption]` and `-- end: name`.
func (p *parser) sectionLine(raw string, lineNum int) error {
	content := strings.TrimPrefix(strings.TrimPrefix(raw, "--"), " ")
	idx := colonIndex(content)
	if idx < 0 {
		return diag.Parse(p.docID, lineNum, "section line must contain ':': %q", raw)
	}
	head := strings.TrimSpace(content[:idx])
	caption := strings.TrimSpace(content[idx+1:])
	if head == "" {
		return diag.Parse(p.docID, lineNum, "section name is missing: %q", raw)
	}

	if head == endName {
		if caption == "" {
			return diag.Parse(p.docID, lineNum, "'end' requires the name of the section to close")
		}
		return p.closeSection(caption, lineNum)
	}

	kind, name := splitKindName(head)
	if name == "" {
		return diag.Parse(p.docID, lineNum, "section name is missing: %q", raw)
	}
	s := &Section{Name: name, Kind: kind, Line: lineNum}
	if caption != "" {
		s.Caption = &caption
	}
	p.stack = append(p.stack, s)
	p.current = s
	p.phase = phaseHeaders
	return nil
}

// closeSection pops every section above the nearest open section called name
// and attaches them to it as sub-sections.
func (p *parser) closeSection(name string, lineNum int) error {
	p.current = nil
	for i := len(p.stack) - 1; i >= 0; i-- {
		s := p.stack[i]
		if s.Name != name || s.closed {
			continue
		}
		children := make([]*Section, len(p.stack)-i-1)
		copy(children, p.stack[i+1:])
		s.SubSections = append(s.SubSections, children...)
		s.closed = true
		p.stack = p.stack[:i+1]
		return nil
	}
	return diag.Parse(p.docID, lineNum, "no open section named %q to close", name)
}

func (p *parser) headerLine(line string, lineNum int) (*Header, error) {
	idx := colonIndex(line)
	if idx < 0 {
		return nil, diag.Parse(p.docID, lineNum, "header must be of the form 'key: value', found %q", line)
	}
	head := strings.TrimSpace(line[:idx])
	value := strings.TrimSpace(line[idx+1:])

	condition := ""
	if ci := strings.Index(head, " if "); ci >= 0 {
		cond := strings.TrimSpace(head[ci+4:])
		if !strings.HasPrefix(cond, "{") || !strings.HasSuffix(cond, "}") {
			return nil, diag.Parse(p.docID, lineNum, "header condition must be wrapped in braces: %q", cond)
		}
		condition = strings.TrimSpace(cond[1 : len(cond)-1])
		head = strings.TrimSpace(head[:ci])
	}

	kind, key := splitKindName(head)
	if key == "" {
		return nil, diag.Parse(p.docID, lineNum, "header key is missing: %q", line)
	}
	h := &Header{Type: HeaderKV, Key: key, Kind: kind, Condition: condition, Line: lineNum}
	if value != "" {
		h.Value = &value
	}
	return h, nil
}

func (p *parser) finishCurrent() {
	if p.current != nil && len(p.bodyLines) > 0 {
		lines := p.bodyLines
		for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
			lines = lines[:len(lines)-1]
		}
		if len(lines) > 0 {
			p.current.Body = &Body{Line: p.bodyStart, Value: strings.Join(lines, "\n")}
		}
	}
	p.bodyLines = nil
	p.bodyStart = 0
}

// liftHeaderSections turns sub-sections named `<parent>.<key>` into section
// headers of their parent, recursively.
func liftHeaderSections(s *Section) {
	prefix := s.Name + "."
	kept := s.SubSections[:0]
	for _, child := range s.SubSections {
		liftHeaderSections(child)
		if strings.HasPrefix(child.Name, prefix) && len(child.Name) > len(prefix) {
			h := &Header{
				Type:     HeaderSection,
				Key:      strings.TrimPrefix(child.Name, prefix),
				Kind:     child.Kind,
				Value:    child.Caption,
				Sections: child.SubSections,
				Line:     child.Line,
			}
			if h.Value == nil && child.Body != nil {
				body := child.Body.Value
				h.Value = &body
			}
			s.Headers = append(s.Headers, h)
			continue
		}
		kept = append(kept, child)
	}
	s.SubSections = kept
}

// splitKindName splits `optional string list name` into kind and name. A name
// may carry a parenthesised parameter list containing spaces.
func splitKindName(head string) (kind, name string) {
	head = strings.TrimSpace(head)
	search := head
	if idx := strings.Index(head, "("); idx >= 0 {
		search = head[:idx]
	}
	sp := strings.LastIndexAny(search, " \t")
	if sp < 0 {
		return "", head
	}
	return strings.Join(strings.Fields(head[:sp]), " "), strings.TrimSpace(head[sp+1:])
}

// colonIndex finds the first ':' that is not inside braces or parentheses.
func colonIndex(s string) int {
	depth := 0
	for i, r := range s {
		switch r {
		case '{', '(':
			depth++
		case '}', ')':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func unescape(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, `\--`) || strings.HasPrefix(trimmed, `\;;`) {
		return line[:len(line)-len(trimmed)] + trimmed[1:]
	}
	return line
}
