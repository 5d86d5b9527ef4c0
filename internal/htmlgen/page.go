package htmlgen

import (
	"bytes"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Page wraps out into a complete HTML page. runtime is the URL of the
// script defining window.ftd; it is loaded before the document's own JS.
// An empty runtime is left out.
func Page(out *Output, runtime string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")

	head := []*html.Node{void(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"})}
	if out.Title != nil {
		title := void(atom.Title)
		title.AppendChild(&html.Node{Type: html.TextNode, Data: *out.Title})
		head = append(head, title)
	}
	if out.OGTitle != nil {
		head = append(head, void(atom.Meta,
			html.Attribute{Key: "property", Val: "og:title"},
			html.Attribute{Key: "content", Val: *out.OGTitle}))
	}
	if runtime != "" {
		head = append(head, void(atom.Script, html.Attribute{Key: "src", Val: runtime}))
	}
	for _, n := range head {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
		buf.WriteByte('\n')
	}
	buf.WriteString(out.CSS)
	buf.WriteString(out.Scripts)

	buf.WriteString("</head>\n<body>\n")
	buf.WriteString(out.HTML)
	buf.WriteString("\n")

	inline := void(atom.Script)
	inline.AppendChild(&html.Node{Type: html.TextNode, Data: "\n" + out.JS + out.DependencyJS})
	if err := html.Render(&buf, inline); err != nil {
		return "", err
	}
	buf.WriteString("\n</body>\n</html>\n")
	return buf.String(), nil
}
