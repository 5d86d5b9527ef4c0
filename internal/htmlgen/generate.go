package htmlgen

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vk/quill/internal/diag"
	"github.com/vk/quill/internal/executor"
	"github.com/vk/quill/internal/interpreter"
)

// Output is a rendered document.
type Output struct {
	HTML string
	// CSS and Scripts link the stylesheets and scripts set on `ui.document`.
	CSS     string
	Scripts string
	// JS holds the data, functions, outer events and loop templates.
	JS string
	// DependencyJS holds one update closure per mutable variable.
	DependencyJS string
	Title        *string
	OGTitle      *string

	OuterEvents []OuterEvent
	Dummies     []Fragment
}

// OuterEvent is a handler attached to the window on behalf of an element.
type OuterEvent struct {
	// ID is the full id of the element.
	ID      string
	Event   string
	Handler string
}

// Fragment is the template of a loop over a mutable list.
type Fragment struct {
	// ID is the full id of the placeholder element.
	ID string
	JS string
}

type generator struct {
	id   string
	tree *executor.Tree
	bag  *interpreter.Bag
	out  *Output
}

// Generate renders tree. id names the document on the page and prefixes every
// element id.
func Generate(id string, tree *executor.Tree, bag *interpreter.Bag) (*Output, error) {
	g := &generator{id: id, tree: tree, bag: bag, out: &Output{Title: tree.Title, OGTitle: tree.OGTitle}}

	var buf bytes.Buffer
	for _, n := range tree.Nodes {
		el, err := g.element(n)
		if err != nil {
			return nil, err
		}
		if el == nil {
			continue
		}
		if err := html.Render(&buf, el); err != nil {
			return nil, diag.Gen(tree.DocID, 0, "rendering html: %v", err)
		}
	}
	g.out.HTML = buf.String()

	var err error
	if g.out.CSS, err = links(tree.CSS, func(href string) *html.Node {
		return void(atom.Link, html.Attribute{Key: "rel", Val: "stylesheet"}, html.Attribute{Key: "href", Val: href})
	}); err != nil {
		return nil, diag.Gen(tree.DocID, 0, "rendering css links: %v", err)
	}
	if g.out.Scripts, err = links(tree.JS, func(src string) *html.Node {
		return void(atom.Script, html.Attribute{Key: "src", Val: src})
	}); err != nil {
		return nil, diag.Gen(tree.DocID, 0, "rendering script links: %v", err)
	}

	if g.out.JS, err = g.script(); err != nil {
		return nil, err
	}
	if g.out.DependencyJS, err = g.dependencies(); err != nil {
		return nil, err
	}
	return g.out, nil
}

// element builds the element of n. Null nodes give nil.
func (g *generator) element(n *executor.Node) (*html.Node, error) {
	if n.Null {
		return nil, nil
	}
	full := n.ID.Full(g.id)
	el := &html.Node{Type: html.ElementNode, Data: n.Tag, DataAtom: atom.Lookup([]byte(n.Tag))}
	el.Attr = append(el.Attr, html.Attribute{Key: "data-id", Val: full})

	for _, k := range slices.Sorted(maps.Keys(n.Attrs)) {
		el.Attr = append(el.Attr, html.Attribute{Key: k, Val: n.Attrs[k]})
	}
	if style := Style(n); style != "" {
		el.Attr = append(el.Attr, html.Attribute{Key: "style", Val: style})
	}
	if len(n.Classes) > 0 {
		el.Attr = append(el.Attr, html.Attribute{Key: "class", Val: strings.Join(n.Classes, " ")})
	}

	for _, ev := range groupEvents(n.Events) {
		actions, err := actionsJSON(ev.actions)
		if err != nil {
			return nil, diag.Gen(g.tree.DocID, 0, "event %s on %s: %v", ev.name, full, err)
		}
		handler := fmt.Sprintf("window.ftd.handle_event(event, '%s', '%s', this)", g.id, jsSingleQuoted(actions))
		if executor.IsOuterEvent(ev.name) {
			g.out.OuterEvents = append(g.out.OuterEvents, OuterEvent{ID: full, Event: attrName(ev.name), Handler: handler})
			continue
		}
		el.Attr = append(el.Attr, html.Attribute{Key: attrName(ev.name), Val: handler})
	}

	if n.Dummy != nil {
		el.Attr = append(el.Attr, html.Attribute{Key: "data-dummy", Val: full})
		if err := g.fragment(n, full); err != nil {
			return nil, err
		}
	}

	if n.Text != nil {
		el.AppendChild(&html.Node{Type: html.TextNode, Data: *n.Text})
	}
	for _, c := range n.Children {
		child, err := g.element(c)
		if err != nil {
			return nil, err
		}
		if child != nil {
			el.AppendChild(child)
		}
	}
	return el, nil
}

// Style flattens the style of n. Entries without a value are dropped and
// invisible nodes get `display: none`.
func Style(n *executor.Node) string {
	style := make(map[string]string, len(n.Style)+1)
	for k, v := range n.Style {
		if v != executor.NoValue {
			style[k] = v
		}
	}
	if !n.Visible {
		style["display"] = "none"
	}
	parts := make([]string, 0, len(style))
	for _, k := range slices.Sorted(maps.Keys(style)) {
		parts = append(parts, k+": "+style[k])
	}
	return strings.Join(parts, "; ")
}

type eventGroup struct {
	name    string
	actions []*executor.Action
}

// groupEvents merges the actions of handlers for the same event, keeping
// first-seen order.
func groupEvents(events []*executor.Event) []*eventGroup {
	var out []*eventGroup
	byName := map[string]*eventGroup{}
	for _, ev := range events {
		g, ok := byName[ev.Name]
		if !ok {
			g = &eventGroup{name: ev.Name}
			byName[ev.Name] = g
			out = append(out, g)
		}
		g.actions = append(g.actions, ev.Actions...)
	}
	return out
}

// attrName maps an event name onto its handler attribute, e.g. `mouse-enter`
// to `onmouseenter` and `global-key[ctrl-s]` to `onglobalkey[ctrl-s]`.
func attrName(event string) string {
	name, keys, found := strings.Cut(event, "[")
	name = "on" + strings.ReplaceAll(name, "-", "")
	if found {
		name += "[" + keys
	}
	return name
}

func void(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
}

func links(items []string, build func(string) *html.Node) (string, error) {
	var buf bytes.Buffer
	for _, it := range items {
		if err := html.Render(&buf, build(it)); err != nil {
			return "", err
		}
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}
