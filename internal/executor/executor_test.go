package executor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/quill/internal/diag"
	"github.com/vk/quill/internal/interpreter"
)

// execute is a test helper that interprets a self-contained document and
// executes it.
func execute(t *testing.T, src string) *Tree {
	t.Helper()
	st, err := interpreter.Interpret("main", src)
	require.NoError(t, err)
	done, ok := st.(*interpreter.Done)
	require.True(t, ok, "document is not self-contained: %T", st)

	tree, err := Execute(done.Document)
	require.NoError(t, err)
	return tree
}

func executeErr(t *testing.T, doc *interpreter.Document) *diag.Error {
	t.Helper()
	_, err := Execute(doc)
	require.Error(t, err)
	d, ok := diag.As(err)
	require.True(t, ok, "expected a diagnostic, got %T: %v", err, err)
	assert.Equal(t, diag.ExecutorError, d.Kind)
	return d
}

func ids(nodes []*Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.ID.String())
	}
	return out
}

func TestExecute_StaticText(t *testing.T) {
	// Arrange
	src := "-- ui.text: Hello\ncolor: red\npadding: 10\nclasses: a b\n"

	// Act
	tree := execute(t, src)

	// Assert
	require.Len(t, tree.Nodes, 1)
	n := tree.Nodes[0]
	assert.Equal(t, "text", n.Kind)
	assert.Equal(t, "div", n.Tag)
	assert.Equal(t, "0", n.ID.String())
	require.NotNil(t, n.Text)
	assert.Equal(t, "Hello", *n.Text)
	assert.True(t, n.Visible)
	assert.Equal(t, "red", n.Style["color"])
	assert.Equal(t, "10px", n.Style["padding"])
	assert.Equal(t, NoValue, n.Style["margin"])
	assert.Equal(t, []string{"a", "b"}, n.Classes)
	assert.Empty(t, n.Dependencies)
}

func TestExecute_ReferencesConvertToArgumentKind(t *testing.T) {
	testCases := []struct {
		name  string
		src   string
		style map[string]string
	}{
		{
			name:  "integer into a kernel property",
			src:   "-- integer size: 10\n\n-- ui.text: hi\npadding: $size\n",
			style: map[string]string{"padding": "10px"},
		},
		{
			name:  "mutable integer into a kernel property",
			src:   "-- integer $size: 4\n\n-- ui.text: hi\nmargin: $size\n",
			style: map[string]string{"margin": "4px"},
		},
		{
			name: "integer through a component argument",
			src: `-- integer w: 120

-- component label:
string label:

-- ui.text: hi
width: $label.label

-- end: label

-- label:
label: $w
`,
			style: map[string]string{"width": "120px"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tree := execute(t, tc.src)

			require.Len(t, tree.Nodes, 1)
			for prop, want := range tc.style {
				assert.Equal(t, want, tree.Nodes[0].Style[prop], prop)
			}
		})
	}
}

func TestExecute_ClassesFromInteger(t *testing.T) {
	tree := execute(t, "-- integer tier: 3\n\n-- ui.text: hi\nclasses: $tier\n")
	assert.Equal(t, []string{"3"}, tree.Nodes[0].Classes)
}

func TestDisplay(t *testing.T) {
	s, err := Display(cty.NumberIntVal(12))
	require.NoError(t, err)
	assert.Equal(t, "12", s)

	_, err = Display(cty.UnknownVal(cty.String))
	assert.Error(t, err)
	_, err = Display(cty.ListValEmpty(cty.String))
	assert.Error(t, err)
}

func TestExecute_MutableVariableIsTracked(t *testing.T) {
	tree := execute(t, "-- integer $count: 41\n\n-- ui.integer: $count\n$on-click$: $ui.increment($a = $count)\n")

	n := tree.Nodes[0]
	assert.Equal(t, "41", *n.Text)
	assert.Equal(t, map[string][]string{TargetText: {"main#count"}}, n.Dependencies)
	require.NotNil(t, n.Formulas[TargetText].Ref)
	assert.Equal(t, "main#count", n.Formulas[TargetText].Ref.Storage)

	require.Len(t, n.Events, 1)
	action := n.Events[0].Actions[0]
	assert.Equal(t, "ui#increment", action.Function)
	require.Len(t, action.Arguments, 1)
	assert.Equal(t, "main#count", action.Arguments[0].Reference)
}

func TestExecute_FormulaOverMutableVariable(t *testing.T) {
	tree := execute(t, "-- integer $n: 2\n\n-- ui.integer: { $n * 10 }\n")

	n := tree.Nodes[0]
	assert.Equal(t, "20", *n.Text)
	b := n.Formulas[TargetText]
	require.NotNil(t, b)
	require.Contains(t, b.Refs, "n")
	assert.Equal(t, "main#n", b.Refs["n"].Storage)
}

func TestExecute_Condition(t *testing.T) {
	testCases := []struct {
		name        string
		src         string
		wantVisible bool
		wantDeps    []string
	}{
		{
			name:        "static and true",
			src:         "-- boolean show: true\n\n-- ui.text: hi\nif: { $show }\n",
			wantVisible: true,
		},
		{
			name:        "static and false",
			src:         "-- boolean show: false\n\n-- ui.text: hi\nif: { $show }\n",
			wantVisible: false,
		},
		{
			name:        "mutable",
			src:         "-- boolean $show: false\n\n-- ui.text: hi\nif: { $show }\n",
			wantVisible: false,
			wantDeps:    []string{"main#show"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n := execute(t, tc.src).Nodes[0]
			assert.Equal(t, tc.wantVisible, n.Visible)
			assert.Equal(t, tc.wantDeps, n.Dependencies[TargetVisible])
		})
	}
}

func TestExecute_ConditionalPropertyCases(t *testing.T) {
	tree := execute(t, "-- integer $n: 0\n\n-- ui.text: hi\ncolor: blue\ncolor if { $n > 2 }: red\n")

	n := tree.Nodes[0]
	assert.Equal(t, "blue", n.Style["color"])
	assert.Equal(t, []string{"main#n"}, n.Dependencies[StyleTarget("color")])
	b := n.Formulas[StyleTarget("color")]
	require.NotNil(t, b)
	require.Len(t, b.Cases, 1)
	require.NotNil(t, b.Default)
}

func TestExecute_StaticLoop(t *testing.T) {
	// Arrange
	src := `-- record person:
caption name:

-- person list people:
-- person: Ada
-- person: Linus
-- end: people

-- ui.column:

-- ui.text: $p.name
$loop$: $people as $p

-- end: ui.column
`

	// Act
	tree := execute(t, src)

	// Assert
	require.Len(t, tree.Nodes, 1)
	column := tree.Nodes[0]
	assert.Equal(t, "flex", column.Style["display"])
	assert.Equal(t, "column", column.Style["flex-direction"])
	if diff := cmp.Diff([]string{"0.0[0]", "0.0[1]"}, ids(column.Children)); diff != "" {
		t.Errorf("child ids mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Linus", *column.Children[1].Text)
	assert.Equal(t, &Iteration{Alias: "p", Index: 1}, column.Children[1].Iteration)
}

func TestExecute_ReactiveLoopIsDummy(t *testing.T) {
	src := "-- record person:\ncaption name:\n\n-- person list $people:\n-- person: Ada\n-- end: $people\n\n-- ui.text: $p.name\n$loop$: $people as $p\n"

	tree := execute(t, src)

	require.Len(t, tree.Nodes, 1)
	n := tree.Nodes[0]
	assert.Equal(t, "dummy", n.Kind)
	require.NotNil(t, n.Dummy)
	assert.Equal(t, "main#people", n.Dummy.Source)
	assert.Equal(t, "p", n.Dummy.Alias)
	assert.Equal(t, []string{"main#people"}, n.Dependencies[TargetItems])

	require.Len(t, n.Children, 1)
	assert.Equal(t, "Ada", *n.Children[0].Text)
	require.Len(t, n.Dummy.Properties, 1)
	text := n.Dummy.Properties[0]
	assert.Equal(t, "text", text.Key)
	require.Contains(t, text.Value.Refs, "p")
	assert.Equal(t, "p", text.Value.Refs["p"].Item)
}

func TestExecute_ComponentArgumentStorage(t *testing.T) {
	// Arrange
	src := `-- component counter:
integer $count: 0

-- ui.integer: $counter.count
$on-click$: $ui.increment($a = $counter.count)

-- end: counter

-- counter:
-- counter:
count: 5
`

	// Act
	tree := execute(t, src)

	// Assert
	want := map[string]cty.Value{
		"main#counter.count@0": cty.NumberIntVal(0),
		"main#counter.count@1": cty.NumberIntVal(5),
	}
	if diff := cmp.Diff(want, tree.Locals, cmp.Comparer(cty.Value.RawEquals)); diff != "" {
		t.Errorf("locals mismatch (-want +got):\n%s", diff)
	}
	second := tree.Nodes[1]
	assert.Equal(t, "5", *second.Text)
	assert.Equal(t, []string{"main#counter.count@1"}, second.Dependencies[TargetText])
	assert.Equal(t, "main#counter.count@1", second.Events[0].Actions[0].Arguments[0].Reference)
}

func TestExecute_MutableArgumentSharesCallerStorage(t *testing.T) {
	src := `-- integer $total: 3

-- component counter:
integer $count: 0

-- ui.integer: $counter.count

-- end: counter

-- counter:
count: $total
`
	tree := execute(t, src)
	assert.Empty(t, tree.Locals)
	assert.Equal(t, []string{"main#total"}, tree.Nodes[0].Dependencies[TargetText])
}

func TestExecute_ChildrenKeepTheirScope(t *testing.T) {
	src := `-- component card:
caption title:
children body:

-- ui.column:
children: $card.body

-- end: card

-- card: outer

-- ui.text: inside

-- end: card
`
	tree := execute(t, src)
	require.Len(t, tree.Nodes, 1)
	column := tree.Nodes[0]
	require.Len(t, column.Children, 1)
	assert.Equal(t, "inside", *column.Children[0].Text)
	assert.Equal(t, "0.0", column.Children[0].ID.String())
}

func TestExecute_Document(t *testing.T) {
	tree := execute(t, "-- ui.document:\ntitle: Home\ncss: a.css b.css\n\n-- ui.text: hi\nlink: https://example.com\nopen-in-new-tab: true\n\n-- end: ui.document\n")

	require.NotNil(t, tree.Title)
	assert.Equal(t, "Home", *tree.Title)
	assert.Nil(t, tree.OGTitle)
	assert.Equal(t, []string{"a.css", "b.css"}, tree.CSS)

	link := tree.Nodes[0].Children[0]
	assert.Equal(t, "a", link.Tag)
	assert.Equal(t, map[string]string{"href": "https://example.com", "target": "_blank"}, link.Attrs)
}

func TestExecute_NullValueNode(t *testing.T) {
	doc := &interpreter.Document{
		Name: "main",
		Bag:  interpreter.DefaultBag(),
		Tree: []*interpreter.Invocation{{
			Name:       "ui#text",
			Module:     "main",
			Line:       1,
			Properties: []*interpreter.Property{{Key: "text", Value: &interpreter.Value{Value: cty.NullVal(cty.String)}}},
		}},
	}

	tree, err := Execute(doc)

	require.NoError(t, err)
	require.Len(t, tree.Nodes, 1)
	assert.True(t, tree.Nodes[0].Null)
}

func TestExecute_Errors(t *testing.T) {
	testCases := []struct {
		name string
		doc  func(t *testing.T) *interpreter.Document
		line int
		msg  string
	}{
		{
			name: "missing required argument",
			doc: func(*testing.T) *interpreter.Document {
				return &interpreter.Document{
					Name: "main",
					Bag:  interpreter.DefaultBag(),
					Tree: []*interpreter.Invocation{{Name: "ui#image", Module: "main", Line: 3}},
				}
			},
			line: 3,
			msg:  `missing value for argument "src" of component "ui#image"`,
		},
		{
			name: "unknown component",
			doc: func(*testing.T) *interpreter.Document {
				return &interpreter.Document{
					Name: "main",
					Bag:  interpreter.DefaultBag(),
					Tree: []*interpreter.Invocation{{Name: "main#ghost", Module: "main", Line: 2}},
				}
			},
			line: 2,
			msg:  `unknown component "main#ghost"`,
		},
		{
			name: "value that does not convert to the argument kind",
			doc: func(*testing.T) *interpreter.Document {
				return &interpreter.Document{
					Name: "main",
					Bag:  interpreter.DefaultBag(),
					Tree: []*interpreter.Invocation{{
						Name:   "ui#text",
						Module: "main",
						Line:   4,
						Properties: []*interpreter.Property{
							{Key: "text", Value: &interpreter.Value{Value: cty.StringVal("hi")}},
							{Key: "padding", Value: &interpreter.Value{Value: cty.ListVal([]cty.Value{cty.StringVal("a")})}},
						},
					}},
				}
			},
			line: 4,
			msg:  `argument "padding" of component "ui#text"`,
		},
		{
			name: "recursive component",
			doc: func(t *testing.T) *interpreter.Document {
				st, err := interpreter.Interpret("main", "-- component box:\n\n-- box:\n\n-- end: box\n\n-- end: box\n\n-- box:\n")
				require.NoError(t, err)
				return st.(*interpreter.Done).Document
			},
			line: 3,
			msg:  "expands into itself",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := executeErr(t, tc.doc(t))
			assert.Equal(t, "main", d.DocID)
			assert.Equal(t, tc.line, d.Line)
			assert.Contains(t, d.Message, tc.msg)
		})
	}
}
