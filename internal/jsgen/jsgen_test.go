package jsgen

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/quill/internal/diag"
	"github.com/vk/quill/internal/interpreter"
)

// generate is a test helper that interprets a self-contained document and
// generates its program.
func generate(t *testing.T, src string) *Program {
	t.Helper()
	st, err := interpreter.Interpret("main", src)
	require.NoError(t, err)
	done, ok := st.(*interpreter.Done)
	require.True(t, ok, "document is not self-contained: %T", st)

	p, err := Generate(done.Document)
	require.NoError(t, err)
	return p
}

func declaration(t *testing.T, p *Program, name string) *ComponentDeclaration {
	t.Helper()
	for _, in := range p.Instructions {
		if d, ok := in.(*ComponentDeclaration); ok && d.Name == name {
			return d
		}
	}
	t.Fatalf("no declaration of %s", name)
	return nil
}

func TestGenerate_OneInstructionPerThing(t *testing.T) {
	// Arrange
	src := `-- record point:
integer x: 0

-- integer $count: 1
-- string title: Home

-- integer double(n):
integer n:

n * 2

-- component card:

-- ui.text: card

-- end: card

-- card:
`

	// Act
	p := generate(t, src)

	// Assert
	var got []string
	for _, in := range p.Instructions {
		switch v := in.(type) {
		case *MutableVariable:
			got = append(got, "mutable "+v.Name)
		case *StaticVariable:
			got = append(got, "static "+v.Name)
		case *FunctionDeclaration:
			got = append(got, "function "+v.Name)
		case *ComponentDeclaration:
			got = append(got, "component "+v.Name)
		}
	}
	want := []string{"function main#double", "mutable main#count", "static main#title", "component main#card", "component main"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("instructions mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"main#count"}, p.MutableVariables)
	assert.True(t, p.Instructions[2].(*StaticVariable).IsQuoted)
}

func TestGenerate_FormulaDependsOnceOnMutableVariable(t *testing.T) {
	p := generate(t, "-- integer $count: 1\n\n-- ui.integer: { $count + $count }\n")

	assert.Equal(t, []string{"main#count"}, p.MutableVariables)
	main := declaration(t, p, MainComponent)
	require.Len(t, main.Body, 2)
	set, ok := main.Body[1].(*SetProperty)
	require.True(t, ok)
	want := &Formula{
		Deps:   []string{"main#count"},
		DepsJS: []string{`global["main#count"]`},
		ConditionalValues: []*ConditionalValue{
			{Expression: `ftd.get(global["main#count"]) + ftd.get(global["main#count"])`},
		},
	}
	if diff := cmp.Diff(want, set.Value); diff != "" {
		t.Errorf("formula mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_FunctionDeclaration(t *testing.T) {
	p := generate(t, "-- integer double(n):\ninteger n:\n\nm = n * 2; n = m; m\n")

	fn, ok := p.Instructions[0].(*FunctionDeclaration)
	require.True(t, ok)
	assert.Equal(t, []string{"n"}, fn.Params)
	assert.Equal(t, "let m = n.value * 2;\nn.value = m;\nreturn m;", fn.Body)
}

func TestGenerate_ComponentDeclaration(t *testing.T) {
	// Arrange
	src := `-- component card:
caption title:
integer $clicks: 0

-- ui.text: $card.title
color if { $card.clicks > 2 }: red
$on-click$: $ui.increment($a = $card.clicks)

-- end: card
`

	// Act
	p := generate(t, src)

	// Assert
	want := &ComponentDeclaration{
		Name: "main#card",
		Params: []*Param{
			{Name: "title"},
			{Name: "clicks", Mutable: true, Default: &Value{JS: "0"}},
		},
		Body: []Statement{
			&CreateKernel{Var: "e0", Kind: "text", Parent: "parent"},
			&SetProperty{Element: "e0", Kind: "text", Value: &Reference{Name: "main#card.title", JS: `args["title"]`}},
			&SetProperty{Element: "e0", Kind: "color", Value: &Formula{
				Deps:   []string{"main#card.clicks"},
				DepsJS: []string{`args["clicks"]`},
				ConditionalValues: []*ConditionalValue{
					{Condition: `ftd.get(args["clicks"]) > 2`, Expression: `"red"`},
				},
			}},
			&AddEventHandler{Element: "e0", Event: "click", Function: "ui#increment", Arguments: []*Argument{
				{Name: "a", Value: &Reference{Name: "main#card.clicks", JS: `args["clicks"]`}},
			}},
		},
	}
	if diff := cmp.Diff(want, declaration(t, p, "main#card")); diff != "" {
		t.Errorf("declaration mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_LoopsAndConditionsAreStatements(t *testing.T) {
	src := `-- record person:
caption name:

-- person list $people:
-- person: Ada
-- end: $people

-- boolean $open: true

-- ui.column:

-- ui.text: $p.name
$loop$: $people as $p
if: { $open }

-- end: ui.column
`
	p := generate(t, src)

	main := declaration(t, p, MainComponent)
	require.Len(t, main.Body, 2)
	loop, ok := main.Body[1].(*ForLoop)
	require.True(t, ok)
	assert.Equal(t, "e0", loop.Parent)
	assert.Equal(t, "p", loop.Alias)
	assert.Equal(t, &Reference{Name: "main#people", JS: `global["main#people"]`}, loop.List)
	require.Len(t, loop.Body, 1)
	cond, ok := loop.Body[0].(*ConditionalDom)
	require.True(t, ok)
	assert.Equal(t, "root", cond.Parent)
	assert.Equal(t, []string{"main#open"}, cond.Condition.Deps)
	text := cond.Body[1].(*SetProperty)
	assert.Equal(t, &Formula{ConditionalValues: []*ConditionalValue{{Expression: "p.name"}}}, text.Value)
}

func TestGenerate_ChildrenBecomeClosures(t *testing.T) {
	src := `-- component card:
children body:

-- ui.column:
children: $card.body

-- end: card

-- card:

-- ui.text: inside

-- end: card
`
	p := generate(t, src)

	card := declaration(t, p, "main#card")
	forward, ok := card.Body[1].(*SetProperty)
	require.True(t, ok)
	assert.Equal(t, "children", forward.Kind)
	assert.Equal(t, &Reference{Name: "main#card.body", JS: `args["body"]`}, forward.Value)

	call := declaration(t, p, MainComponent).Body[0].(*InstantiateComponent)
	require.Len(t, call.Arguments, 1)
	closure, ok := call.Arguments[0].Value.(*Closure)
	require.True(t, ok)
	assert.Equal(t, &CreateKernel{Var: "e1", Kind: "text", Parent: "parent"}, closure.Body[0])
}

func TestGenerate_UnsupportedConstruct(t *testing.T) {
	// Arrange
	e, diags := hclsyntax.ParseExpression([]byte("true ? 1 : 2"), "", hcl.InitialPos)
	require.False(t, diags.HasErrors())
	doc := &interpreter.Document{
		Name: "main",
		Bag:  interpreter.DefaultBag(),
		Tree: []*interpreter.Invocation{{
			Name:   "ui#integer",
			Module: "main",
			Line:   4,
			Properties: []*interpreter.Property{{
				Key:   "value",
				Value: &interpreter.Formula{Expr: e, Module: "main", Text: "true ? 1 : 2", Line: 4},
				Line:  4,
			}},
		}},
	}

	// Act
	_, err := Generate(doc)

	// Assert
	require.Error(t, err)
	d, ok := diag.As(err)
	require.True(t, ok)
	assert.Equal(t, diag.GeneratorError, d.Kind)
	assert.Equal(t, 4, d.Line)
	assert.Contains(t, d.Message, "unsupported construct")
}

func TestRender(t *testing.T) {
	p := generate(t, "-- integer $count: 1\n\n-- ui.integer: { $count + 1 }\n$on-click$: $ui.increment($a = $count)\n")

	want := `global["main#count"] = ftd.mutable(1);

function main(parent) {
  let e0 = ftd.createKernel(parent, "integer");
  e0.setProperty("value", ftd.formula([global["main#count"]], function() { return ftd.get(global["main#count"]) + 1; }));
  e0.addEventHandler("click", function() { ftd.action("ui#increment", {"a": global["main#count"]}); });
}

`
	if diff := cmp.Diff(want, Render(p)); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}
}
