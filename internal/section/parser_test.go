package section

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/quill/internal/diag"
)

func TestParse_SingleSectionWithCaption(t *testing.T) {
	sections, err := Parse("doc", "-- ui.text: Hello World\n")
	require.NoError(t, err)
	require.Len(t, sections, 1)

	s := sections[0]
	assert.Equal(t, "ui.text", s.Name)
	assert.Empty(t, s.Kind)
	assert.Equal(t, "Hello World", s.CaptionValue())
	assert.Equal(t, 1, s.Line)
	assert.Empty(t, s.Headers)
	assert.Nil(t, s.Body)
}

func TestParse_KindAndName(t *testing.T) {
	testCases := []struct {
		name     string
		line     string
		wantKind string
		wantName string
	}{
		{"record", "-- record point:", "record", "point"},
		{"mutable variable", "-- integer $count: 0", "integer", "$count"},
		{"list variable", "-- string list names:", "string list", "names"},
		{"function", "-- integer add(a, b):", "integer", "add(a, b)"},
		{"component", "-- component card:", "component", "card"},
		{"invocation", "-- card:", "", "card"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sections, err := Parse("doc", tc.line)
			require.NoError(t, err)
			require.Len(t, sections, 1)
			assert.Equal(t, tc.wantKind, sections[0].Kind)
			assert.Equal(t, tc.wantName, sections[0].Name)
		})
	}
}

func TestParse_HeadersAndBody(t *testing.T) {
	src := `-- record point:
integer x:
optional integer y: 0
color if { $count > 2 }: red

This is the body.

Second paragraph.

-- ui.text: next
`
	sections, err := Parse("doc", src)
	require.NoError(t, err)
	require.Len(t, sections, 2)

	point := sections[0]
	require.Len(t, point.Headers, 3)

	x := point.Headers[0]
	assert.Equal(t, HeaderKV, x.Type)
	assert.Equal(t, "x", x.Key)
	assert.Equal(t, "integer", x.Kind)
	assert.Nil(t, x.Value)
	assert.Equal(t, 2, x.Line)

	y := point.Headers[1]
	assert.Equal(t, "optional integer", y.Kind)
	assert.Equal(t, "0", y.ValueString())

	color := point.Headers[2]
	assert.Equal(t, "color", color.Key)
	assert.Empty(t, color.Kind)
	assert.Equal(t, "$count > 2", color.Condition)
	assert.Equal(t, "red", color.ValueString())

	require.NotNil(t, point.Body)
	assert.Equal(t, 6, point.Body.Line)
	assert.Equal(t, "This is the body.\n\nSecond paragraph.", point.Body.Value)
}

func TestParse_NestedSectionsClosedByEnd(t *testing.T) {
	src := `-- ui.column:
padding: 10

-- ui.row:

-- ui.text: a
-- ui.text: b

-- end: ui.row

-- ui.text: c

-- end: ui.column

-- ui.text: top
`
	sections, err := Parse("doc", src)
	require.NoError(t, err)
	require.Len(t, sections, 2)

	column := sections[0]
	assert.Equal(t, "ui.column", column.Name)
	require.Len(t, column.SubSections, 2)

	row := column.SubSections[0]
	assert.Equal(t, "ui.row", row.Name)
	require.Len(t, row.SubSections, 2)
	assert.Equal(t, "a", row.SubSections[0].CaptionValue())
	assert.Equal(t, "b", row.SubSections[1].CaptionValue())

	assert.Equal(t, "c", column.SubSections[1].CaptionValue())
	assert.Equal(t, "top", sections[1].CaptionValue())
}

func TestParse_HeaderSectionsAreLifted(t *testing.T) {
	src := `-- card:

-- card.title: Welcome

-- card.footer:

-- ui.text: bye

-- end: card.footer

-- end: card
`
	sections, err := Parse("doc", src)
	require.NoError(t, err)
	require.Len(t, sections, 1)

	card := sections[0]
	assert.Empty(t, card.SubSections)
	require.Len(t, card.Headers, 2)

	title, ok := card.Header("title")
	require.True(t, ok)
	assert.Equal(t, HeaderSection, title.Type)
	assert.Equal(t, "Welcome", title.ValueString())

	footer, ok := card.Header("footer")
	require.True(t, ok)
	require.Len(t, footer.Sections, 1)
	assert.Equal(t, "bye", footer.Sections[0].CaptionValue())
}

func TestParse_CommentsAndEscapes(t *testing.T) {
	src := `;; leading comment
-- string bio:
;; ignored

\-- not a section
\;; not a comment
`
	sections, err := Parse("doc", src)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "-- not a section\n;; not a comment", sections[0].BodyValue())
}

func TestParse_CaptionKeepsInnerColons(t *testing.T) {
	sections, err := Parse("doc", "-- ui.text: Time: 10:30")
	require.NoError(t, err)
	assert.Equal(t, "Time: 10:30", sections[0].CaptionValue())
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		src      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "unmatched end",
			src:      "-- ui.text: a\n-- end: ui.column\n",
			wantLine: 2,
			wantMsg:  "no open section",
		},
		{
			name:     "header without colon",
			src:      "-- ui.text: a\npadding 10\n",
			wantLine: 2,
			wantMsg:  "key: value",
		},
		{
			name:     "content before first section",
			src:      "\nhello\n-- ui.text: a\n",
			wantLine: 2,
			wantMsg:  "outside of a section",
		},
		{
			name:     "section line without colon",
			src:      "-- ui.text\n",
			wantLine: 1,
			wantMsg:  "must contain ':'",
		},
		{
			name:     "end without name",
			src:      "-- ui.text: a\n-- end:\n",
			wantLine: 2,
			wantMsg:  "requires the name",
		},
		{
			name:     "condition without braces",
			src:      "-- ui.text: a\ncolor if x: red\n",
			wantLine: 2,
			wantMsg:  "wrapped in braces",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("doc", tc.src)
			require.Error(t, err)

			d, ok := diag.As(err)
			require.True(t, ok, "expected a diagnostic, got %T", err)
			assert.Equal(t, diag.ParseError, d.Kind)
			assert.Equal(t, "doc", d.DocID)
			assert.Equal(t, tc.wantLine, d.Line)
			assert.Contains(t, d.Message, tc.wantMsg)
		})
	}
}

func TestParse_SameNameCanBeReopenedAfterClose(t *testing.T) {
	src := `-- card: one

-- ui.text: a

-- end: card

-- card: two

-- ui.text: b

-- end: card
`
	sections, err := Parse("doc", src)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "a", sections[0].SubSections[0].CaptionValue())
	assert.Equal(t, "b", sections[1].SubSections[0].CaptionValue())
}
