package htmlgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestPage(t *testing.T) {
	// Arrange
	out := generate(t, "-- ui.document:\ntitle: Tom & Jerry\nog-title: Cartoons\ncss: a.css\n\n-- integer $n: 1\n\n-- ui.integer: $n\n")

	// Act
	page, err := Page(out, "/ftd.js")

	// Assert
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>\n"))
	assert.Contains(t, page, "<title>Tom &amp; Jerry</title>")
	assert.Contains(t, page, `<meta property="og:title" content="Cartoons"/>`)
	assert.Contains(t, page, `<script src="/ftd.js"></script>`)
	assert.Contains(t, page, `<link rel="stylesheet" href="a.css"/>`)
	assert.Contains(t, page, out.HTML)
	// script contents are raw text and must not be escaped.
	assert.Contains(t, page, `window.ftd.data["main"] = {"main#n":1};`)

	doc, err := html.Parse(strings.NewReader(page))
	require.NoError(t, err)
	require.NotNil(t, doc.FirstChild)
}

func TestPage_WithoutRuntime(t *testing.T) {
	out := generate(t, "-- ui.text: hi\n")

	page, err := Page(out, "")

	require.NoError(t, err)
	assert.NotContains(t, page, "<title>")
	assert.NotContains(t, page, `<script src=`)
}
