package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/quill/internal/diag"
)

// writeSite lays out a site under a temporary directory and returns the path
// of its site.hcl.
func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return filepath.Join(dir, "site.hcl")
}

func TestRun_RendersEveryDocument(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	sitePath := writeSite(t, map[string]string{
		"site.hcl": `root = "docs"
runtime = "/ftd.js"
`,
		"docs/index.quill": `-- string list people:
$processor$: json
text: ["Ada", "Linus"]

-- ui.text: { join(", ", $people) }
`,
		"docs/blog/post.quill": "-- ui.document:\ntitle: Post\n\n-- ui.text: A post\n",
	})
	outDir := t.TempDir()
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{"-site", sitePath, "-out", outDir})

	// --- Assert ---
	require.NoError(t, err, "log:\n%s", out.String())
	index, err := os.ReadFile(filepath.Join(outDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "Ada, Linus")
	assert.Contains(t, string(index), `<script src="/ftd.js"></script>`)
	post, err := os.ReadFile(filepath.Join(outDir, "blog", "post.html"))
	require.NoError(t, err)
	assert.Contains(t, string(post), "<title>Post</title>")
	assert.Contains(t, out.String(), "Rendering finished.")
}

func TestRun_JSOutput(t *testing.T) {
	t.Parallel()

	sitePath := writeSite(t, map[string]string{
		"site.hcl":      "",
		"index.quill":   "-- integer $count: 0\n\n-- ui.integer: $count\n",
		"ignored.quill": "-- ui.text: not selected\n",
	})
	outDir := t.TempDir()

	err := run(context.Background(), &bytes.Buffer{}, []string{"-site", sitePath, "-out", outDir, "-output", "js", "index"})

	require.NoError(t, err)
	js, err := os.ReadFile(filepath.Join(outDir, "index.js"))
	require.NoError(t, err)
	assert.Contains(t, string(js), `global["index#count"] = ftd.mutable(0);`)
	assert.NoFileExists(t, filepath.Join(outDir, "ignored.js"))
}

func TestRun_DocumentErrorCarriesDiagnostic(t *testing.T) {
	t.Parallel()

	sitePath := writeSite(t, map[string]string{
		"site.hcl":    "",
		"index.quill": "-- ui.text: $nope\n",
	})

	err := run(context.Background(), &bytes.Buffer{}, []string{"-site", sitePath, "-out", t.TempDir()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rendering index")
	d, ok := diag.As(err)
	require.True(t, ok)
	assert.Equal(t, diag.InterpreterError, d.Kind)
	assert.Equal(t, 1, d.Line)
}

func TestRun_InvalidSiteFile(t *testing.T) {
	t.Parallel()

	sitePath := writeSite(t, map[string]string{"site.hcl": "root = {\n"})

	err := run(context.Background(), &bytes.Buffer{}, []string{"-site", sitePath})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse site file")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{"-h"})

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
