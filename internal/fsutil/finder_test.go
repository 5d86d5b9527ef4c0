package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		path := filepath.Join(root, filepath.FromSlash(n))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o600))
	}
}

func TestDocumentNames(t *testing.T) {
	// Arrange
	root := t.TempDir()
	writeFiles(t, root, "index.quill", "site/common.quill", "notes.txt", "about.quill")

	// Act
	got, err := DocumentNames(root)

	// Assert
	require.NoError(t, err)
	want := []string{"about", "index", "site/common"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, filepath.Join(root, "site", "common.quill"), DocumentPath(root, "site/common"))
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.hcl", "b/c.hcl", "d.quill")

	got, err := FindFilesByExtension(root, ".hcl")

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(root, "a.hcl"), filepath.Join(root, "b", "c.hcl")}, got)
	assert.Panics(t, func() { _, _ = FindFilesByExtension(root, "") })

	_, err = FindFilesByExtension(filepath.Join(root, "missing"), ".hcl")
	assert.Error(t, err)
}
