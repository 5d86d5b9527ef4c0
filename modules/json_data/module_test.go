package json_data

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/quill/internal/registry"
)

func TestOnRunJSON(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "people.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"Ada"},{"name":"Linus"}]`), 0o600))

	r := registry.New()
	(&Module{}).Register(r)
	require.NoError(t, r.ValidateRegistry(context.Background()))

	people := cty.TupleVal([]cty.Value{
		cty.ObjectVal(map[string]cty.Value{"name": cty.StringVal("Ada")}),
		cty.ObjectVal(map[string]cty.Value{"name": cty.StringVal("Linus")}),
	})

	testCases := []struct {
		name    string
		args    map[string]string
		want    cty.Value
		wantErr string
	}{
		{name: "file", args: map[string]string{"path": path}, want: people},
		{name: "inline text", args: map[string]string{"text": `{"port": 8080}`}, want: cty.ObjectVal(map[string]cty.Value{"port": cty.NumberIntVal(8080)})},
		{name: "nothing to load", args: map[string]string{}, wantErr: "one of path or text is required"},
		{name: "both sources", args: map[string]string{"path": path, "text": "1"}, wantErr: "mutually exclusive"},
		{name: "missing file", args: map[string]string{"path": filepath.Join(t.TempDir(), "nope.json")}, wantErr: "reading"},
		{name: "malformed JSON", args: map[string]string{"text": "{"}, wantErr: "decoding JSON"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			got, err := r.Run(context.Background(), "json", tc.args)

			// Assert
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equals(got).True(), "got %#v", got)
		})
	}
}
