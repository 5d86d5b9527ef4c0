package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("index")
	require.Len(t, g.nodes, 1)
	assert.True(t, g.Has("index"))

	g.AddNode("index") // idempotent
	assert.Len(t, g.nodes, 1)

	g.AddNode("lib")
	assert.Len(t, g.nodes, 2)
	assert.False(t, g.Has("missing"))
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode("lib")
		g.AddNode("index")

		require.NoError(t, g.AddEdge("lib", "index")) // index imports lib

		assert.Contains(t, g.nodes["lib"].dependents, "index")
		assert.Contains(t, g.nodes["index"].deps, "lib")

		deps, err := g.Dependencies("index")
		require.NoError(t, err)
		assert.Equal(t, []string{"lib"}, deps)
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode("a")

		assert.ErrorContains(t, g.AddEdge("dne", "a"), "source node not found")
		assert.ErrorContains(t, g.AddEdge("a", "dne"), "destination node not found")
		assert.ErrorContains(t, g.AddEdge("a", "a"), "self-referential edge")

		_, err := g.Dependencies("dne")
		assert.ErrorContains(t, err, "node not found")
	})
}

func TestDetectCycles(t *testing.T) {
	testCases := []struct {
		name    string
		edges   [][2]string
		wantErr string
	}{
		{name: "empty graph"},
		{name: "diamond", edges: [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}}},
		{name: "direct cycle", edges: [][2]string{{"a", "b"}, {"b", "a"}}, wantErr: "a -> b -> a"},
		{name: "longer cycle", edges: [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}}, wantErr: "a -> b -> c -> a"},
		{name: "disjoint cycle", edges: [][2]string{{"a", "b"}, {"x", "y"}, {"y", "z"}, {"z", "y"}}, wantErr: "y -> z -> y"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := New()
			for _, e := range tc.edges {
				g.AddNode(e[0])
				g.AddNode(e[1])
				require.NoError(t, g.AddEdge(e[0], e[1]))
			}

			err := g.DetectCycles()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorContains(t, err, "cycle detected")
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
