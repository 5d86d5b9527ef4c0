package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress_String(t *testing.T) {
	testCases := []struct {
		name        string
		addr        *Address
		expectedStr string
	}{
		{
			name:        "single segment",
			addr:        Root(0),
			expectedStr: "0",
		},
		{
			name:        "nested with iteration",
			addr:        Root(1).Child(2).WithIteration(3).Child(0),
			expectedStr: "1.2[3].0",
		},
		{
			name:        "nil address",
			addr:        nil,
			expectedStr: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedStr, tc.addr.String())
		})
	}
}

func TestAddress_ChildDoesNotAlias(t *testing.T) {
	parent := Root(0)
	a := parent.Child(1)
	b := parent.Child(2)

	assert.Equal(t, "0.1", a.String())
	assert.Equal(t, "0.2", b.String())
	assert.Equal(t, "0", parent.String())
}

func TestParse(t *testing.T) {
	testCases := []struct {
		name         string
		rawID        string
		expectErr    bool
		expectedAddr *Address
	}{
		{
			name:         "simple path",
			rawID:        "0.1.2",
			expectedAddr: &Address{Path: []Segment{NewSegment(0), NewSegment(1), NewSegment(2)}},
		},
		{
			name:         "path with iterations",
			rawID:        "0.3[15].1",
			expectedAddr: &Address{Path: []Segment{NewSegment(0), NewSegmentWithIteration(3, 15), NewSegment(1)}},
		},
		{name: "error - empty string", rawID: "", expectErr: true},
		{name: "error - empty segment", rawID: "0..1", expectErr: true},
		{name: "error - name segment", rawID: "0.a", expectErr: true},
		{name: "error - bad iteration", rawID: "0[x]", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			addr, err := Parse(tc.rawID)

			if tc.expectErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.True(t, tc.expectedAddr.Equal(addr), "parsed address does not match expected address")
			assert.Equal(t, tc.rawID, addr.String())
		})
	}
}

func TestParseFull(t *testing.T) {
	addr, doc, err := ParseFull(Root(0).Child(4).Full("site/index"))
	require.NoError(t, err)
	assert.Equal(t, "site/index", doc)
	assert.Equal(t, "0.4", addr.String())

	_, _, err = ParseFull("0.4")
	assert.Error(t, err)
	_, _, err = ParseFull("0.4:")
	assert.Error(t, err)
}

func TestAddress_Equal(t *testing.T) {
	a, _ := Parse("0.1[2]")
	b, _ := Parse("0.1[2]")
	c, _ := Parse("0.1[3]")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
	assert.False(t, (*Address)(nil).Equal(a))
	assert.True(t, (*Address)(nil).Equal(nil))
}
