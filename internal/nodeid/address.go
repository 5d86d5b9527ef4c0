package nodeid

import (
	"slices"
	"strconv"
	"strings"
)

// Root returns the address of the top-level node at position.
func Root(position int) *Address {
	return &Address{Path: []Segment{NewSegment(position)}}
}

// Child returns the address of the child at position. The receiver is not
// modified.
func (a *Address) Child(position int) *Address {
	path := make([]Segment, 0, len(a.Path)+1)
	path = append(path, a.Path...)
	return &Address{Path: append(path, NewSegment(position))}
}

// WithIteration returns a copy of the address whose last segment carries the
// loop iteration.
func (a *Address) WithIteration(iteration int) *Address {
	path := slices.Clone(a.Path)
	if len(path) > 0 {
		path[len(path)-1].Iteration = iteration
	}
	return &Address{Path: path}
}

// String serializes the Address into its canonical path string representation.
func (a *Address) String() string {
	if a == nil {
		return ""
	}

	var sb strings.Builder
	for i, segment := range a.Path {
		if i > 0 {
			sb.WriteRune('.')
		}
		sb.WriteString(strconv.Itoa(segment.Position))
		if segment.HasIteration() {
			sb.WriteRune('[')
			sb.WriteString(strconv.Itoa(segment.Iteration))
			sb.WriteRune(']')
		}
	}
	return sb.String()
}

// Full returns the id used in generated markup: `<path>:<docID>`.
func (a *Address) Full(docID string) string {
	return a.String() + ":" + docID
}

// Equal checks for deep equality between two Address pointers.
func (a *Address) Equal(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return slices.Equal(a.Path, other.Path)
}
