package nodeid

// Segment is a single step of an address: the child position and, for nodes
// produced by a loop, the iteration index.
type Segment struct {
	Position  int
	Iteration int // -1 indicates the node was not produced by a loop.
}

// NewSegment creates a segment without an iteration.
func NewSegment(position int) Segment {
	return Segment{Position: position, Iteration: -1}
}

// NewSegmentWithIteration creates a segment for one loop iteration.
func NewSegmentWithIteration(position, iteration int) Segment {
	return Segment{Position: position, Iteration: iteration}
}

// HasIteration returns true if the segment was produced by a loop.
func (s Segment) HasIteration() bool {
	return s.Iteration != -1
}

// Address is the path from the tree root to a render node.
type Address struct {
	Path []Segment
}
