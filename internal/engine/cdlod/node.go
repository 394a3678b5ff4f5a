package cdlod

import (
	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

// Quadrant indices into Node.Children and SelectedNode.Quadrants.
const (
	TopLeft = iota
	TopRight
	BottomLeft
	BottomRight
)

// noChild marks an absent child.
const noChild int32 = -1

// Node is one square region of a tile. Nodes live in the QuadTree arena and
// refer to their children by arena index.
type Node[T math.Float] struct {
	X, Z     int32 // origin in posts
	Size     int32 // footprint in posts
	Level    int32 // tree level, 0 = root
	Leaf     bool
	MinY     T
	MaxY     T
	Box      math.Box[T]
	Children [4]int32
}

// HasChild reports whether quadrant q has a child node.
func (n *Node[T]) HasChild(q int) bool {
	return n.Children[q] != noChild
}

// QuadrantOrigin returns the post coordinate of quadrant q.
func (n *Node[T]) QuadrantOrigin(q int) (x, z int32) {
	h := n.Size / 2
	switch q {
	case TopRight:
		return n.X + h, n.Z
	case BottomLeft:
		return n.X, n.Z + h
	case BottomRight:
		return n.X + h, n.Z + h
	}
	return n.X, n.Z
}
