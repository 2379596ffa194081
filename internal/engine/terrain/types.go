// Package terrain selects level of detail for square terrain patches with a
// quadtree and picks a stitched index buffer for every visible leaf.
package terrain

import (
	"github.com/Faultbox/midgard-engine/pkg/math"
)

// NoNode marks a missing child or neighbour in the node arena.
const NoNode = -1

// Side names one edge of a square node. Left and right run along -X and +X,
// top and bottom along -Z and +Z.
type Side uint8

const (
	SideLeft Side = iota
	SideRight
	SideTop
	SideBottom
)

// Sides lists every side in flag bit order.
var Sides = [4]Side{SideLeft, SideRight, SideTop, SideBottom}

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	case SideTop:
		return "top"
	case SideBottom:
		return "bottom"
	}
	return "unknown"
}

// Node is one square of the quadtree. Nodes live in the tree's arena and
// reference each other by index.
type Node struct {
	Position math.Vec2 // min corner on the XZ plane
	Size     float32
	Depth    int
	LOD      int      // MaxDepth - Depth: smaller is finer
	Children [4]int32 // quadrants by (x half) + 2*(z half), NoNode for leaves
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return n.Children[0] == NoNode
}

// Center returns the middle of the node's square.
func (n *Node) Center() math.Vec2 {
	h := n.Size / 2
	return math.Vec2{X: n.Position.X + h, Y: n.Position.Y + h}
}

// quadrant returns the child slot containing p.
func (n *Node) quadrant(p math.Vec2) int {
	c := n.Center()
	q := 0
	if p.X >= c.X {
		q |= 1
	}
	if p.Y >= c.Y {
		q |= 2
	}
	return q
}

// Leaf is a render decision for one leaf node in the current frame.
type Leaf struct {
	Index     int
	Node      Node
	Morph     MorphFlags
	Variant   MorphVariant
	Supported bool
}

// Stats summarizes the leaves produced by the last update.
type Stats struct {
	Nodes       int
	Leaves      int
	Deepest     int
	Variants    [MorphVariantCount]int
	Unsupported int
}

// PatchVertex is one vertex of the shared unit patch grid.
type PatchVertex struct {
	Position [3]float32
	TexCoord [2]float32
}
