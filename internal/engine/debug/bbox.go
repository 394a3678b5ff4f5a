// Package debug provides debug visualization utilities.
package debug

import (
	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

// Line vertex layout: position (3), colour (3), LOD level (1).
const (
	LineVertexFloats = 7
	// BBoxWireframeVertexCount is the number of vertices for a box
	// wireframe (12 edges × 2).
	BBoxWireframeVertexCount = 24
)

// Color is a linear RGB colour.
type Color [3]float32

var levelPalette = []Color{
	{0.95, 0.25, 0.20},
	{0.95, 0.60, 0.15},
	{0.90, 0.90, 0.20},
	{0.35, 0.85, 0.30},
	{0.20, 0.75, 0.85},
	{0.30, 0.40, 0.95},
	{0.70, 0.35, 0.90},
}

// LevelColor returns the colour of a LOD level, 0 being the finest.
func LevelColor(level int) Color {
	if level < 0 {
		level = 0
	}
	return levelPalette[level%len(levelPalette)]
}

// boxEdges indexes math.Box Corners in pairs.
var boxEdges = [12][2]int{
	// Bottom face
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	// Top face
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	// Vertical edges
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// AppendBox appends the 24 line vertices of a box wireframe to dst.
// level is passed to the shader to look up morph constants; use -1 for
// boxes that do not morph.
func AppendBox(dst []float32, b math.Box[float32], c Color, level float32) []float32 {
	corners := b.Corners()
	for _, e := range boxEdges {
		for _, i := range e {
			p := corners[i]
			dst = append(dst, p.X, p.Y, p.Z, c[0], c[1], c[2], level)
		}
	}
	return dst
}

// AppendQuadrants appends the box outline of each drawn quadrant of a node
// footprint, flattened to the node's minimum height. Quadrants are indexed
// top-left, top-right, bottom-left, bottom-right.
func AppendQuadrants(dst []float32, b math.Box[float32], drawn [4]bool, c Color, level float32) []float32 {
	mid := b.Center()
	for q, ok := range drawn {
		if !ok {
			continue
		}
		qb := math.Box[float32]{Min: b.Min, Max: math.V3(mid.X, b.Max.Y, mid.Z)}
		if q&1 == 1 {
			qb.Min.X, qb.Max.X = mid.X, b.Max.X
		}
		if q&2 == 2 {
			qb.Min.Z, qb.Max.Z = mid.Z, b.Max.Z
		}
		qb.Max.Y = qb.Min.Y
		dst = AppendBox(dst, qb, c, level)
	}
	return dst
}

// DefaultBBoxPadding is the default padding for cascade boxes.
const DefaultBBoxPadding = 1.0
