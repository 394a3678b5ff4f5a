package cdlod

import (
	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

// selectResult is the outcome of selecting a subtree.
type selectResult int

const (
	undefined selectResult = iota
	outOfFrustum
	outOfRange
	selected
)

// lodSelect selects the subtree at idx. A parent completely inside the
// frustum skips the frustum test for its whole subtree.
func (qt *QuadTree[T]) lodSelect(sel *Selection[T], idx int32, tile int, parentInFrustum bool) selectResult {
	n := &qt.nodes[idx]
	lodLevel := qt.settings.LODLevels - 1 - int(n.Level)

	inFrustum := parentInFrustum
	if !parentInFrustum {
		switch sel.frustum.BoxInFrustum(n.Box) {
		case math.Outside:
			return outOfFrustum
		case math.Inside:
			inFrustum = true
		}
	}

	r := sel.visibilityRanges[lodLevel]
	if !n.Box.IntersectsSphereSq(sel.camPos, r*r) {
		return outOfRange
	}

	var results [4]selectResult
	if !n.Leaf && lodLevel > sel.stopAtLevel {
		finer := sel.visibilityRanges[lodLevel-1]
		if n.Box.IntersectsSphereSq(sel.camPos, finer*finer) {
			for q, c := range n.Children {
				if c != noChild {
					results[q] = qt.lodSelect(sel, c, tile, inFrustum)
				}
			}
		}
	}

	var draw [4]bool
	anyDraw, anySelected := false, false
	for q := range results {
		switch {
		case results[q] == selected:
			anySelected = true
		case results[q] == outOfFrustum:
		case !n.Leaf && !n.HasChild(q):
			// Beyond the raster edge.
		default:
			draw[q] = true
			anyDraw = true
		}
	}

	if anyDraw && sel.add(SelectedNode[T]{
		Node:      n,
		Tile:      tile,
		LODLevel:  lodLevel,
		Quadrants: draw,
	}) {
		return selected
	}
	if anySelected {
		return selected
	}
	return outOfFrustum
}
