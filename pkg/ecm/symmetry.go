package ecm

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Symmetry relates a quad to its canonical representative in the first
// quadrant (face-local x >= 0, y >= 0) of the front or top face.
//
// For any direction v_sym of the symmetry quad, Transform · v_sym is the
// matching direction of the original quad. Sample (i, j) of the original
// corresponds to sample (i', j') of the symmetry quad, with i' = n-1-i when
// MirrorX and j' = n-1-j when MirrorY.
type Symmetry struct {
	Quad      Quad
	MirrorX   bool
	MirrorY   bool
	Transform mgl64.Mat3
}

// Rotations about Z taking the front frame onto the side frames.
var sideRotations = [4]mgl64.Mat3{
	Front: mgl64.Ident3(),
	Right: {0, 1, 0, -1, 0, 0, 0, 0, 1},
	Back:  {-1, 0, 0, 0, -1, 0, 0, 0, 1},
	Left:  {0, -1, 0, 1, 0, 0, 0, 0, 1},
}

var (
	mirrorX   = mgl64.Diag3(mgl64.Vec3{-1, 1, 1})
	mirrorY   = mgl64.Diag3(mgl64.Vec3{1, -1, 1})
	mirrorZ   = mgl64.Diag3(mgl64.Vec3{1, 1, -1})
	identity3 = mgl64.Ident3()
)

// SymmetryQuadOf reduces q to its symmetry quad. Up to eight quads of a face
// share one symmetry quad; the four side faces share the front's and the
// bottom shares the top's.
func SymmetryQuadOf(q Quad) Symmetry {
	var base mgl64.Mat3
	canon := q
	flipY := false
	switch q.Side {
	case Front, Right, Back, Left:
		base = sideRotations[q.Side]
		canon.Side = Front
	case Top:
		base = identity3
	case Bottom:
		base = mirrorZ
		canon.Side = Top
		flipY = true
	}

	n := 1 << q.Level
	if flipY {
		canon.Y = n - 1 - canon.Y
	}

	// Local ex is +Y on both canonical faces; local ey is +Z on the front
	// and -X on the top.
	mirror := identity3
	var mx, my bool
	if n > 1 {
		if canon.X < n/2 {
			mx = true
			canon.X = n - 1 - canon.X
			mirror = mirror.Mul3(mirrorY)
		}
		if canon.Y >= n/2 {
			my = true
			canon.Y = n - 1 - canon.Y
			if canon.Side == Front {
				mirror = mirror.Mul3(mirrorZ)
			} else {
				mirror = mirror.Mul3(mirrorX)
			}
		}
	}

	return Symmetry{
		Quad:      canon,
		MirrorX:   mx,
		MirrorY:   my != flipY,
		Transform: base.Mul3(mirror),
	}
}
