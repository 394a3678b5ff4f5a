package ecm

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Side identifies one of the six cube faces.
//
// The faces are unfolded into the ECM plane as a cross, each face two units
// wide so that face-local coordinates are [-1,1]²:
//
//	          +-----+
//	          |  4  |            y in (1, 3]
//	  +-----+-----+-----+-----+
//	  |  0  |  1  |  2  |  3  |  y in [-1, 1]
//	  +-----+-----+-----+-----+
//	          |  5  |            y in [-3, -1]
//	          +-----+
//	  x: -1    1     3     5     7
//
// Side 0 owns x in [-1,1), side 1 [1,3), side 2 [3,5), side 3 [5,7].
// Top and bottom span x in [-1,1] above and below side 0. The bottom face
// owns the edge y = -1 it shares with side 0; the top face does not own y = 1.
type Side int

const (
	Front Side = iota
	Right
	Back
	Left
	Top
	Bottom
)

// NumSides is the number of cube faces.
const NumSides = 6

var sideNames = [NumSides]string{"front", "right", "back", "left", "top", "bottom"}

// String implements fmt.Stringer.
func (s Side) String() string {
	if s < 0 || s >= NumSides {
		return fmt.Sprintf("side(%d)", int(s))
	}
	return sideNames[s]
}

// Valid reports whether s names a cube face.
func (s Side) Valid() bool {
	return s >= Front && s <= Bottom
}

// frame is the orientation of a face in geocentric cartesian coordinates:
// the outward normal and the directions of face-local x and y.
type frame struct {
	n, ex, ey mgl64.Vec3
}

var (
	axisX = mgl64.Vec3{1, 0, 0}
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)

// frames are chosen so that the unfolded cross is continuous across every
// edge drawn in the Side diagram.
var frames = [NumSides]frame{
	Front:  {n: axisX, ex: axisY, ey: axisZ},
	Right:  {n: axisY, ex: axisX.Mul(-1), ey: axisZ},
	Back:   {n: axisX.Mul(-1), ex: axisY.Mul(-1), ey: axisZ},
	Left:   {n: axisY.Mul(-1), ex: axisX, ey: axisZ},
	Top:    {n: axisZ, ex: axisY, ey: axisX.Mul(-1)},
	Bottom: {n: axisZ.Mul(-1), ex: axisY, ey: axisX},
}

// sideWithNormal returns the face whose outward normal is the axis n.
func sideWithNormal(n mgl64.Vec3) Side {
	for s := Front; s <= Bottom; s++ {
		if frames[s].n == n {
			return s
		}
	}
	panic("ecm: not a face normal")
}

// Point is a coordinate in the unfolded ECM plane.
type Point struct {
	X, Y float64
}

// SidePoint is a face-local coordinate in [-1,1]² on the given side.
type SidePoint struct {
	X, Y float64
	Side Side
}

// SideOf classifies an ECM plane coordinate into the face that owns it.
func SideOf(p Point) (Side, error) {
	x, y := p.X, p.Y
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, fmt.Errorf("%w: (%g, %g)", ErrOutsideDomain, x, y)
	}
	switch {
	case y > 1:
		if x >= -1 && x <= 1 && y <= 3 {
			return Top, nil
		}
	case y < -1:
		if x >= -1 && x <= 1 && y >= -3 {
			return Bottom, nil
		}
	default:
		if y == -1 && x >= -1 && x <= 1 {
			return Bottom, nil
		}
		if x >= -1 && x <= 7 {
			s := Side(math.Floor((x + 1) / 2))
			if s > Left {
				s = Left
			}
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: (%g, %g)", ErrOutsideDomain, x, y)
}

// ToSide converts an ECM plane coordinate to face-local coordinates.
func ToSide(p Point) (SidePoint, error) {
	s, err := SideOf(p)
	if err != nil {
		return SidePoint{}, err
	}
	switch s {
	case Top:
		return SidePoint{X: p.X, Y: p.Y - 2, Side: s}, nil
	case Bottom:
		return SidePoint{X: p.X, Y: p.Y + 2, Side: s}, nil
	}
	return SidePoint{X: p.X - 2*float64(s), Y: p.Y, Side: s}, nil
}

// Ecm converts face-local coordinates back to the ECM plane.
func (sp SidePoint) Ecm() Point {
	switch sp.Side {
	case Top:
		return Point{X: sp.X, Y: sp.Y + 2}
	case Bottom:
		return Point{X: sp.X, Y: sp.Y - 2}
	}
	return Point{X: sp.X + 2*float64(sp.Side), Y: sp.Y}
}

// inFace reports whether the face-local coordinate lies on its face.
func (sp SidePoint) inFace() bool {
	return sp.Side.Valid() && sp.X >= -1 && sp.X <= 1 && sp.Y >= -1 && sp.Y <= 1
}
