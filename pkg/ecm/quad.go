package ecm

import (
	"fmt"
)

// MaxQuadLevel is the deepest quad level addressable with int coordinates.
const MaxQuadLevel = 30

// Quad addresses one cell of the per-face quadtree. A face holds 2^Level
// quads per axis; X grows with face-local x and Y grows downward, so row 0
// touches face-local y = +1.
type Quad struct {
	Side  Side
	Level int
	X, Y  int
}

// String implements fmt.Stringer.
func (q Quad) String() string {
	return fmt.Sprintf("%v/%d/%d/%d", q.Side, q.Level, q.X, q.Y)
}

// Validate checks that the quad exists.
func (q Quad) Validate() error {
	if !q.Side.Valid() || q.Level < 0 || q.Level > MaxQuadLevel {
		return fmt.Errorf("%w: quad %v", ErrOutsideDomain, q)
	}
	n := 1 << q.Level
	if q.X < 0 || q.X >= n || q.Y < 0 || q.Y >= n {
		return fmt.Errorf("%w: quad %v", ErrOutsideDomain, q)
	}
	return nil
}

// Children returns the four sub-quads in TL, TR, BL, BR order.
func (q Quad) Children() [4]Quad {
	l, x, y := q.Level+1, q.X*2, q.Y*2
	return [4]Quad{
		{q.Side, l, x, y},
		{q.Side, l, x + 1, y},
		{q.Side, l, x, y + 1},
		{q.Side, l, x + 1, y + 1},
	}
}

// local returns the face-local coordinate of a quad-relative position. qx
// and qy may leave [0,1], in which case the result leaves the face.
func (q Quad) local(qx, qy float64) (x, y float64) {
	w := 2 / float64(int(1)<<q.Level)
	return -1 + w*(float64(q.X)+qx), 1 - w*(float64(q.Y)+qy)
}

// QuadToEcm maps a quad-relative position (qx, qy) in [0,1]² to the ECM
// plane.
func QuadToEcm(q Quad, qx, qy float64) Point {
	x, y := q.local(qx, qy)
	return SidePoint{X: x, Y: y, Side: q.Side}.Ecm()
}
