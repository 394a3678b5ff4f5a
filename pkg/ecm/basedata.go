package ecm

import (
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// BaseData holds the per-sample difference between the true ellipsoid
// surface and the bilinear patch spanned by a quad's corners, together with
// the true surface normals. Samples are row-major, n = Size + 2·Overlap per
// axis, row 0 at the quad's top edge.
type BaseData struct {
	Quad    Quad
	Size    int
	Overlap int
	Offsets []mgl64.Vec3
	Normals []mgl64.Vec3
}

// Samples returns the number of samples per axis.
func (d *BaseData) Samples() int {
	return d.Size + 2*d.Overlap
}

// At returns the offset and normal of sample (i, j).
func (d *BaseData) At(i, j int) (offset, normal mgl64.Vec3) {
	k := j*d.Samples() + i
	return d.Offsets[k], d.Normals[k]
}

func validateGrid(size, overlap int) error {
	if size < 2 || overlap < 0 || 2*overlap > size-1 {
		return fmt.Errorf("%w: size %d overlap %d", ErrOutsideDomain, size, overlap)
	}
	return nil
}

// QuadBaseData computes base data for q directly. Overlap samples that fall
// outside the face continue onto the neighbouring faces.
func (e *Ellipsoid) QuadBaseData(q Quad, size, overlap int) (*BaseData, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := validateGrid(size, overlap); err != nil {
		return nil, err
	}

	var corners [4]mgl64.Vec3
	for k, c := range [4][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		x, y := q.local(c[0], c[1])
		u, err := qscInverse(SidePoint{X: x, Y: y, Side: q.Side})
		if err != nil {
			return nil, fmt.Errorf("quad %v corner %d: %w", q, k, err)
		}
		corners[k] = e.SurfacePoint(u)
	}

	n := size + 2*overlap
	d := &BaseData{
		Quad:    q,
		Size:    size,
		Overlap: overlap,
		Offsets: make([]mgl64.Vec3, n*n),
		Normals: make([]mgl64.Vec3, n*n),
	}
	step := 1 / float64(size-1)
	for j := 0; j < n; j++ {
		qy := float64(j-overlap) * step
		for i := 0; i < n; i++ {
			qx := float64(i-overlap) * step
			x, y := q.local(qx, qy)
			sp, err := fold(q.Side, x, y)
			if err != nil {
				return nil, fmt.Errorf("quad %v sample (%d,%d): %w", q, i, j, err)
			}
			u, err := qscInverse(sp)
			if err != nil {
				return nil, fmt.Errorf("quad %v sample (%d,%d): %w", q, i, j, err)
			}
			p := e.SurfacePoint(u)
			flat := bilinear(corners, qx, qy)
			d.Offsets[j*n+i] = p.Sub(flat)
			d.Normals[j*n+i] = e.SurfaceNormal(p)
		}
	}
	return d, nil
}

func bilinear(c [4]mgl64.Vec3, qx, qy float64) mgl64.Vec3 {
	top := c[0].Mul(1 - qx).Add(c[1].Mul(qx))
	bottom := c[2].Mul(1 - qx).Add(c[3].Mul(qx))
	return top.Mul(1 - qy).Add(bottom.Mul(qy))
}

// Transformed maps base data of a symmetry quad onto the quad described by
// sym.
func (d *BaseData) Transformed(q Quad, sym Symmetry) *BaseData {
	n := d.Samples()
	out := &BaseData{
		Quad:    q,
		Size:    d.Size,
		Overlap: d.Overlap,
		Offsets: make([]mgl64.Vec3, n*n),
		Normals: make([]mgl64.Vec3, n*n),
	}
	for j := 0; j < n; j++ {
		sj := j
		if sym.MirrorY {
			sj = n - 1 - j
		}
		for i := 0; i < n; i++ {
			si := i
			if sym.MirrorX {
				si = n - 1 - i
			}
			off, nrm := d.At(si, sj)
			out.Offsets[j*n+i] = sym.Transform.Mul3x1(off)
			out.Normals[j*n+i] = sym.Transform.Mul3x1(nrm)
		}
	}
	return out
}

// BaseDataCache memoizes base data per symmetry quad for one grid layout.
// It is safe for concurrent use.
type BaseDataCache struct {
	ellipsoid *Ellipsoid
	size      int
	overlap   int

	mu      sync.Mutex
	entries map[Quad]*BaseData
}

// NewBaseDataCache returns an empty cache for grids of the given layout.
func NewBaseDataCache(e *Ellipsoid, size, overlap int) (*BaseDataCache, error) {
	if err := validateGrid(size, overlap); err != nil {
		return nil, err
	}
	return &BaseDataCache{
		ellipsoid: e,
		size:      size,
		overlap:   overlap,
		entries:   make(map[Quad]*BaseData),
	}, nil
}

// Len returns the number of cached symmetry quads.
func (c *BaseDataCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// QuadBaseDataSymmetric returns base data for q derived from its symmetry
// quad, computing the symmetry quad at most once.
func (c *BaseDataCache) QuadBaseDataSymmetric(q Quad) (*BaseData, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	sym := SymmetryQuadOf(q)

	c.mu.Lock()
	base, ok := c.entries[sym.Quad]
	c.mu.Unlock()
	if !ok {
		var err error
		base, err = c.ellipsoid.QuadBaseData(sym.Quad, c.size, c.overlap)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[sym.Quad] = base
		c.mu.Unlock()
	}
	return base.Transformed(q, sym), nil
}

// fold walks a face-local coordinate that left its face onto the
// neighbouring faces. The x overflow is resolved before the y overflow, so
// samples beyond a cube corner land on the horizontal neighbour's vertical
// neighbour.
func fold(s Side, x, y float64) (SidePoint, error) {
	for n := 0; n < 4; n++ {
		switch {
		case math.IsNaN(x) || math.IsNaN(y):
			return SidePoint{}, fmt.Errorf("%w: side %v (%g, %g)", ErrOutsideDomain, s, x, y)
		case x > 1:
			s, x, y = goRight(s, x, y)
		case x < -1:
			s, x, y = goLeft(s, x, y)
		case y > 1:
			s, x, y = goTop(s, x, y)
		case y < -1:
			s, x, y = goBottom(s, x, y)
		default:
			return SidePoint{X: x, Y: y, Side: s}, nil
		}
	}
	return SidePoint{}, fmt.Errorf("%w: side %v (%g, %g)", ErrOutsideDomain, s, x, y)
}

// The go* helpers fold the part of a coordinate beyond one face edge down
// the neighbouring face: a point d past the edge lies 1-d along the face
// normal on the cube surface of the neighbour.

func goRight(s Side, x, y float64) (Side, float64, float64) {
	f := &frames[s]
	c := f.n.Mul(2 - x).Add(f.ex).Add(f.ey.Mul(y))
	return onFace(sideWithNormal(f.ex), c)
}

func goLeft(s Side, x, y float64) (Side, float64, float64) {
	f := &frames[s]
	c := f.n.Mul(2 + x).Sub(f.ex).Add(f.ey.Mul(y))
	return onFace(sideWithNormal(f.ex.Mul(-1)), c)
}

func goTop(s Side, x, y float64) (Side, float64, float64) {
	f := &frames[s]
	c := f.n.Mul(2 - y).Add(f.ex.Mul(x)).Add(f.ey)
	return onFace(sideWithNormal(f.ey), c)
}

func goBottom(s Side, x, y float64) (Side, float64, float64) {
	f := &frames[s]
	c := f.n.Mul(2 + y).Add(f.ex.Mul(x)).Sub(f.ey)
	return onFace(sideWithNormal(f.ey.Mul(-1)), c)
}

func onFace(s Side, c mgl64.Vec3) (Side, float64, float64) {
	f := &frames[s]
	return s, c.Dot(f.ex), c.Dot(f.ey)
}
