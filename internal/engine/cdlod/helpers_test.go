package cdlod

import (
	gomath "math"

	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

// funcField is a height field defined by a function of the post position.
type funcField struct {
	w, h   int
	height func(x, z int) float64
}

func flatField(w, h int) *funcField {
	return &funcField{w: w, h: h, height: func(int, int) float64 { return 0 }}
}

func (f *funcField) Extent() (int, int) { return f.w, f.h }

func (f *funcField) MinMaxHeightArea(x, z, w, h int) (float64, float64) {
	lo, hi := f.height(x, z), f.height(x, z)
	for j := z; j < z+h; j++ {
		for i := x; i < x+w; i++ {
			v := f.height(i, j)
			lo, hi = min(lo, v), max(hi, v)
		}
	}
	return lo, hi
}

type testCamera struct {
	pos       math.Vec3[float64]
	near, far float64
	frustum   *math.Frustum[float64]
}

func (c *testCamera) Position() math.Vec3[float64]        { return c.pos }
func (c *testCamera) NearPlane() float64                  { return c.near }
func (c *testCamera) FarPlane() float64                   { return c.far }
func (c *testCamera) ViewFrustum() *math.Frustum[float64] { return c.frustum }

// lookingDown returns a camera at pos looking along -Y with a 90 degree
// field of view.
func lookingDown(pos math.Vec3[float64], near, far float64) *testCamera {
	view := math.LookAt(pos, pos.Add(math.V3(0.0, -1, 0)), math.V3(0.0, 0, -1))
	proj := math.Perspective(gomath.Pi/2, 1.0, near, far)
	f := math.FrustumFromMatrix(proj.Mul(view))
	return &testCamera{pos: pos, near: near, far: far, frustum: &f}
}

// coverage counts, per cell of half a leaf, how many selected quadrants
// claim it and at which LOD level.
type coverage struct {
	cell   int
	nx, nz int
	count  []int
	level  []int
}

func newCoverage(qt *QuadTree[float64]) *coverage {
	w, h := qt.Extent()
	cell := qt.Settings().LeafNodeSize / 2
	c := &coverage{
		cell: cell,
		nx:   (w - 1 + cell - 1) / cell,
		nz:   (h - 1 + cell - 1) / cell,
	}
	c.count = make([]int, c.nx*c.nz)
	c.level = make([]int, c.nx*c.nz)
	for i := range c.level {
		c.level[i] = -1
	}
	return c
}

func (c *coverage) add(sel *Selection[float64]) {
	for _, sn := range sel.Nodes() {
		half := int(sn.Node.Size) / 2
		for q, draw := range sn.Quadrants {
			if !draw {
				continue
			}
			qx, qz := sn.Node.QuadrantOrigin(q)
			for z := int(qz) / c.cell; z < (int(qz)+half)/c.cell && z < c.nz; z++ {
				for x := int(qx) / c.cell; x < (int(qx)+half)/c.cell && x < c.nx; x++ {
					c.count[z*c.nx+x]++
					c.level[z*c.nx+x] = sn.LODLevel
				}
			}
		}
	}
}

// constField is a height field of constant height.
type constField struct {
	w, h int
	y    float64
}

func (f constField) Extent() (int, int) { return f.w, f.h }

func (f constField) MinMaxHeightArea(int, int, int, int) (float64, float64) { return f.y, f.y }

// leafBoxes maps leaf origins to their boxes.
func leafBoxes(qt *QuadTree[float64]) map[[2]int32]math.Box[float64] {
	m := make(map[[2]int32]math.Box[float64])
	for i := 0; i < qt.NodeCount(); i++ {
		n := qt.Node(int32(i))
		if n.Leaf {
			m[[2]int32{n.X, n.Z}] = n.Box
		}
	}
	return m
}

// leafOf returns the leaf box containing coverage cell (x, z).
func (c *coverage) leafOf(boxes map[[2]int32]math.Box[float64], leaf, x, z int) (math.Box[float64], bool) {
	lx := (x * c.cell) / leaf * leaf
	lz := (z * c.cell) / leaf * leaf
	b, ok := boxes[[2]int32{int32(lx), int32(lz)}]
	return b, ok
}
