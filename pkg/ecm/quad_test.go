package ecm

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuadToEcm(t *testing.T) {
	tests := []struct {
		q      Quad
		qx, qy float64
		want   Point
	}{
		{Quad{Front, 0, 0, 0}, 0, 0, Point{-1, 1}},
		{Quad{Front, 0, 0, 0}, 1, 1, Point{1, -1}},
		{Quad{Front, 0, 0, 0}, 0.5, 0.5, Point{0, 0}},
		{Quad{Right, 1, 1, 0}, 0, 0, Point{2, 1}},
		{Quad{Left, 2, 3, 3}, 1, 1, Point{7, -1}},
		{Quad{Top, 1, 0, 1}, 0.5, 0.5, Point{-0.5, 1.5}},
		{Quad{Bottom, 1, 1, 0}, 0, 0, Point{0, -1}},
	}
	for _, tt := range tests {
		got := QuadToEcm(tt.q, tt.qx, tt.qy)
		assert.InDelta(t, tt.want.X, got.X, 1e-12, "x of %v (%v,%v)", tt.q, tt.qx, tt.qy)
		assert.InDelta(t, tt.want.Y, got.Y, 1e-12, "y of %v (%v,%v)", tt.q, tt.qx, tt.qy)
	}
}

func TestQuadValidate(t *testing.T) {
	require.NoError(t, Quad{Top, 3, 7, 0}.Validate())
	for _, q := range []Quad{
		{Top, 3, 8, 0},
		{Front, -1, 0, 0},
		{Side(6), 0, 0, 0},
		{Back, 2, 0, -1},
		{Back, MaxQuadLevel + 1, 0, 0},
	} {
		if err := q.Validate(); !errors.Is(err, ErrOutsideDomain) {
			t.Errorf("Validate(%v) = %v, want ErrOutsideDomain", q, err)
		}
	}
}

func TestQuadChildrenCoverParent(t *testing.T) {
	q := Quad{Back, 2, 1, 3}
	kids := q.Children()
	tl := QuadToEcm(kids[0], 0, 0)
	br := QuadToEcm(kids[3], 1, 1)
	assert.Equal(t, QuadToEcm(q, 0, 0), tl)
	assert.InDelta(t, QuadToEcm(q, 1, 1).X, br.X, 1e-12)
	assert.InDelta(t, QuadToEcm(q, 1, 1).Y, br.Y, 1e-12)
	assert.Equal(t, Quad{Back, 3, 3, 7}, kids[3])
}

func near(a, b mgl64.Vec3, tol float64) bool {
	return a.Sub(b).Len() <= tol
}

// direction returns the unit direction of a quad-relative position.
func direction(t *testing.T, q Quad, qx, qy float64) mgl64.Vec3 {
	t.Helper()
	x, y := q.local(qx, qy)
	u, err := qscInverse(SidePoint{X: x, Y: y, Side: q.Side})
	require.NoError(t, err)
	return u
}

func eachQuad(levels int, fn func(Quad)) {
	for s := Front; s <= Bottom; s++ {
		for l := 0; l < levels; l++ {
			n := 1 << l
			for y := 0; y < n; y++ {
				for x := 0; x < n; x++ {
					fn(Quad{s, l, x, y})
				}
			}
		}
	}
}

func TestSymmetryQuadIsCanonical(t *testing.T) {
	eachQuad(4, func(q Quad) {
		sym := SymmetryQuadOf(q)
		n := 1 << q.Level
		assert.Contains(t, []Side{Front, Top}, sym.Quad.Side, "%v", q)
		assert.Equal(t, q.Level, sym.Quad.Level)
		if n > 1 {
			assert.GreaterOrEqual(t, sym.Quad.X, n/2, "%v -> %v", q, sym.Quad)
			assert.Less(t, sym.Quad.Y, n/2, "%v -> %v", q, sym.Quad)
		}

		// Orthogonal with determinant ±1.
		m := sym.Transform
		assert.InDelta(t, 1, math.Abs(m.Det()), 1e-12)
		assert.True(t, m.Mul3(m.Transpose()).ApproxEqualThreshold(mgl64.Ident3(), 1e-12))
	})
}

func TestSymmetryTransformMapsDirections(t *testing.T) {
	samples := [][2]float64{{0, 0}, {1, 0}, {0.3, 0.8}, {1, 1}, {0.5, 0.25}}
	eachQuad(3, func(q Quad) {
		sym := SymmetryQuadOf(q)
		for _, s := range samples {
			qx, qy := s[0], s[1]
			sx, sy := qx, qy
			if sym.MirrorX {
				sx = 1 - qx
			}
			if sym.MirrorY {
				sy = 1 - qy
			}
			want := direction(t, q, qx, qy)
			got := sym.Transform.Mul3x1(direction(t, sym.Quad, sx, sy))
			assert.True(t, near(want, got, 1e-12), "%v at (%v,%v): %v != %v", q, qx, qy, want, got)
		}
	})
}

func TestFoldAcrossEdges(t *testing.T) {
	tests := []struct {
		name string
		s    Side
		x, y float64
		want SidePoint
	}{
		{"front to right", Front, 1.25, 0.5, SidePoint{-0.75, 0.5, Right}},
		{"front to left", Front, -1.25, -0.5, SidePoint{0.75, -0.5, Left}},
		{"front to top", Front, 0.5, 1.25, SidePoint{0.5, -0.75, Top}},
		{"front to bottom", Front, 0.5, -1.25, SidePoint{0.5, 0.75, Bottom}},
		{"left wraps to front", Left, 1.5, 0, SidePoint{-0.5, 0, Front}},
		{"top to back", Top, 0, 1.5, SidePoint{0, 0.5, Back}},
		{"bottom to back", Bottom, 0, -1.5, SidePoint{0, -0.5, Back}},
		{"inside unchanged", Right, 0.2, -0.3, SidePoint{0.2, -0.3, Right}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fold(tt.s, tt.x, tt.y)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Side, got.Side)
			assert.InDelta(t, tt.want.X, got.X, 1e-12)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-12)
		})
	}
}

func TestFoldCornerGoesHorizontalFirst(t *testing.T) {
	got, err := fold(Front, 1.1, 1.1)
	require.NoError(t, err)
	assert.Equal(t, Top, got.Side)
	assert.InDelta(t, 0.9, got.X, 1e-12)
	assert.InDelta(t, -0.9, got.Y, 1e-12)
}

func TestQuadBaseDataShape(t *testing.T) {
	d, err := WGS84.QuadBaseData(Quad{Front, 2, 1, 2}, 9, 1)
	require.NoError(t, err)
	require.Equal(t, 11, d.Samples())
	require.Len(t, d.Offsets, 121)
	require.Len(t, d.Normals, 121)

	// The flat patch passes through the corners.
	for _, ij := range [][2]int{{1, 1}, {9, 1}, {1, 9}, {9, 9}} {
		off, _ := d.At(ij[0], ij[1])
		assert.InDelta(t, 0, off.Len(), 1e-6, "corner %v", ij)
	}

	// The curved surface bulges outward from the chord in the middle.
	off, nrm := d.At(5, 5)
	assert.Greater(t, off.Dot(nrm), 0.0)
	assert.InDelta(t, 1, nrm.Len(), 1e-12)
}

func TestQuadBaseDataInvalid(t *testing.T) {
	_, err := WGS84.QuadBaseData(Quad{Front, 1, 2, 0}, 9, 1)
	assert.ErrorIs(t, err, ErrOutsideDomain)
	_, err = WGS84.QuadBaseData(Quad{Front, 1, 0, 0}, 1, 0)
	assert.ErrorIs(t, err, ErrOutsideDomain)
	_, err = WGS84.QuadBaseData(Quad{Front, 1, 0, 0}, 9, 5)
	assert.ErrorIs(t, err, ErrOutsideDomain)
}

func TestSymmetricBaseDataMatchesDirect(t *testing.T) {
	const size, overlap = 9, 2
	cache, err := NewBaseDataCache(WGS84, size, overlap)
	require.NoError(t, err)

	quads := []Quad{
		{Front, 0, 0, 0},
		{Bottom, 0, 0, 0},
		{Right, 1, 0, 1},
		{Back, 2, 1, 3},
		{Left, 2, 3, 0},
		{Top, 2, 0, 3},
		{Bottom, 3, 2, 6},
		{Front, 3, 7, 0},
		{Back, 2, 2, 0},
		{Top, 2, 3, 0},
	}
	for _, q := range quads {
		direct, err := WGS84.QuadBaseData(q, size, overlap)
		require.NoError(t, err)
		sym, err := cache.QuadBaseDataSymmetric(q)
		require.NoError(t, err)

		n := direct.Samples()
		for k := 0; k < n*n; k++ {
			if !near(direct.Offsets[k], sym.Offsets[k], 1e-4) {
				t.Fatalf("%v sample %d offset: direct %v, symmetric %v", q, k, direct.Offsets[k], sym.Offsets[k])
			}
			if !near(direct.Normals[k], sym.Normals[k], 1e-9) {
				t.Fatalf("%v sample %d normal: direct %v, symmetric %v", q, k, direct.Normals[k], sym.Normals[k])
			}
		}
	}
	assert.Less(t, cache.Len(), len(quads))
}
