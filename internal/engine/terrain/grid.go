package terrain

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

// Grid is an in-memory raster of world heights, row-major with z rows.
type Grid[T math.Float] struct {
	width, height int
	heights       []T
}

// NewGrid returns a grid of the given size with all heights zero.
func NewGrid[T math.Float](width, height int) (*Grid[T], error) {
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("terrain: grid %dx%d too small", width, height)
	}
	return &Grid[T]{
		width:   width,
		height:  height,
		heights: make([]T, width*height),
	}, nil
}

// FlatGrid returns a grid of constant height.
func FlatGrid[T math.Float](width, height int, y T) (*Grid[T], error) {
	g, err := NewGrid[T](width, height)
	if err != nil {
		return nil, err
	}
	for i := range g.heights {
		g.heights[i] = y
	}
	return g, nil
}

// Extent returns the raster size in posts.
func (g *Grid[T]) Extent() (width, height int) {
	return g.width, g.height
}

// At returns the height of post (x, z), clamped to the raster.
func (g *Grid[T]) At(x, z int) T {
	x = max(0, min(x, g.width-1))
	z = max(0, min(z, g.height-1))
	return g.heights[z*g.width+x]
}

// Set stores the height of post (x, z).
func (g *Grid[T]) Set(x, z int, y T) {
	g.heights[z*g.width+x] = y
}

// MinMaxHeightArea returns the height extremes over [x, x+w) × [z, z+h),
// clipped to the raster.
func (g *Grid[T]) MinMaxHeightArea(x, z, w, h int) (minY, maxY T) {
	x0, z0 := max(0, x), max(0, z)
	x1, z1 := min(g.width, x+w), min(g.height, z+h)
	if x0 >= x1 || z0 >= z1 {
		y := g.At(x, z)
		return y, y
	}

	minY, maxY = g.heights[z0*g.width+x0], g.heights[z0*g.width+x0]
	for j := z0; j < z1; j++ {
		row := g.heights[j*g.width+x0 : j*g.width+x1]
		for _, y := range row {
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	return minY, maxY
}

// Sample returns the bilinearly interpolated height at a fractional post
// position.
func (g *Grid[T]) Sample(x, z T) T {
	fx := gomath.Floor(float64(x))
	fz := gomath.Floor(float64(z))
	ix, iz := int(fx), int(fz)
	tx, tz := x-T(fx), z-T(fz)

	top := g.At(ix, iz)*(1-tx) + g.At(ix+1, iz)*tx
	bottom := g.At(ix, iz+1)*(1-tx) + g.At(ix+1, iz+1)*tx
	return top*(1-tz) + bottom*tz
}

// Range returns the lowest and highest height of the whole grid.
func (g *Grid[T]) Range() (minY, maxY T) {
	return g.MinMaxHeightArea(0, 0, g.width, g.height)
}
