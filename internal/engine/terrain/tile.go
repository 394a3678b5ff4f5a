package terrain

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/cdlod-terrain/internal/engine/cdlod"
	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

// TileSpec describes a tile to load.
type TileSpec struct {
	Name        string     `yaml:"name"`
	Heightmap   string     `yaml:"heightmap"`
	Bounds      string     `yaml:"bounds,omitempty"` // optional .bb sidecar
	Origin      [3]float64 `yaml:"origin"`
	Spacing     float64    `yaml:"spacing"`
	HeightScale float64    `yaml:"height_scale"`
}

// Tile is one height field with its quadtree.
type Tile[T math.Float] struct {
	Name      string
	Grid      *Grid[T]
	Placement cdlod.Placement[T]
	Bounds    *TileBounds // nil without a sidecar
	Tree      *cdlod.QuadTree[T]
}

// NewTile builds the quadtree of an in-memory grid.
func NewTile[T math.Float](name string, g *Grid[T], p cdlod.Placement[T], s cdlod.Settings, log *zap.Logger) (*Tile[T], error) {
	tree, err := cdlod.NewQuadTree[T](g, s, p, log)
	if err != nil {
		return nil, fmt.Errorf("tile %s: %w", name, err)
	}
	return &Tile[T]{
		Name:      name,
		Grid:      g,
		Placement: tree.Placement(),
		Tree:      tree,
	}, nil
}

// LoadTile reads the height map and optional sidecar named by spec.
func LoadTile[T math.Float](spec TileSpec, s cdlod.Settings, log *zap.Logger) (*Tile[T], error) {
	name := spec.Name
	if name == "" {
		name = spec.Heightmap
	}
	scale := spec.HeightScale
	if scale == 0 {
		scale = 1
	}

	g, err := LoadGrid(spec.Heightmap, T(scale))
	if err != nil {
		return nil, fmt.Errorf("tile %s: %w", name, err)
	}

	var bounds *TileBounds
	if spec.Bounds != "" {
		b, err := LoadBounds(spec.Bounds)
		if err != nil {
			return nil, fmt.Errorf("tile %s: %w", name, err)
		}
		bounds = &b
	}

	p := cdlod.Placement[T]{
		Origin:  math.V3(T(spec.Origin[0]), T(spec.Origin[1]), T(spec.Origin[2])),
		Spacing: T(spec.Spacing),
	}
	t, err := NewTile(name, g, p, s, log)
	if err != nil {
		return nil, err
	}
	t.Bounds = bounds
	return t, nil
}

// WorldBounds returns the tile's box in world space. The sidecar box is
// used when present, else the quadtree roots.
func (t *Tile[T]) WorldBounds() math.Box[T] {
	if t.Bounds == nil {
		return t.Tree.Bounds()
	}
	b := t.Bounds.Box
	return math.Box[T]{Min: math.ConvertVec3[T](b.Min), Max: math.ConvertVec3[T](b.Max)}
}
