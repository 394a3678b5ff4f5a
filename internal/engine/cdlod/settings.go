// Package cdlod implements continuous distance-dependent level of detail
// for height-field terrain: an arena-allocated quadtree per tile and the
// per-frame view-dependent node selection.
//
// Two level numbers are used. The tree level counts from the root (0) down
// to the leaves (LODLevels-1). The LOD level counts the other way, 0 being
// the finest; visibility ranges, morph constants and SelectedNode.LODLevel
// are indexed by LOD level.
package cdlod

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSettings is returned for configurations that cannot build a
	// tree or compute ranges.
	ErrInvalidSettings = errors.New("cdlod: invalid settings")

	// ErrLevelMismatch is returned when a leaf is created at a tree level
	// other than the last one.
	ErrLevelMismatch = errors.New("cdlod: leaf at wrong level")

	// ErrEmptyHeightField is returned for rasters smaller than 2x2 posts.
	ErrEmptyHeightField = errors.New("cdlod: height field too small")
)

// Limits for Settings values.
const (
	MaxLODLevels     = 15
	MinDistanceRatio = 1.5
	MaxDistanceRatio = 16.0
)

// Settings configures tree construction and selection.
type Settings struct {
	// LeafNodeSize is the footprint of a leaf in posts. Power of two.
	LeafNodeSize int `yaml:"leaf_node_size"`

	// LODLevels is the depth of the tree.
	LODLevels int `yaml:"lod_levels"`

	// DistanceRatio is the growth factor between consecutive visibility
	// ranges.
	DistanceRatio float64 `yaml:"distance_ratio"`

	// MorphStartRatio places the morph start inside each range band.
	MorphStartRatio float64 `yaml:"morph_start_ratio"`

	// MaxSelectedNodes caps the selection buffer.
	MaxSelectedNodes int `yaml:"max_selected_nodes"`

	// SortByDistance sorts the selection front to back after selecting.
	SortByDistance bool `yaml:"sort_by_distance"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		LeafNodeSize:     32,
		LODLevels:        6,
		DistanceRatio:    2.0,
		MorphStartRatio:  0.66,
		MaxSelectedNodes: 4096,
		SortByDistance:   true,
	}
}

// Validate checks that s describes a buildable tree.
func (s Settings) Validate() error {
	switch {
	case s.LeafNodeSize < 2 || s.LeafNodeSize&(s.LeafNodeSize-1) != 0:
		return fmt.Errorf("%w: leaf node size %d is not a power of two >= 2", ErrInvalidSettings, s.LeafNodeSize)
	case s.LODLevels < 1 || s.LODLevels > MaxLODLevels:
		return fmt.Errorf("%w: lod levels %d not in [1, %d]", ErrInvalidSettings, s.LODLevels, MaxLODLevels)
	case !(s.DistanceRatio >= MinDistanceRatio && s.DistanceRatio <= MaxDistanceRatio):
		return fmt.Errorf("%w: distance ratio %g not in [%g, %g]", ErrInvalidSettings, s.DistanceRatio, MinDistanceRatio, MaxDistanceRatio)
	case !(s.MorphStartRatio >= 0 && s.MorphStartRatio < 1):
		return fmt.Errorf("%w: morph start ratio %g not in [0, 1)", ErrInvalidSettings, s.MorphStartRatio)
	case s.MaxSelectedNodes < 1:
		return fmt.Errorf("%w: max selected nodes %d", ErrInvalidSettings, s.MaxSelectedNodes)
	}
	return nil
}

// RootNodeSize returns the footprint of a root node in posts.
func (s Settings) RootNodeSize() int {
	return s.LeafNodeSize << (s.LODLevels - 1)
}
