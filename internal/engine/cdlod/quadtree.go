package cdlod

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

// HeightField supplies elevation extremes of a raster of posts.
type HeightField[T math.Float] interface {
	// Extent returns the raster size in posts.
	Extent() (width, height int)

	// MinMaxHeightArea returns the lowest and highest world height over
	// the posts [x, x+w) × [z, z+h). The area is inside the raster.
	MinMaxHeightArea(x, z, w, h int) (minY, maxY T)
}

// Placement positions a tile's raster in world space.
type Placement[T math.Float] struct {
	Origin  math.Vec3[T] // world position of post (0, 0)
	Spacing T            // distance between neighbouring posts
}

// QuadTree owns the nodes of one tile. The tree is immutable after
// construction and safe for concurrent selection.
type QuadTree[T math.Float] struct {
	settings  Settings
	placement Placement[T]
	width     int
	height    int

	nodes  []Node[T]
	roots  []int32
	rootsX int
	rootsZ int
}

// NewQuadTree builds the tree for a height field. All nodes are allocated
// in one arena sized by a counting pass before any node is created.
func NewQuadTree[T math.Float](hf HeightField[T], s Settings, p Placement[T], log *zap.Logger) (*QuadTree[T], error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if p.Spacing == 0 {
		p.Spacing = 1
	}
	if p.Spacing < 0 {
		return nil, fmt.Errorf("%w: post spacing %v", ErrInvalidSettings, p.Spacing)
	}

	w, h := hf.Extent()
	if w < 2 || h < 2 {
		return nil, fmt.Errorf("%w: %dx%d posts", ErrEmptyHeightField, w, h)
	}

	rootSize := s.RootNodeSize()
	qt := &QuadTree[T]{
		settings:  s,
		placement: p,
		width:     w,
		height:    h,
		rootsX:    (w - 1 + rootSize - 1) / rootSize,
		rootsZ:    (h - 1 + rootSize - 1) / rootSize,
	}

	count := 0
	for rz := 0; rz < qt.rootsZ; rz++ {
		for rx := 0; rx < qt.rootsX; rx++ {
			count += qt.countNodes(rx*rootSize, rz*rootSize, rootSize)
		}
	}
	qt.nodes = make([]Node[T], 0, count)
	qt.roots = make([]int32, 0, qt.rootsX*qt.rootsZ)

	for rz := 0; rz < qt.rootsZ; rz++ {
		for rx := 0; rx < qt.rootsX; rx++ {
			idx, err := qt.create(hf, rx*rootSize, rz*rootSize, rootSize, 0)
			if err != nil {
				return nil, err
			}
			qt.roots = append(qt.roots, idx)
		}
	}

	log.Debug("quadtree built",
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Int("roots", len(qt.roots)),
		zap.Int("nodes", len(qt.nodes)))
	return qt, nil
}

// hasPost reports whether a node origin lies inside the raster. A node
// needs at least one post to its right and below.
func (qt *QuadTree[T]) hasPost(x, z int) bool {
	return x < qt.width-1 && z < qt.height-1
}

func (qt *QuadTree[T]) countNodes(x, z, size int) int {
	if size <= qt.settings.LeafNodeSize {
		return 1
	}
	half := size / 2
	n := 1
	for _, off := range [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		cx, cz := x+off[0]*half, z+off[1]*half
		if qt.hasPost(cx, cz) {
			n += qt.countNodes(cx, cz, half)
		}
	}
	return n
}

func (qt *QuadTree[T]) create(hf HeightField[T], x, z, size, level int) (int32, error) {
	if len(qt.nodes) == cap(qt.nodes) {
		return noChild, fmt.Errorf("cdlod: node arena exhausted at %d nodes", len(qt.nodes))
	}

	w := min(size+1, qt.width-x)
	h := min(size+1, qt.height-z)
	minY, maxY := hf.MinMaxHeightArea(x, z, w, h)

	o, s := qt.placement.Origin, qt.placement.Spacing
	idx := int32(len(qt.nodes))
	qt.nodes = append(qt.nodes, Node[T]{
		X:     int32(x),
		Z:     int32(z),
		Size:  int32(size),
		Level: int32(level),
		MinY:  minY,
		MaxY:  maxY,
		Box: math.Box[T]{
			Min: o.Add(math.Vec3[T]{X: T(x) * s, Y: minY, Z: T(z) * s}),
			Max: o.Add(math.Vec3[T]{X: T(x+size) * s, Y: maxY, Z: T(z+size) * s}),
		},
		Children: [4]int32{noChild, noChild, noChild, noChild},
	})

	if size == qt.settings.LeafNodeSize {
		if level != qt.settings.LODLevels-1 {
			return noChild, fmt.Errorf("%w: size %d at level %d, want level %d",
				ErrLevelMismatch, size, level, qt.settings.LODLevels-1)
		}
		qt.nodes[idx].Leaf = true
		return idx, nil
	}

	half := size / 2
	for q, off := range [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		cx, cz := x+off[0]*half, z+off[1]*half
		if !qt.hasPost(cx, cz) {
			continue
		}
		child, err := qt.create(hf, cx, cz, half, level+1)
		if err != nil {
			return noChild, err
		}
		qt.nodes[idx].Children[q] = child
	}
	return idx, nil
}

// Settings returns the settings the tree was built with.
func (qt *QuadTree[T]) Settings() Settings { return qt.settings }

// Placement returns the world placement of the tile.
func (qt *QuadTree[T]) Placement() Placement[T] { return qt.placement }

// Extent returns the raster size in posts.
func (qt *QuadTree[T]) Extent() (width, height int) { return qt.width, qt.height }

// NodeCount returns the number of nodes in the arena.
func (qt *QuadTree[T]) NodeCount() int { return len(qt.nodes) }

// Node returns the node at arena index i.
func (qt *QuadTree[T]) Node(i int32) *Node[T] { return &qt.nodes[i] }

// Roots returns the arena indices of the root nodes in row-major order.
func (qt *QuadTree[T]) Roots() []int32 { return qt.roots }

// RootGrid returns the number of root nodes per axis.
func (qt *QuadTree[T]) RootGrid() (x, z int) { return qt.rootsX, qt.rootsZ }

// Bounds returns the world box enclosing all roots.
func (qt *QuadTree[T]) Bounds() math.Box[T] {
	b := math.Box[T]{Min: math.V3[T](1, 1, 1), Max: math.V3[T](-1, -1, -1)}
	for _, r := range qt.roots {
		b = b.Union(qt.nodes[r].Box)
	}
	return b
}

// Select appends the nodes of this tree chosen for the selection's current
// camera, tagging them with tile.
func (qt *QuadTree[T]) Select(sel *Selection[T], tile int) {
	for _, r := range qt.roots {
		qt.lodSelect(sel, r, tile, false)
	}
}
