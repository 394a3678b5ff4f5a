package cdlod

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

// Camera is the view a selection is made for.
//
// A zero math.Frustum classifies every box as inside, which disables
// frustum culling.
type Camera[T math.Float] interface {
	Position() math.Vec3[T]
	NearPlane() T
	FarPlane() T
	ViewFrustum() *math.Frustum[T]
}

// morphErrorFudge pulls the morph end slightly towards the morph start so
// the morph factor reaches 1 before the range boundary.
const morphErrorFudge = 0.01

// SelectedNode is one entry of the selection buffer.
type SelectedNode[T math.Float] struct {
	Node     *Node[T]
	Tile     int
	LODLevel int

	// Quadrants flags, indexed by TopLeft..BottomRight, the quadrants of the
	// node's footprint this node must draw. Unset quadrants are drawn by
	// finer nodes, are outside the frustum, or have no terrain.
	Quadrants [4]bool

	// DistanceSq is the squared distance from the camera to the node box;
	// set by SortByDistance.
	DistanceSq T
}

// Full reports whether all four quadrants are drawn by this node.
func (n *SelectedNode[T]) Full() bool {
	return n.Quadrants[0] && n.Quadrants[1] && n.Quadrants[2] && n.Quadrants[3]
}

// Selection holds the per-frame selection state: visibility and morph
// ranges for the camera's near and far planes and the fixed-capacity buffer
// of selected nodes.
//
// A Selection is not safe for concurrent use. Use Fork to select tiles in
// parallel and Merge to combine the results.
type Selection[T math.Float] struct {
	settings Settings
	log      *zap.Logger

	near, far        T
	rangesValid      bool
	visibilityRanges []T
	morphStart       []T
	morphEnd         []T

	camPos      math.Vec3[T]
	frustum     math.Frustum[T]
	stopAtLevel int

	nodes      []SelectedNode[T]
	minLevel   int
	maxLevel   int
	overflowed bool

	frame       uint64
	warnedFrame uint64
	started     time.Time
	fork        bool
}

// NewSelection allocates a selection buffer of s.MaxSelectedNodes entries.
func NewSelection[T math.Float](s Settings, log *zap.Logger) (*Selection[T], error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Selection[T]{
		settings:         s,
		log:              log.Named("cdlod"),
		visibilityRanges: make([]T, s.LODLevels),
		morphStart:       make([]T, s.LODLevels),
		morphEnd:         make([]T, s.LODLevels),
		nodes:            make([]SelectedNode[T], 0, s.MaxSelectedNodes),
		minLevel:         s.LODLevels,
		maxLevel:         -1,
	}, nil
}

// Settings returns the selection settings.
func (s *Selection[T]) Settings() Settings { return s.settings }

// SetStopAtLevel makes selection stop refining at the given LOD level
// instead of the leaves. Coarser passes such as shadow maps use it.
func (s *Selection[T]) SetStopAtLevel(level int) {
	s.stopAtLevel = max(0, min(level, s.settings.LODLevels-1))
}

// StopAtLevel returns the finest LOD level selection may produce.
func (s *Selection[T]) StopAtLevel() int { return s.stopAtLevel }

// Reset starts a new frame for cam. Ranges are recomputed when the near or
// far plane changed.
func (s *Selection[T]) Reset(cam Camera[T]) error {
	near, far := cam.NearPlane(), cam.FarPlane()
	if !s.rangesValid || near != s.near || far != s.far {
		if err := s.calculateRanges(near, far); err != nil {
			return err
		}
	}
	s.camPos = cam.Position()
	if f := cam.ViewFrustum(); f != nil {
		s.frustum = *f
	} else {
		s.frustum = math.Frustum[T]{}
	}
	s.clear()
	s.started = time.Now()
	return nil
}

func (s *Selection[T]) clear() {
	s.nodes = s.nodes[:0]
	s.minLevel = s.settings.LODLevels
	s.maxLevel = -1
	s.overflowed = false
	s.frame++
}

// calculateRanges splits [near, far] into LODLevels bands growing by
// DistanceRatio, finest first. The last range is exactly far.
func (s *Selection[T]) calculateRanges(near, far T) error {
	if !(near >= 0 && near < far) {
		return fmt.Errorf("%w: near %v far %v", ErrInvalidSettings, near, far)
	}
	levels := s.settings.LODLevels
	ratio := s.settings.DistanceRatio

	total, scale := 0.0, 1.0
	for i := 0; i < levels; i++ {
		total += scale
		scale *= ratio
	}
	n, f := float64(near), float64(far)
	sect := (f - n) / total

	prev := n
	scale = 1
	for i := 0; i < levels; i++ {
		r := prev + sect*scale
		if i == levels-1 {
			r = f
		}
		s.visibilityRanges[i] = T(r)
		s.morphEnd[i] = T(r)
		s.morphStart[i] = T(prev + (r-prev)*s.settings.MorphStartRatio)
		prev = r
		scale *= ratio
	}
	for i := 1; i < levels; i++ {
		if !(s.visibilityRanges[i] > s.visibilityRanges[i-1]) {
			return fmt.Errorf("%w: ranges not increasing at level %d for near %v far %v",
				ErrInvalidSettings, i, near, far)
		}
	}

	s.near, s.far = near, far
	s.rangesValid = true
	return nil
}

// VisibilityRanges returns the visibility range of each LOD level. The
// slice is owned by the selection.
func (s *Selection[T]) VisibilityRanges() []T { return s.visibilityRanges }

// VisibilityRange returns the visibility range of a LOD level.
func (s *Selection[T]) VisibilityRange(level int) T { return s.visibilityRanges[level] }

// MorphRange returns the morph start and end distance of a LOD level.
func (s *Selection[T]) MorphRange(level int) (start, end T) {
	return s.morphStart[level], s.morphEnd[level]
}

// MorphConsts returns the shader constants for a LOD level: morph start,
// 1/(end-start), end/(end-start) and 1/(end-start) again. A vertex at
// distance d morphs by 1 - clamp(c[2] - d*c[3], 0, 1).
func (s *Selection[T]) MorphConsts(level int) [4]float32 {
	start := float64(s.morphStart[level])
	end := float64(s.morphEnd[level])
	end += (start - end) * morphErrorFudge
	inv := 1 / (end - start)
	return [4]float32{float32(start), float32(inv), float32(end * inv), float32(inv)}
}

// Nodes returns the selected nodes of the current frame. The slice is
// reused by the next Reset.
func (s *Selection[T]) Nodes() []SelectedNode[T] { return s.nodes }

// Len returns the number of selected nodes.
func (s *Selection[T]) Len() int { return len(s.nodes) }

// Capacity returns the size of the selection buffer.
func (s *Selection[T]) Capacity() int { return cap(s.nodes) }

// Overflowed reports whether nodes were dropped this frame because the
// buffer was full.
func (s *Selection[T]) Overflowed() bool { return s.overflowed }

// LevelRange returns the finest and coarsest selected LOD level. ok is
// false when nothing was selected.
func (s *Selection[T]) LevelRange() (minLevel, maxLevel int, ok bool) {
	return s.minLevel, s.maxLevel, s.maxLevel >= 0
}

// CameraPosition returns the camera position of the current frame.
func (s *Selection[T]) CameraPosition() math.Vec3[T] { return s.camPos }

// add appends a node. It returns false when the buffer is full.
func (s *Selection[T]) add(n SelectedNode[T]) bool {
	if len(s.nodes) == cap(s.nodes) {
		s.markOverflow()
		return false
	}
	s.nodes = append(s.nodes, n)
	s.minLevel = min(s.minLevel, n.LODLevel)
	s.maxLevel = max(s.maxLevel, n.LODLevel)
	return true
}

func (s *Selection[T]) markOverflow() {
	s.overflowed = true
	if s.fork || s.warnedFrame == s.frame {
		return
	}
	s.warnedFrame = s.frame
	s.log.Warn("selection buffer full, dropping nodes",
		zap.Int("capacity", cap(s.nodes)),
		zap.Uint64("frame", s.frame))
}

// SortByDistance stores each node's squared distance to the camera and sorts
// the buffer nearest first.
func (s *Selection[T]) SortByDistance() {
	for i := range s.nodes {
		s.nodes[i].DistanceSq = s.nodes[i].Node.Box.MinDistanceSq(s.camPos)
	}
	slices.SortFunc(s.nodes, func(a, b SelectedNode[T]) int {
		return cmp.Compare(a.DistanceSq, b.DistanceSq)
	})
}

// Finish ends the frame: sorts when configured and records metrics.
func (s *Selection[T]) Finish() {
	if s.settings.SortByDistance {
		s.SortByDistance()
	}
	selectedNodes.Set(float64(len(s.nodes)))
	if s.overflowed {
		selectionOverflows.Inc()
	}
	if !s.started.IsZero() {
		selectionSeconds.Observe(time.Since(s.started).Seconds())
	}
}

// Fork returns an empty selection sharing this frame's ranges, camera and
// stop level, for selecting tiles concurrently. reuse, when not nil, is
// recycled instead of allocating a new buffer.
func (s *Selection[T]) Fork(reuse *Selection[T]) *Selection[T] {
	f := reuse
	if f == nil || cap(f.nodes) != cap(s.nodes) || len(f.visibilityRanges) != len(s.visibilityRanges) {
		f = &Selection[T]{
			settings:         s.settings,
			log:              s.log,
			visibilityRanges: make([]T, len(s.visibilityRanges)),
			morphStart:       make([]T, len(s.morphStart)),
			morphEnd:         make([]T, len(s.morphEnd)),
			nodes:            make([]SelectedNode[T], 0, cap(s.nodes)),
		}
	}
	f.settings = s.settings
	f.near, f.far, f.rangesValid = s.near, s.far, s.rangesValid
	copy(f.visibilityRanges, s.visibilityRanges)
	copy(f.morphStart, s.morphStart)
	copy(f.morphEnd, s.morphEnd)
	f.camPos = s.camPos
	f.frustum = s.frustum
	f.stopAtLevel = s.stopAtLevel
	f.fork = true
	f.clear()
	return f
}

// Merge appends the nodes of a fork, dropping what does not fit.
func (s *Selection[T]) Merge(f *Selection[T]) {
	for _, n := range f.nodes {
		if !s.add(n) {
			break
		}
	}
	if f.overflowed {
		s.markOverflow()
	}
}
