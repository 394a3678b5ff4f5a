// Package scene holds the GPU-free frame state of the viewer: terrain
// selection, shadow cascades and the debug line batches.
package scene

import (
	"context"
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/cdlod-terrain/internal/config"
	"github.com/Faultbox/cdlod-terrain/internal/engine/camera"
	"github.com/Faultbox/cdlod-terrain/internal/engine/cdlod"
	"github.com/Faultbox/cdlod-terrain/internal/engine/debug"
	"github.com/Faultbox/cdlod-terrain/internal/engine/shadow"
	"github.com/Faultbox/cdlod-terrain/internal/engine/terrain"
	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

// shadowStopLevel is how many levels above the leaves the shadow pass
// stops refining.
const shadowStopLevel = 2

var cascadeColor = debug.Color{0.9, 0.9, 0.9}

// Scene is the per-frame state of the viewer that does not touch the GPU.
type Scene struct {
	terrain   *terrain.Terrain[float32]
	camera    *camera.Camera[float32]
	selection *cdlod.Selection[float32]
	shadowSel *cdlod.Selection[float32]
	volumes   *shadow.CascadedVolumeMap // nil without shadows
	lightDir  math.Vec3[float32]       // towards the light

	ranges      []float32
	initialized bool

	ShowCascades bool
	Concurrent   bool

	lines      []float32
	depthLines []float32
	log        *zap.Logger
}

// New wires a terrain to a camera and the selections and cascades
// configured in cfg.
func New(cfg *config.Config, terr *terrain.Terrain[float32], cam *camera.Camera[float32], log *zap.Logger) (*Scene, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scene{
		terrain:      terr,
		camera:       cam,
		ShowCascades: true,
		Concurrent:   true,
		log:          log.Named("scene"),
	}

	var err error
	s.selection, err = cdlod.NewSelection[float32](cfg.Terrain.Settings, log)
	if err != nil {
		return nil, err
	}
	s.shadowSel, err = cdlod.NewSelection[float32](cfg.Terrain.Settings, log)
	if err != nil {
		return nil, err
	}
	s.shadowSel.SetStopAtLevel(shadowStopLevel)

	if cfg.Shadows.Enabled {
		s.volumes, err = shadow.NewCascadedVolumeMap(cfg.Shadows.CascadeSettings, terr.Bounds(), log)
		if err != nil {
			return nil, fmt.Errorf("cascades: %w", err)
		}
		d := cfg.Shadows.LightDirection
		s.lightDir = math.V3(-d[0], -d[1], -d[2]).Normalize()
		s.ranges = make([]float32, cfg.Shadows.Layers)
	}
	return s, nil
}

// Terrain returns the selected terrain.
func (s *Scene) Terrain() *terrain.Terrain[float32] { return s.terrain }

// Camera returns the scene camera.
func (s *Scene) Camera() *camera.Camera[float32] { return s.camera }

// Selection returns the main view selection.
func (s *Scene) Selection() *cdlod.Selection[float32] { return s.selection }

// ShadowSelection returns the coarse selection of the shadow pass.
func (s *Scene) ShadowSelection() *cdlod.Selection[float32] { return s.shadowSel }

// Volumes returns the cascade map, nil without shadows.
func (s *Scene) Volumes() *shadow.CascadedVolumeMap { return s.volumes }

// Update selects the terrain for the camera and refreshes the cascades.
func (s *Scene) Update(ctx context.Context) error {
	var err error
	if s.Concurrent {
		err = s.terrain.SelectConcurrent(ctx, s.selection, s.camera)
	} else {
		err = s.terrain.Select(s.selection, s.camera)
	}
	if err != nil {
		return fmt.Errorf("select: %w", err)
	}
	if s.volumes == nil {
		return nil
	}

	if err := s.terrain.Select(s.shadowSel, s.camera); err != nil {
		return fmt.Errorf("shadow select: %w", err)
	}
	s.cascadeRanges()
	if !s.initialized {
		s.initialized = true
		return s.volumes.ForceUpdateAll(s.camera.Position(), s.ranges)
	}
	_, err = s.volumes.Update(s.camera.Position(), s.ranges)
	return err
}

// cascadeRanges gives cascade i the visibility range of LOD level i,
// extending past the coarsest level by the distance ratio.
func (s *Scene) cascadeRanges() {
	vis := s.selection.VisibilityRanges()
	ratio := float32(s.selection.Settings().DistanceRatio)
	for i := range s.ranges {
		if i < len(vis) {
			s.ranges[i] = vis[i]
			continue
		}
		s.ranges[i] = s.ranges[i-1] * ratio
	}
}

// Lines returns the line batch of the main pass: selected node boxes
// coloured by LOD level and, when shown, the cascade boxes.
func (s *Scene) Lines() []float32 {
	s.lines = s.lines[:0]
	for _, n := range s.selection.Nodes() {
		c := debug.LevelColor(n.LODLevel)
		if n.Full() {
			s.lines = debug.AppendBox(s.lines, n.Node.Box, c, float32(n.LODLevel))
			continue
		}
		s.lines = debug.AppendQuadrants(s.lines, n.Node.Box, n.Quadrants, c, float32(n.LODLevel))
	}
	if s.ShowCascades && s.volumes != nil {
		for _, l := range s.volumes.Layers() {
			if l.Valid() {
				s.lines = debug.AppendBox(s.lines, l.Box().Expand(debug.DefaultBBoxPadding), cascadeColor, -1)
			}
		}
	}
	return s.lines
}

// ShadowLines returns the boxes of the shadow selection.
func (s *Scene) ShadowLines() []float32 {
	s.depthLines = s.depthLines[:0]
	for _, n := range s.shadowSel.Nodes() {
		s.depthLines = debug.AppendBox(s.depthLines, n.Node.Box, debug.Color{}, -1)
	}
	return s.depthLines
}

// ShadowMatrix returns the light matrix of the finest cascade.
func (s *Scene) ShadowMatrix() (math.Mat4[float32], bool) {
	if s.volumes == nil || !s.volumes.Layer(0).Valid() {
		return math.Mat4[float32]{}, false
	}
	return s.volumes.LightMatrix(0, s.lightDir), true
}

// Status is a one-line summary for the window title.
func (s *Scene) Status() string {
	lo, hi, ok := s.selection.LevelRange()
	if !ok {
		return "no nodes selected"
	}
	status := fmt.Sprintf("%d nodes, LOD %d-%d", s.selection.Len(), lo, hi)
	if s.selection.Overflowed() {
		status += " (buffer full)"
	}
	return status
}

// DemoTerrain builds a single tile of rolling hills for running the viewer
// without height maps.
func DemoTerrain(s cdlod.Settings, amplitude float32, log *zap.Logger) (*terrain.Terrain[float32], error) {
	size := s.RootNodeSize()*2 + 1
	g, err := terrain.NewGrid[float32](size, size)
	if err != nil {
		return nil, err
	}
	freq := 2 * gomath.Pi / float64(s.RootNodeSize())
	for z := 0; z < size; z++ {
		for x := 0; x < size; x++ {
			h := gomath.Sin(float64(x)*freq)*gomath.Cos(float64(z)*freq*0.7) +
				0.25*gomath.Sin(float64(x+z)*freq*4)
			g.Set(x, z, amplitude*float32(h))
		}
	}
	tile, err := terrain.NewTile("demo", g, cdlod.Placement[float32]{Spacing: 1}, s, log)
	if err != nil {
		return nil, err
	}
	return terrain.New(log, tile), nil
}
