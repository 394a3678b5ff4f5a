package scene

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/cdlod-terrain/internal/config"
	"github.com/Faultbox/cdlod-terrain/internal/engine/camera"
	"github.com/Faultbox/cdlod-terrain/internal/engine/debug"
	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Terrain.LeafNodeSize = 8
	cfg.Terrain.LODLevels = 4
	cfg.Shadows.Layers = 6
	return cfg
}

func newTestScene(t *testing.T, cfg *config.Config) *Scene {
	t.Helper()
	terr, err := DemoTerrain(cfg.Terrain.Settings, 20, nil)
	require.NoError(t, err)

	b := terr.Bounds()
	cam := camera.New(math.V3(b.Center().X, b.Max.Y+50, b.Max.Z), 0, -0.5, 1.0, 16.0/9, 1, 2000)
	s, err := New(cfg, terr, cam, nil)
	require.NoError(t, err)
	return s
}

func TestDemoTerrain(t *testing.T) {
	cfg := testConfig()
	terr, err := DemoTerrain(cfg.Terrain.Settings, 20, nil)
	require.NoError(t, err)
	require.Len(t, terr.Tiles(), 1)

	gx, gz := terr.Tiles()[0].Tree.RootGrid()
	assert.Equal(t, 2, gx)
	assert.Equal(t, 2, gz)

	b := terr.Bounds()
	assert.LessOrEqual(t, b.Max.Y, float32(25))
	assert.GreaterOrEqual(t, b.Min.Y, float32(-25))
}

func TestSceneUpdate(t *testing.T) {
	s := newTestScene(t, testConfig())
	require.NoError(t, s.Update(context.Background()))

	require.NotZero(t, s.Selection().Len())
	require.NotZero(t, s.ShadowSelection().Len())
	assert.Contains(t, s.Status(), "nodes")

	// The shadow pass never refines past its stop level.
	for _, n := range s.ShadowSelection().Nodes() {
		assert.GreaterOrEqual(t, n.LODLevel, shadowStopLevel)
	}

	// First frame initialises every cascade.
	for i, l := range s.Volumes().Layers() {
		assert.True(t, l.Valid(), "layer %d", i)
	}
	_, ok := s.ShadowMatrix()
	assert.True(t, ok)

	// Six layers with four LOD levels: ranges keep increasing past the
	// coarsest level.
	for i := 1; i < len(s.ranges); i++ {
		assert.Greater(t, s.ranges[i], s.ranges[i-1])
	}
	assert.Equal(t, s.Selection().VisibilityRange(3), s.ranges[3])

	require.NoError(t, s.Update(context.Background()))
}

func TestSceneLines(t *testing.T) {
	s := newTestScene(t, testConfig())
	require.NoError(t, s.Update(context.Background()))

	lines := s.Lines()
	require.NotEmpty(t, lines)
	require.Zero(t, len(lines)%(debug.BBoxWireframeVertexCount*debug.LineVertexFloats))

	boxes := len(lines) / (debug.BBoxWireframeVertexCount * debug.LineVertexFloats)
	s.ShowCascades = false
	withoutCascades := len(s.Lines()) / (debug.BBoxWireframeVertexCount * debug.LineVertexFloats)
	assert.Equal(t, len(s.Volumes().Layers()), boxes-withoutCascades)

	shadowBoxes := len(s.ShadowLines()) / (debug.BBoxWireframeVertexCount * debug.LineVertexFloats)
	assert.Equal(t, s.ShadowSelection().Len(), shadowBoxes)
}

func TestSceneSequentialMatchesConcurrent(t *testing.T) {
	s := newTestScene(t, testConfig())
	require.NoError(t, s.Update(context.Background()))
	concurrent := s.Selection().Len()

	s.Concurrent = false
	require.NoError(t, s.Update(context.Background()))
	assert.Equal(t, concurrent, s.Selection().Len())
}

func TestSceneWithoutShadows(t *testing.T) {
	cfg := testConfig()
	cfg.Shadows.Enabled = false
	s := newTestScene(t, cfg)
	require.NoError(t, s.Update(context.Background()))

	assert.Nil(t, s.Volumes())
	_, ok := s.ShadowMatrix()
	assert.False(t, ok)
	assert.Zero(t, s.ShadowSelection().Len())
}
