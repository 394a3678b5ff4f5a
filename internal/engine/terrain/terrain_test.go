package terrain

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/cdlod-terrain/internal/engine/cdlod"
	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

type fixedCamera struct {
	pos       math.Vec3[float64]
	near, far float64
}

func (c fixedCamera) Position() math.Vec3[float64]        { return c.pos }
func (c fixedCamera) NearPlane() float64                  { return c.near }
func (c fixedCamera) FarPlane() float64                   { return c.far }
func (c fixedCamera) ViewFrustum() *math.Frustum[float64] { return nil }

func testSettings() cdlod.Settings {
	s := cdlod.DefaultSettings()
	s.LeafNodeSize = 8
	s.LODLevels = 3
	s.MaxSelectedNodes = 1024
	return s
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, gray16(w, h)))
	require.NoError(t, f.Close())
	return path
}

func TestLoadTilesIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good := writePNG(t, dir, "a.png", 33, 33)
	bad := filepath.Join(dir, "bad.bb")
	require.NoError(t, os.WriteFile(bad, []byte("cdlod-bb 1\n"), 0o644))

	specs := []TileSpec{
		{Name: "a", Heightmap: good, Spacing: 1},
		{Name: "missing", Heightmap: filepath.Join(dir, "nope.png")},
		{Name: "b", Heightmap: good, Origin: [3]float64{32, 0, 0}, Spacing: 1},
		{Name: "corrupt", Heightmap: good, Bounds: bad},
	}

	core, logs := observer.New(zapcore.InfoLevel)
	before := testutil.ToFloat64(tileLoadFailures)

	terr, err := LoadTiles[float64](context.Background(), specs, testSettings(), zap.New(core))
	require.Error(t, err)
	require.NotNil(t, terr)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], os.ErrNotExist)
	assert.ErrorIs(t, errs[1], ErrMalformedBounds)
	assert.Equal(t, 2.0, testutil.ToFloat64(tileLoadFailures)-before)

	require.Len(t, terr.Tiles(), 2)
	assert.Equal(t, "a", terr.Tiles()[0].Name)
	assert.Equal(t, "b", terr.Tiles()[1].Name)
	assert.Equal(t, 2, logs.FilterMessage("tile load failed").Len())
	assert.Equal(t, 2, logs.FilterMessage("tile loaded").Len())

	b := terr.Bounds()
	assert.Equal(t, 0.0, b.Min.X)
	assert.Equal(t, 64.0, b.Max.X)
}

func TestLoadTilesWithSidecar(t *testing.T) {
	dir := t.TempDir()
	hm := writePNG(t, dir, "a.png", 17, 17)

	g, err := LoadGrid[float64](hm, 1)
	require.NoError(t, err)
	bb := filepath.Join(dir, "a.bb")
	want := GenerateBounds(g, math.V3(0.0, 0, 0), 1, TileBounds{Longitude: 0.5, Latitude: 0.25, CellSize: 1e-5})
	require.NoError(t, SaveBounds(bb, want))

	terr, err := LoadTiles[float64](context.Background(), []TileSpec{{Heightmap: hm, Bounds: bb}}, testSettings(), nil)
	require.NoError(t, err)
	require.Len(t, terr.Tiles(), 1)

	tile := terr.Tiles()[0]
	assert.Equal(t, hm, tile.Name)
	require.NotNil(t, tile.Bounds)
	assert.InDelta(t, 0.5, tile.Bounds.Longitude, 1e-15)
	assert.Equal(t, want.Box, tile.WorldBounds())
}

func TestLoadTilesCancelled(t *testing.T) {
	dir := t.TempDir()
	hm := writePNG(t, dir, "a.png", 17, 17)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	terr, err := LoadTiles[float64](ctx, []TileSpec{{Heightmap: hm}}, testSettings(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, terr)
}

func gridTiles(t *testing.T, n int) *Terrain[float64] {
	t.Helper()
	tiles := make([]*Tile[float64], n)
	for i := range tiles {
		g := rampGrid(t, 33, 33)
		p := cdlod.Placement[float64]{Origin: math.V3(float64(i*32), 0, 0), Spacing: 1}
		tile, err := NewTile("t", g, p, testSettings(), nil)
		require.NoError(t, err)
		tiles[i] = tile
	}
	return New(nil, tiles...)
}

func TestSelectConcurrentMatchesSelect(t *testing.T) {
	terr := gridTiles(t, 5)
	cam := fixedCamera{pos: math.V3(70.0, 400, 16), near: 1, far: 600}

	seq, err := cdlod.NewSelection[float64](testSettings(), nil)
	require.NoError(t, err)
	require.NoError(t, terr.Select(seq, cam))
	require.NotZero(t, seq.Len())

	par, err := cdlod.NewSelection[float64](testSettings(), nil)
	require.NoError(t, err)
	// Twice, so the second frame reuses the forks.
	for n := 0; n < 2; n++ {
		require.NoError(t, terr.SelectConcurrent(context.Background(), par, cam))
		require.Equal(t, seq.Len(), par.Len())
		for i := range seq.Nodes() {
			a, b := seq.Nodes()[i], par.Nodes()[i]
			assert.Same(t, a.Node, b.Node)
			assert.Equal(t, a.Tile, b.Tile)
			assert.Equal(t, a.Quadrants, b.Quadrants)
		}
	}

	tiles := map[int]bool{}
	for _, n := range seq.Nodes() {
		tiles[n.Tile] = true
	}
	assert.Len(t, tiles, 5)
}

func TestSelectInvalidCamera(t *testing.T) {
	terr := gridTiles(t, 1)
	sel, err := cdlod.NewSelection[float64](testSettings(), nil)
	require.NoError(t, err)

	cam := fixedCamera{near: 10, far: 5}
	assert.ErrorIs(t, terr.Select(sel, cam), cdlod.ErrInvalidSettings)
	assert.ErrorIs(t, terr.SelectConcurrent(context.Background(), sel, cam), cdlod.ErrInvalidSettings)
}
