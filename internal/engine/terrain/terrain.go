// Package terrain loads height-field tiles and selects their CDLOD nodes
// as one terrain.
package terrain

import (
	"context"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/cdlod-terrain/internal/engine/cdlod"
	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

var tileLoadFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "terrain_tile_load_failures_total",
	Help: "The number of tiles that failed to load.",
})

// Terrain is a set of tiles selected together. Selection methods must not
// be called concurrently on the same terrain.
type Terrain[T math.Float] struct {
	tiles []*Tile[T]
	forks []*cdlod.Selection[T]
	log   *zap.Logger
}

// New returns a terrain over already built tiles.
func New[T math.Float](log *zap.Logger, tiles ...*Tile[T]) *Terrain[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Terrain[T]{tiles: tiles, log: log.Named("terrain")}
}

// LoadTiles loads the tiles of specs in parallel. A tile that fails is
// logged and left out; the returned error combines every failure while the
// terrain still holds the tiles that loaded. Only context cancellation
// returns a nil terrain.
func LoadTiles[T math.Float](ctx context.Context, specs []TileSpec, s cdlod.Settings, log *zap.Logger) (*Terrain[T], error) {
	t := New[T](log)

	loaded := make([]*Tile[T], len(specs))
	failures := make([]error, len(specs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tile, err := LoadTile[T](spec, s, t.log)
			if err != nil {
				failures[i] = err
				return nil
			}
			loaded[i] = tile
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var errs error
	for i, tile := range loaded {
		if err := failures[i]; err != nil {
			tileLoadFailures.Inc()
			t.log.Error("tile load failed",
				zap.String("heightmap", specs[i].Heightmap),
				zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		t.tiles = append(t.tiles, tile)
		w, h := tile.Grid.Extent()
		t.log.Info("tile loaded",
			zap.String("name", tile.Name),
			zap.Int("width", w),
			zap.Int("height", h),
			zap.Int("nodes", tile.Tree.NodeCount()))
	}
	return t, errs
}

// Tiles returns the loaded tiles in spec order.
func (t *Terrain[T]) Tiles() []*Tile[T] { return t.tiles }

// Bounds returns the world box enclosing every tile.
func (t *Terrain[T]) Bounds() math.Box[T] {
	b := math.Box[T]{Min: math.V3[T](1, 1, 1), Max: math.V3[T](-1, -1, -1)}
	for _, tile := range t.tiles {
		b = b.Union(tile.WorldBounds())
	}
	return b
}

// Select runs one frame of selection over all tiles in order.
func (t *Terrain[T]) Select(sel *cdlod.Selection[T], cam cdlod.Camera[T]) error {
	if err := sel.Reset(cam); err != nil {
		return err
	}
	for i, tile := range t.tiles {
		tile.Tree.Select(sel, i)
	}
	sel.Finish()
	return nil
}

// SelectConcurrent selects every tile into its own fork and merges the
// forks in tile order, so the result matches Select.
func (t *Terrain[T]) SelectConcurrent(ctx context.Context, sel *cdlod.Selection[T], cam cdlod.Camera[T]) error {
	if err := sel.Reset(cam); err != nil {
		return err
	}
	for len(t.forks) < len(t.tiles) {
		t.forks = append(t.forks, nil)
	}
	for i := range t.tiles {
		t.forks[i] = sel.Fork(t.forks[i])
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, tile := range t.tiles {
		i, tile := i, tile
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tile.Tree.Select(t.forks[i], i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range t.tiles {
		sel.Merge(t.forks[i])
	}
	sel.Finish()
	return nil
}
