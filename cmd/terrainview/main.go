// Package main is the entry point for the CDLOD terrain viewer.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Faultbox/cdlod-terrain/internal/config"
	"github.com/Faultbox/cdlod-terrain/internal/engine/terrain"
	"github.com/Faultbox/cdlod-terrain/internal/logger"
	"github.com/Faultbox/cdlod-terrain/internal/scene"
	"github.com/Faultbox/cdlod-terrain/internal/viewer"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== CDLOD Terrain Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	terr, err := loadTerrain(ctx, cfg)
	if err != nil {
		logger.Error("failed to load terrain", zap.Error(err))
		os.Exit(1)
	}

	v, err := viewer.New(cfg, terr, logger.Log)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if err := v.Run(ctx); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}

// loadTerrain loads the configured tiles. Failed tiles are logged by the
// loader; only a terrain without any tile is fatal. Without tiles in the
// config a generated demo tile is used.
func loadTerrain(ctx context.Context, cfg *config.Config) (*terrain.Terrain[float32], error) {
	if len(cfg.Terrain.Tiles) == 0 {
		logger.Info("no tiles configured, generating demo terrain")
		return scene.DemoTerrain(cfg.Terrain.Settings, float32(cfg.Terrain.HeightScale)*0.1, logger.Log)
	}

	terr, err := terrain.LoadTiles[float32](ctx, cfg.Terrain.TileSpecs(), cfg.Terrain.Settings, logger.Log)
	if terr == nil {
		return nil, err
	}
	if len(terr.Tiles()) == 0 {
		return nil, fmt.Errorf("no tile loaded: %w", err)
	}
	if err != nil {
		logger.Warn("some tiles failed to load", zap.Int("loaded", len(terr.Tiles())), zap.Error(err))
	}
	return terr, nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}
