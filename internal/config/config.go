// Package config handles viewer and tool configuration loading.
package config

import (
	"fmt"

	"github.com/Faultbox/cdlod-terrain/internal/engine/cdlod"
	"github.com/Faultbox/cdlod-terrain/internal/engine/shadow"
	"github.com/Faultbox/cdlod-terrain/internal/engine/terrain"
)

// Config holds all settings.
type Config struct {
	Terrain  TerrainConfig  `yaml:"terrain"`
	Camera   CameraConfig   `yaml:"camera"`
	Shadows  ShadowConfig   `yaml:"shadows"`
	Graphics GraphicsConfig `yaml:"graphics"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// TerrainConfig holds quadtree settings and the tiles to load.
type TerrainConfig struct {
	cdlod.Settings `yaml:",inline"`

	HeightScale float64            `yaml:"height_scale"` // default for tiles without one
	Tiles       []terrain.TileSpec `yaml:"tiles"`
}

// CameraConfig holds the initial view. Angles are degrees.
type CameraConfig struct {
	Near      float64    `yaml:"near"`
	Far       float64    `yaml:"far"`
	FOV       float64    `yaml:"fov"`
	Position  [3]float64 `yaml:"position"`
	Yaw       float64    `yaml:"yaw"`
	Pitch     float64    `yaml:"pitch"`
	MoveSpeed float64    `yaml:"move_speed"`
}

// ShadowConfig holds cascade settings and the light.
type ShadowConfig struct {
	shadow.CascadeSettings `yaml:",inline"`

	Enabled        bool       `yaml:"enabled"`
	MapSize        int        `yaml:"map_size"`
	LightDirection [3]float32 `yaml:"light_direction"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// MetricsConfig holds the Prometheus endpoint. An empty address disables
// it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{
			Settings:    cdlod.DefaultSettings(),
			HeightScale: 1000,
		},
		Camera: CameraConfig{
			Near:      1,
			Far:       20000,
			FOV:       60,
			Position:  [3]float64{0, 500, 0},
			Pitch:     -20,
			MoveSpeed: 200,
		},
		Shadows: ShadowConfig{
			CascadeSettings: shadow.DefaultCascadeSettings(),
			Enabled:         true,
			MapSize:         2048,
			LightDirection:  [3]float32{-0.5, -1, -0.3},
		},
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if err := c.Terrain.Settings.Validate(); err != nil {
		return fmt.Errorf("terrain: %w", err)
	}
	if c.Terrain.HeightScale <= 0 {
		return fmt.Errorf("terrain: height scale %g must be positive", c.Terrain.HeightScale)
	}
	for i, t := range c.Terrain.Tiles {
		if t.Heightmap == "" {
			return fmt.Errorf("terrain: tile %d has no heightmap", i)
		}
		if t.Spacing < 0 {
			return fmt.Errorf("terrain: tile %d spacing %g is negative", i, t.Spacing)
		}
	}
	if !(c.Camera.Near >= 0 && c.Camera.Near < c.Camera.Far) {
		return fmt.Errorf("camera: near %g far %g", c.Camera.Near, c.Camera.Far)
	}
	if !(c.Camera.FOV > 0 && c.Camera.FOV < 180) {
		return fmt.Errorf("camera: fov %g not in (0, 180)", c.Camera.FOV)
	}
	if err := c.Shadows.CascadeSettings.Validate(); err != nil {
		return fmt.Errorf("shadows: %w", err)
	}
	if c.Shadows.Enabled && c.Shadows.MapSize <= 0 {
		return fmt.Errorf("shadows: map size %d", c.Shadows.MapSize)
	}
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("graphics: window %dx%d", c.Graphics.Width, c.Graphics.Height)
	}
	return nil
}

// TileSpecs returns the configured tiles with the default height scale
// filled in.
func (c *TerrainConfig) TileSpecs() []terrain.TileSpec {
	specs := make([]terrain.TileSpec, len(c.Tiles))
	for i, t := range c.Tiles {
		if t.HeightScale == 0 {
			t.HeightScale = c.HeightScale
		}
		specs[i] = t
	}
	return specs
}
