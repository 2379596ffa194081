// Package config handles engine configuration loading and management.
package config

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/midgard-engine/internal/engine/skeleton"
)

// ErrInvalid is returned by Validate for settings no subsystem can use.
var ErrInvalid = errors.New("invalid config")

// Config holds all engine settings.
type Config struct {
	Graphics  GraphicsConfig  `yaml:"graphics"`
	Animation AnimationConfig `yaml:"animation"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Data      DataConfig      `yaml:"data"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings for the viewer.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	ShowMorph  bool `yaml:"show_morph"` // tint terrain patches by morph variant
}

// AnimationConfig holds skeletal animation settings.
type AnimationConfig struct {
	MaxJoints    int     `yaml:"max_joints"` // bone palette size
	DefaultSpeed float32 `yaml:"default_speed"`
	Loop         bool    `yaml:"loop"`
	Workers      int     `yaml:"workers"` // 0 = GOMAXPROCS
}

// TerrainConfig holds quadtree LOD settings.
type TerrainConfig struct {
	Size            float32   `yaml:"size"`
	MaxDepth        int       `yaml:"max_depth"`
	LODRanges       []float32 `yaml:"lod_ranges,flow"` // empty = derived from size
	PatchResolution int       `yaml:"patch_resolution"`
	Balance         bool      `yaml:"balance"`
	HeightScale     float32   `yaml:"height_scale"`
	GAT             string    `yaml:"gat"` // optional heightmap source
}

// DataConfig holds asset locations.
type DataConfig struct {
	GRFPaths []string `yaml:"grf_paths"` // archives, later entries win
	Dirs     []string `yaml:"dirs"`      // plain directories searched after archives
	Rigs     []string `yaml:"rigs"`      // rig files loaded at startup
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Animation: AnimationConfig{
			MaxJoints:    skeleton.DefaultMaxJoints,
			DefaultSpeed: 1,
			Loop:         true,
			Workers:      0,
		},
		Terrain: TerrainConfig{
			Size:            1024,
			MaxDepth:        6,
			PatchResolution: 16,
			Balance:         true,
			HeightScale:     1,
		},
		Data: DataConfig{
			Dirs: []string{"data"},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings that would fail later in a less obvious place.
// Terrain geometry is checked in full by the terrain package itself.
func (c *Config) Validate() error {
	switch {
	case c.Animation.MaxJoints <= 0 || c.Animation.MaxJoints > skeleton.MaxPaletteJoints:
		return errors.Wrapf(ErrInvalid, "animation.max_joints %d, want 1..%d", c.Animation.MaxJoints, skeleton.MaxPaletteJoints)
	case c.Animation.Workers < 0:
		return errors.Wrapf(ErrInvalid, "animation.workers %d", c.Animation.Workers)
	case c.Terrain.Size <= 0:
		return errors.Wrapf(ErrInvalid, "terrain.size %g", c.Terrain.Size)
	case c.Terrain.MaxDepth < 0:
		return errors.Wrapf(ErrInvalid, "terrain.max_depth %d", c.Terrain.MaxDepth)
	case c.Graphics.Width <= 0 || c.Graphics.Height <= 0:
		return errors.Wrapf(ErrInvalid, "graphics size %dx%d", c.Graphics.Width, c.Graphics.Height)
	}
	return nil
}
