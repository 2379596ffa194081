package config

import "flag"

// Flags are the command-line overrides shared by the engine binaries.
type Flags struct {
	Config     string
	Debug      bool
	Fullscreen bool
	Windowed   bool
	Width      int
	Height     int
	Workers    int
	MaxDepth   int
	NoBalance  bool
	ShowMorph  bool
}

// RegisterFlags adds the override flags to fs and returns their values,
// filled once fs is parsed.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{MaxDepth: -1, Workers: -1}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.Fullscreen, "fullscreen", false, "Run in fullscreen mode")
	fs.BoolVar(&f.Windowed, "windowed", false, "Run in windowed mode")
	fs.IntVar(&f.Width, "width", 0, "Window width")
	fs.IntVar(&f.Height, "height", 0, "Window height")
	fs.IntVar(&f.Workers, "workers", -1, "Animation update workers (0 = all CPUs)")
	fs.IntVar(&f.MaxDepth, "depth", -1, "Terrain quadtree max depth")
	fs.BoolVar(&f.NoBalance, "no-balance", false, "Disable the terrain LOD balance pass")
	fs.BoolVar(&f.ShowMorph, "show-morph", false, "Tint terrain patches by morph variant")
	return f
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Windowed {
		cfg.Graphics.Fullscreen = false
	}
	if f.Fullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if f.Width > 0 {
		cfg.Graphics.Width = f.Width
	}
	if f.Height > 0 {
		cfg.Graphics.Height = f.Height
	}
	if f.Workers >= 0 {
		cfg.Animation.Workers = f.Workers
	}
	if f.MaxDepth >= 0 {
		cfg.Terrain.MaxDepth = f.MaxDepth
	}
	if f.NoBalance {
		cfg.Terrain.Balance = false
	}
	if f.ShowMorph {
		cfg.Graphics.ShowMorph = true
	}
}
