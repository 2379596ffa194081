package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test graphics defaults
	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}

	// Test animation defaults
	if cfg.Animation.MaxJoints != 64 {
		t.Errorf("expected max joints 64, got %d", cfg.Animation.MaxJoints)
	}
	if cfg.Animation.DefaultSpeed != 1 {
		t.Errorf("expected default speed 1, got %f", cfg.Animation.DefaultSpeed)
	}
	if !cfg.Animation.Loop {
		t.Error("expected loop to be true by default")
	}

	// Test terrain defaults
	if cfg.Terrain.Size != 1024 {
		t.Errorf("expected terrain size 1024, got %f", cfg.Terrain.Size)
	}
	if cfg.Terrain.PatchResolution != 16 {
		t.Errorf("expected patch resolution 16, got %d", cfg.Terrain.PatchResolution)
	}
	if !cfg.Terrain.Balance {
		t.Error("expected balance to be on by default")
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "engine.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  show_morph: true

animation:
  max_joints: 32
  default_speed: 0.5
  loop: false
  workers: 4

terrain:
  size: 512
  max_depth: 5
  lod_ranges: [1024, 512, 256, 128, 64]
  patch_resolution: 8
  balance: false
  gat: data/prontera.gat

data:
  grf_paths: [data.grf, rdata.grf]
  rigs: [rigs/arm.rig.yaml]

logging:
  level: "debug"
  log_file: "engine.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 || cfg.Graphics.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if !cfg.Graphics.ShowMorph {
		t.Error("expected show_morph to be true")
	}
	if !cfg.Graphics.VSync {
		t.Error("vsync not in file, default should remain")
	}

	if cfg.Animation.MaxJoints != 32 {
		t.Errorf("expected max joints 32, got %d", cfg.Animation.MaxJoints)
	}
	if cfg.Animation.DefaultSpeed != 0.5 {
		t.Errorf("expected speed 0.5, got %f", cfg.Animation.DefaultSpeed)
	}
	if cfg.Animation.Loop {
		t.Error("expected loop to be false")
	}
	if cfg.Animation.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Animation.Workers)
	}

	if want := []float32{1024, 512, 256, 128, 64}; !reflect.DeepEqual(cfg.Terrain.LODRanges, want) {
		t.Errorf("expected lod ranges %v, got %v", want, cfg.Terrain.LODRanges)
	}
	if cfg.Terrain.Balance {
		t.Error("expected balance to be false")
	}
	if cfg.Terrain.GAT != "data/prontera.gat" {
		t.Errorf("expected gat path, got %q", cfg.Terrain.GAT)
	}

	if len(cfg.Data.GRFPaths) != 2 || cfg.Data.Rigs[0] != "rigs/arm.rig.yaml" {
		t.Errorf("unexpected data config %+v", cfg.Data)
	}
	if cfg.Logging.LogFile != "engine.log" {
		t.Errorf("expected log file 'engine.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
terrain:
  size: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/engine.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero max joints", func(c *Config) { c.Animation.MaxJoints = 0 }},
		{"max joints above shader palette", func(c *Config) { c.Animation.MaxJoints = 128 }},
		{"negative workers", func(c *Config) { c.Animation.Workers = -2 }},
		{"zero terrain size", func(c *Config) { c.Terrain.Size = 0 }},
		{"negative depth", func(c *Config) { c.Terrain.MaxDepth = -1 }},
		{"zero width", func(c *Config) { c.Graphics.Width = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "engine.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find engine.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(t *testing.T, cfg *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "fullscreen flag",
			args: []string{"-fullscreen"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
		},
		{
			name: "width and height flags",
			args: []string{"-width", "2560", "-height", "1440"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
		},
		{
			name: "terrain flags",
			args: []string{"-depth", "3", "-no-balance", "-show-morph"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Terrain.MaxDepth != 3 {
					t.Errorf("expected depth 3, got %d", cfg.Terrain.MaxDepth)
				}
				if cfg.Terrain.Balance {
					t.Error("expected balance off")
				}
				if !cfg.Graphics.ShowMorph {
					t.Error("expected show morph on")
				}
			},
		},
		{
			name: "zero workers is an override",
			args: []string{"-workers", "0"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Animation.Workers != 0 {
					t.Errorf("expected 0 workers, got %d", cfg.Animation.Workers)
				}
			},
		},
		{
			name: "unset flags keep defaults",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if !reflect.DeepEqual(cfg, Default()) {
					t.Errorf("expected defaults, got %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			f := RegisterFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse: %v", err)
			}

			cfg := Default()
			f.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "engine.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse([]string{"-config", configPath, "-width", "1920"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width should be from flag (1920), not file (1600)
	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	// Height should be from file (900) since no flag override
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(configPath, []byte("animation:\n  max_joints: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(&Flags{Config: configPath, MaxDepth: -1, Workers: -1}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "engine.yaml")

	cfg := Default()
	cfg.Terrain.LODRanges = []float32{800, 400, 200}
	cfg.Data.Rigs = []string{"rigs/arm.rig.yaml"}
	cfg.Data.GRFPaths = []string{"data.grf"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, loaded) {
		t.Errorf("round trip mismatch:\n%+v\n%+v", cfg, loaded)
	}
}
