package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Render.Width != 1280 || cfg.Render.Height != 1024 {
		t.Errorf("expected surface 1280x1024, got %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
	if cfg.Render.OutputWidth != 640 || cfg.Render.OutputHeight != 480 {
		t.Errorf("expected output 640x480, got %dx%d", cfg.Render.OutputWidth, cfg.Render.OutputHeight)
	}
	if cfg.Render.Backend != BackendOpenGL {
		t.Errorf("expected backend %q, got %q", BackendOpenGL, cfg.Render.Backend)
	}
	if cfg.Render.Background != [3]float64{1, 1, 1} {
		t.Errorf("expected white background, got %v", cfg.Render.Background)
	}

	if cfg.Paths.IDs != "./ids.json" {
		t.Errorf("expected ids ./ids.json, got %s", cfg.Paths.IDs)
	}
	if cfg.Paths.States != "./states/" {
		t.Errorf("expected states ./states/, got %s", cfg.Paths.States)
	}
	if cfg.Paths.Scans != "./data/v1/scans" {
		t.Errorf("expected scans ./data/v1/scans, got %s", cfg.Paths.Scans)
	}
	if cfg.Paths.OutputDir != "./output_segs" {
		t.Errorf("expected output ./output_segs, got %s", cfg.Paths.OutputDir)
	}

	if cfg.Semantic.CacheFormat != "binary_little_endian" {
		t.Errorf("expected binary cache, got %s", cfg.Semantic.CacheFormat)
	}
	if cfg.Semantic.CategoryKey != "objectId" {
		t.Errorf("expected objectId category key, got %s", cfg.Semantic.CategoryKey)
	}
	if cfg.Semantic.UnlabeledCategory != -1 {
		t.Errorf("expected unlabeled category -1, got %d", cfg.Semantic.UnlabeledCategory)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Render.Backend = "vulkan" }},
		{"zero width", func(c *Config) { c.Render.Width = 0 }},
		{"negative output height", func(c *Config) { c.Render.OutputHeight = -1 }},
		{"flat fov", func(c *Config) { c.Render.FovY = 180 }},
		{"inverted clip range", func(c *Config) { c.Render.Far = c.Render.Near }},
		{"background out of range", func(c *Config) { c.Render.Background = [3]float64{2, 0, 0} }},
		{"unknown cache format", func(c *Config) { c.Semantic.CacheFormat = "obj" }},
		{"unknown category key", func(c *Config) { c.Semantic.CategoryKey = "label" }},
		{"empty scans path", func(c *Config) { c.Paths.Scans = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "segrender.yaml")

	yamlContent := `
paths:
  scans: "/data/mp3d/scans"
  output_dir: "/tmp/out"

render:
  backend: software
  width: 640
  height: 512
  background: [0, 0, 0]

semantic:
  cache_format: ascii
  category_key: id
  unlabeled_category: 0

logging:
  level: "debug"
  log_file: "segrender.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Paths.Scans != "/data/mp3d/scans" {
		t.Errorf("expected scans /data/mp3d/scans, got %s", cfg.Paths.Scans)
	}
	if cfg.Paths.IDs != "./ids.json" {
		t.Errorf("expected ids default to survive, got %s", cfg.Paths.IDs)
	}
	if cfg.Render.Backend != BackendSoftware {
		t.Errorf("expected software backend, got %s", cfg.Render.Backend)
	}
	if cfg.Render.Width != 640 || cfg.Render.Height != 512 {
		t.Errorf("expected 640x512, got %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
	if cfg.Render.OutputWidth != 640 {
		t.Errorf("expected output width default to survive, got %d", cfg.Render.OutputWidth)
	}
	if cfg.Render.Background != [3]float64{0, 0, 0} {
		t.Errorf("expected black background, got %v", cfg.Render.Background)
	}
	if cfg.Semantic.CacheFormat != "ascii" || cfg.Semantic.CategoryKey != "id" {
		t.Errorf("unexpected semantic config %+v", cfg.Semantic)
	}
	if cfg.Semantic.UnlabeledCategory != 0 {
		t.Errorf("expected unlabeled category 0, got %d", cfg.Semantic.UnlabeledCategory)
	}
	if cfg.Logging.LogFile != "segrender.log" {
		t.Errorf("expected log file 'segrender.log', got %s", cfg.Logging.LogFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
render:
  width: not a number
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
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
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
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "segrender.yaml")
	if err := os.WriteFile(configPath, []byte("render:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find segrender.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name: "dataset path flags",
			setup: func() {
				*flagIDs = "/in/ids.json"
				*flagStates = "/in/states"
				*flagScans = "/in/scans"
			},
			verify: func(cfg *Config) {
				if cfg.Paths.IDs != "/in/ids.json" {
					t.Errorf("expected ids /in/ids.json, got %s", cfg.Paths.IDs)
				}
				if cfg.Paths.States != "/in/states" {
					t.Errorf("expected states /in/states, got %s", cfg.Paths.States)
				}
				if cfg.Paths.Scans != "/in/scans" {
					t.Errorf("expected scans /in/scans, got %s", cfg.Paths.Scans)
				}
			},
			teardown: func() {
				*flagIDs = ""
				*flagStates = ""
				*flagScans = ""
			},
		},
		{
			name:  "output flag",
			setup: func() { *flagOutput = "/out" },
			verify: func(cfg *Config) {
				if cfg.Paths.OutputDir != "/out" {
					t.Errorf("expected output /out, got %s", cfg.Paths.OutputDir)
				}
			},
			teardown: func() { *flagOutput = "" },
		},
		{
			name:  "backend flag",
			setup: func() { *flagBackend = BackendSoftware },
			verify: func(cfg *Config) {
				if cfg.Render.Backend != BackendSoftware {
					t.Errorf("expected software backend, got %s", cfg.Render.Backend)
				}
			},
			teardown: func() { *flagBackend = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "segrender.yaml")

	yamlContent := `
paths:
  ids: "/file/ids.json"
  scans: "/file/scans"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagScans = "/flag/scans"
	defer func() {
		*flagConfig = ""
		*flagScans = ""
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Paths.Scans != "/flag/scans" {
		t.Errorf("expected scans from flag, got %s", cfg.Paths.Scans)
	}
	if cfg.Paths.IDs != "/file/ids.json" {
		t.Errorf("expected ids from file, got %s", cfg.Paths.IDs)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	*flagBackend = "directx"
	defer func() { *flagBackend = "" }()

	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if _, err := Load(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "segrender.yaml")

	cfg := Default()
	cfg.Render.Backend = BackendSoftware
	cfg.Paths.Scans = "/saved/scans"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if loaded.Render.Backend != BackendSoftware || loaded.Paths.Scans != "/saved/scans" {
		t.Errorf("saved config not reloaded: %+v", loaded)
	}
}

func TestUnlabeledFallback(t *testing.T) {
	if got := Default().Semantic.UnlabeledFallback(); got != nil {
		t.Errorf("default should have no fallback, got %d", *got)
	}

	sem := SemanticConfig{UnlabeledCategory: 0}
	got := sem.UnlabeledFallback()
	if got == nil || *got != 0 {
		t.Errorf("expected fallback 0, got %v", got)
	}
}
