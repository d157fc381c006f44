// Package config handles renderer configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/segrender/pkg/formats"
)

// Render backends.
const (
	BackendOpenGL   = "opengl"
	BackendSoftware = "software"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all renderer settings.
type Config struct {
	Paths    PathsConfig    `yaml:"paths"`
	Render   RenderConfig   `yaml:"render"`
	Semantic SemanticConfig `yaml:"semantic"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PathsConfig holds dataset input and output locations.
type PathsConfig struct {
	IDs       string `yaml:"ids"`        // Manifest of scans and viewpoints
	States    string `yaml:"states"`     // Directory of {scan}_{viewpoint}_state.json
	Scans     string `yaml:"scans"`      // Matterport scans root
	Colors    string `yaml:"colors"`     // Category color table
	OutputDir string `yaml:"output_dir"` // Rendered images
}

// RenderConfig holds surface and output image settings.
type RenderConfig struct {
	Backend      string     `yaml:"backend"`
	Width        int        `yaml:"width"`
	Height       int        `yaml:"height"`
	OutputWidth  int        `yaml:"output_width"`
	OutputHeight int        `yaml:"output_height"`
	FovY         float64    `yaml:"fov_y"` // degrees
	Near         float64    `yaml:"near"`
	Far          float64    `yaml:"far"`
	Background   [3]float64 `yaml:"background"` // RGB in [0, 1]
}

// SemanticConfig holds mesh coloring settings.
type SemanticConfig struct {
	CacheFormat       string `yaml:"cache_format"`
	CategoryKey       string `yaml:"category_key"`
	UnlabeledCategory int    `yaml:"unlabeled_category"` // -1 fails on unlabeled segments
}

// UnlabeledFallback returns the category for unlabeled segments, or nil
// when they are an error.
func (c SemanticConfig) UnlabeledFallback() *int {
	if c.UnlabeledCategory < 0 {
		return nil
	}
	category := c.UnlabeledCategory
	return &category
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			IDs:       "./ids.json",
			States:    "./states/",
			Scans:     "./data/v1/scans",
			Colors:    "./object_colors.json",
			OutputDir: "./output_segs",
		},
		Render: RenderConfig{
			Backend:      BackendOpenGL,
			Width:        1280,
			Height:       1024,
			OutputWidth:  640,
			OutputHeight: 480,
			FovY:         60,
			Near:         0.01,
			Far:          1000,
			Background:   [3]float64{1, 1, 1},
		},
		Semantic: SemanticConfig{
			CacheFormat:       string(formats.PLYBinaryLittleEnd),
			CategoryKey:       string(formats.CategoryByObjectID),
			UnlabeledCategory: -1,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	r := c.Render
	switch r.Backend {
	case BackendOpenGL, BackendSoftware:
	default:
		return fmt.Errorf("%w: unknown render backend %q", ErrInvalidConfig, r.Backend)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: surface size %dx%d", ErrInvalidConfig, r.Width, r.Height)
	}
	if r.OutputWidth <= 0 || r.OutputHeight <= 0 {
		return fmt.Errorf("%w: output size %dx%d", ErrInvalidConfig, r.OutputWidth, r.OutputHeight)
	}
	if r.FovY <= 0 || r.FovY >= 180 {
		return fmt.Errorf("%w: fov_y %v", ErrInvalidConfig, r.FovY)
	}
	if r.Near <= 0 || r.Far <= r.Near {
		return fmt.Errorf("%w: clip range [%v, %v]", ErrInvalidConfig, r.Near, r.Far)
	}
	for _, v := range r.Background {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: background %v", ErrInvalidConfig, r.Background)
		}
	}

	if !formats.PLYFormat(c.Semantic.CacheFormat).Valid() {
		return fmt.Errorf("%w: cache format %q", ErrInvalidConfig, c.Semantic.CacheFormat)
	}
	if !formats.CategoryKey(c.Semantic.CategoryKey).Valid() {
		return fmt.Errorf("%w: category key %q", ErrInvalidConfig, c.Semantic.CategoryKey)
	}

	if c.Paths.IDs == "" || c.Paths.States == "" || c.Paths.Scans == "" || c.Paths.OutputDir == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidConfig)
	}
	return nil
}
