// Package main is the entry point for segrender, which renders
// semantic-colored snapshots of Matterport3D regions at dataset poses.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/segrender/internal/batch"
	"github.com/Faultbox/segrender/internal/config"
	"github.com/Faultbox/segrender/internal/engine/camera"
	"github.com/Faultbox/segrender/internal/engine/glsurface"
	"github.com/Faultbox/segrender/internal/engine/raster"
	"github.com/Faultbox/segrender/internal/engine/renderer"
	"github.com/Faultbox/segrender/internal/logger"
	"github.com/Faultbox/segrender/internal/semantic"
	"github.com/Faultbox/segrender/internal/viewpoint"
	"github.com/Faultbox/segrender/pkg/formats"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("=== segrender ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		logger.Error("render failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func run(ctx context.Context, cfg *config.Config) (err error) {
	manifest, err := formats.LoadManifest(cfg.Paths.IDs)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}
	colors, err := formats.LoadColorTable(cfg.Paths.Colors)
	if err != nil {
		return fmt.Errorf("loading color table: %w", err)
	}

	colorizer, err := semantic.New(semantic.Options{
		Colors:            colors,
		CategoryKey:       formats.CategoryKey(cfg.Semantic.CategoryKey),
		CacheFormat:       formats.PLYFormat(cfg.Semantic.CacheFormat),
		UnlabeledCategory: cfg.Semantic.UnlabeledFallback(),
	})
	if err != nil {
		return err
	}

	surface, err := newSurface(cfg.Render)
	if err != nil {
		return fmt.Errorf("creating %s surface: %w", cfg.Render.Backend, err)
	}
	views := viewpoint.New(surface, viewpoint.Config{
		OutputWidth:  cfg.Render.OutputWidth,
		OutputHeight: cfg.Render.OutputHeight,
	})
	defer func() {
		err = multierr.Append(err, views.Close())
	}()

	o := batch.New(batch.Paths{
		States:    cfg.Paths.States,
		Scans:     cfg.Paths.Scans,
		OutputDir: cfg.Paths.OutputDir,
	}, colorizer, views)

	stats, err := o.Run(ctx, manifest)
	logger.Info("run finished", stats.Fields()...)
	return err
}

// newSurface acquires the configured render backend.
func newSurface(rc config.RenderConfig) (renderer.Surface, error) {
	in, err := camera.FromFovY(rc.Width, rc.Height, rc.FovY, rc.Near, rc.Far)
	if err != nil {
		return nil, err
	}
	opts := renderer.Options{
		Intrinsics: in,
		Background: [3]float32{float32(rc.Background[0]), float32(rc.Background[1]), float32(rc.Background[2])},
	}

	switch rc.Backend {
	case config.BackendSoftware:
		return raster.New(opts), nil
	default:
		return glsurface.Open(opts)
	}
}
