// Package batch drives rendering over a manifest of scans and viewpoints.
//
// Work runs in manifest order on the calling goroutine. A scan's region
// table is read once, when its first viewpoint with a state file is
// reached; each viewpoint with a state file is resolved
// to its region, the region's colored mesh is bound (reusing the bound one
// when consecutive viewpoints share a region) and every recorded pose is
// rendered to disk.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/segrender/internal/engine/mesh"
	"github.com/Faultbox/segrender/internal/logger"
	"github.com/Faultbox/segrender/internal/pose"
	"github.com/Faultbox/segrender/internal/semantic"
	"github.com/Faultbox/segrender/pkg/formats"
)

// ErrUnresolvedRegion is returned for a viewpoint missing from its scan's
// region table.
var ErrUnresolvedRegion = errors.New("viewpoint has no region table entry")

// Colorizer produces the colored mesh of a region.
type Colorizer interface {
	Colorize(req semantic.Request) (*semantic.Result, error)
}

// ViewRenderer draws poses of a bound mesh to image files.
type ViewRenderer interface {
	Bind(m *mesh.Mesh) error
	CaptureAndSave(scanID, viewpointID string, p pose.Pose, outputDir string) (string, error)
}

// Stats summarizes a run.
type Stats struct {
	Scans            int
	Viewpoints       int // viewpoints rendered
	SkippedNoState   int
	SkippedNoRegion  int
	RegionsColorized int // built from raw meshes
	RegionsCached    int // served from the colored mesh cache
	Images           int
}

// Fields returns the stats as log fields.
func (s Stats) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("scans", s.Scans),
		zap.Int("viewpoints", s.Viewpoints),
		zap.Int("skipped_no_state", s.SkippedNoState),
		zap.Int("skipped_no_region", s.SkippedNoRegion),
		zap.Int("regions_colorized", s.RegionsColorized),
		zap.Int("regions_cached", s.RegionsCached),
		zap.Int("images", s.Images),
	}
}

// Orchestrator runs the batch.
type Orchestrator struct {
	paths     Paths
	colorizer Colorizer
	renderer  ViewRenderer

	// boundRegion identifies the mesh currently bound, "" when none.
	boundRegion string
}

// New creates an orchestrator.
func New(paths Paths, colorizer Colorizer, renderer ViewRenderer) *Orchestrator {
	return &Orchestrator{
		paths:     paths,
		colorizer: colorizer,
		renderer:  renderer,
	}
}

// Run renders every viewpoint of the manifest. It stops at the first
// error, or when ctx is done between two poses.
func (o *Orchestrator) Run(ctx context.Context, manifest []formats.ScanEntry) (Stats, error) {
	var stats Stats
	for i, entry := range manifest {
		logger.Info(fmt.Sprintf("process %d / %d", i+1, len(manifest)), logger.Scan(entry.ScanID))
		if err := o.runScan(ctx, entry, &stats); err != nil {
			return stats, err
		}
		stats.Scans++
	}
	return stats, nil
}

// regionIndex reads a scan's region table on first use.
type regionIndex struct {
	path   string
	table  formats.RegionTable
	loaded bool
}

func (r *regionIndex) region(vp string) (string, bool, error) {
	if !r.loaded {
		table, err := formats.LoadRegionTable(r.path)
		if err != nil {
			return "", false, err
		}
		r.table, r.loaded = table, true
	}
	region, ok := r.table.Region(vp)
	return region, ok, nil
}

func (o *Orchestrator) runScan(ctx context.Context, entry formats.ScanEntry, stats *Stats) error {
	regions := &regionIndex{path: o.paths.RegionTablePath(entry.ScanID)}
	for _, vp := range entry.ViewpointIDs {
		if err := o.runViewpoint(ctx, entry.ScanID, vp, regions, stats); err != nil {
			return fmt.Errorf("scan %s viewpoint %s: %w", entry.ScanID, vp, err)
		}
	}
	return nil
}

func (o *Orchestrator) runViewpoint(ctx context.Context, scanID, vp string, regions *regionIndex, stats *Stats) error {
	statePath := o.paths.StatePath(scanID, vp)
	if _, err := os.Stat(statePath); errors.Is(err, fs.ErrNotExist) {
		logger.Debug("no state file, skipping", logger.Scan(scanID), logger.Viewpoint(vp))
		stats.SkippedNoState++
		return nil
	} else if err != nil {
		return err
	}

	region, ok, err := regions.region(vp)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnresolvedRegion
	}
	if region == formats.NoRegion {
		logger.Info("viewpoint outside every region, skipping", logger.Scan(scanID), logger.Viewpoint(vp))
		stats.SkippedNoRegion++
		return nil
	}

	if err := o.bindRegion(scanID, region, stats); err != nil {
		return err
	}

	records, err := formats.LoadStates(statePath)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := o.renderer.CaptureAndSave(scanID, vp, pose.FromRecord(rec), o.paths.OutputDir); err != nil {
			return err
		}
		stats.Images++
	}

	stats.Viewpoints++
	logger.Info("viewpoint rendered",
		logger.Scan(scanID),
		logger.Viewpoint(vp),
		logger.Region(region),
		zap.Int("poses", len(records)))
	return nil
}

// bindRegion makes the region's colored mesh current, unless it already is.
func (o *Orchestrator) bindRegion(scanID, region string, stats *Stats) error {
	key := scanID + "/" + region
	if key == o.boundRegion {
		return nil
	}

	res, err := o.colorizer.Colorize(o.paths.RegionRequest(scanID, region))
	if err != nil {
		return fmt.Errorf("region %s: %w", region, err)
	}
	if res.Cached {
		stats.RegionsCached++
	} else {
		stats.RegionsColorized++
	}

	o.boundRegion = ""
	if err := o.renderer.Bind(res.Mesh); err != nil {
		return err
	}
	o.boundRegion = key
	logger.Debug("region bound",
		logger.Scan(scanID),
		logger.Region(region),
		zap.Int("faces", res.Mesh.FaceCount()),
		zap.Bool("cached", res.Cached))
	return nil
}
