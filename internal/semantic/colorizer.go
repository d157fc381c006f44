// Package semantic colors region meshes by the semantic category of each
// face and caches the colored result on disk.
package semantic

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/segrender/internal/engine/mesh"
	"github.com/Faultbox/segrender/internal/logger"
	"github.com/Faultbox/segrender/pkg/formats"
)

// MeshLoader reads a raw region mesh.
type MeshLoader interface {
	Load(path string) (*mesh.Mesh, error)
}

// MeshLoaderFunc adapts a function to MeshLoader.
type MeshLoaderFunc func(path string) (*mesh.Mesh, error)

// Load calls f(path).
func (f MeshLoaderFunc) Load(path string) (*mesh.Mesh, error) { return f(path) }

// PLYLoader loads meshes from PLY files.
var PLYLoader MeshLoader = MeshLoaderFunc(mesh.Load)

// Options configures a Colorizer.
type Options struct {
	Colors      formats.ColorTable
	CategoryKey formats.CategoryKey
	CacheFormat formats.PLYFormat

	// UnlabeledCategory colors faces whose segment is in no group.
	// When nil such faces are an error.
	UnlabeledCategory *int

	// Loader reads raw meshes. Defaults to PLYLoader.
	Loader MeshLoader
}

// Request names the files of one region.
type Request struct {
	MeshPath      string // raw region mesh
	SegGroupsPath string // segment -> category groups
	FaceSegsPath  string // face -> segment
	OutputPath    string // colored mesh cache
}

// Result is a colored mesh ready to bind.
type Result struct {
	Mesh       *mesh.Mesh
	Assignment *SegmentAssignment // nil when served from cache
	Cached     bool
}

// Colorizer builds colored region meshes.
type Colorizer struct {
	opts Options
}

// New creates a Colorizer.
func New(opts Options) (*Colorizer, error) {
	if len(opts.Colors) == 0 {
		return nil, formats.ErrEmptyColorTable
	}
	if opts.CategoryKey == "" {
		opts.CategoryKey = formats.CategoryByObjectID
	}
	if !opts.CategoryKey.Valid() {
		return nil, fmt.Errorf("unknown category key %q", opts.CategoryKey)
	}
	if opts.CacheFormat == "" {
		opts.CacheFormat = formats.PLYBinaryLittleEnd
	}
	if !opts.CacheFormat.Valid() {
		return nil, fmt.Errorf("%w: %s", formats.ErrUnsupportedPLYFormat, opts.CacheFormat)
	}
	if opts.UnlabeledCategory != nil && *opts.UnlabeledCategory < 0 {
		return nil, fmt.Errorf("%w: unlabeled category %d", ErrCategoryOutOfRange, *opts.UnlabeledCategory)
	}
	if opts.Loader == nil {
		opts.Loader = PLYLoader
	}
	return &Colorizer{opts: opts}, nil
}

// Colorize returns the colored mesh of a region. An existing file at
// req.OutputPath is returned as is; otherwise the mesh is built from the
// raw mesh and segmentation files and written to req.OutputPath.
func (c *Colorizer) Colorize(req Request) (*Result, error) {
	if _, err := os.Stat(req.OutputPath); err == nil {
		m, err := mesh.Load(req.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("reading cached colored mesh: %w", err)
		}
		logger.Debug("colored mesh cache hit",
			zap.String("path", req.OutputPath),
			zap.Int("faces", m.FaceCount()))
		return &Result{Mesh: m, Cached: true}, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	raw, err := c.opts.Loader.Load(req.MeshPath)
	if err != nil {
		return nil, fmt.Errorf("loading region mesh: %w", err)
	}
	faces, err := formats.LoadFaceSegmentation(req.FaceSegsPath)
	if err != nil {
		return nil, err
	}
	groups, err := formats.LoadSegGroups(req.SegGroupsPath)
	if err != nil {
		return nil, err
	}

	unlabeled := -1
	if c.opts.UnlabeledCategory != nil {
		unlabeled = *c.opts.UnlabeledCategory
	}
	assignment, err := NewAssignment(faces, groups, c.opts.CategoryKey, unlabeled)
	if err != nil {
		return nil, err
	}
	colored, err := c.Apply(raw, assignment)
	if err != nil {
		return nil, fmt.Errorf("coloring %s: %w", req.MeshPath, err)
	}

	if err := writeAtomic(req.OutputPath, colored, c.opts.CacheFormat); err != nil {
		return nil, fmt.Errorf("writing colored mesh: %w", err)
	}
	logger.Debug("colored mesh written",
		zap.String("path", req.OutputPath),
		zap.Int("faces", colored.FaceCount()),
		zap.Int("segments", len(assignment.SegmentCategories)))

	return &Result{Mesh: colored, Assignment: assignment}, nil
}

// Apply colors raw by the assignment. The result is unrolled per face and
// carries the flat face colors as vertex colors, matching what a cache
// round trip produces.
func (c *Colorizer) Apply(raw *mesh.Mesh, a *SegmentAssignment) (*mesh.Mesh, error) {
	if a.FaceCount() != raw.FaceCount() {
		return nil, fmt.Errorf("%w: %d segment indices for %d faces", ErrFaceCountMismatch, a.FaceCount(), raw.FaceCount())
	}
	colors, err := a.Colors(c.opts.Colors)
	if err != nil {
		return nil, err
	}

	faceColors := make([]mesh.Color, len(colors))
	for i, col := range colors {
		faceColors[i] = mesh.Color(col)
	}
	flat := &mesh.Mesh{
		Vertices:   raw.Vertices,
		Faces:      raw.Faces,
		FaceColors: faceColors,
	}
	return flat.Unrolled(), nil
}

// cacheFileMode is the mode of written caches; CreateTemp opens files 0600.
const cacheFileMode = 0644

// writeAtomic writes the mesh to a temp file next to path and renames it
// into place, so a crash never leaves a partial cache behind.
func writeAtomic(path string, m *mesh.Mesh, format formats.PLYFormat) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := tmp.Chmod(cacheFileMode); err != nil {
		return multierr.Append(err, tmp.Close())
	}
	if err := m.WritePLY(tmp, format); err != nil {
		return multierr.Append(err, tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
