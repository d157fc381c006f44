// Package viewpoint renders dataset camera poses into output images.
package viewpoint

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/Faultbox/segrender/internal/engine/capture"
	"github.com/Faultbox/segrender/internal/engine/mesh"
	"github.com/Faultbox/segrender/internal/engine/renderer"
	"github.com/Faultbox/segrender/internal/logger"
	"github.com/Faultbox/segrender/internal/pose"
)

// ErrFrameSize is returned when a surface hands back a frame whose size
// differs from the surface size.
var ErrFrameSize = errors.New("frame size does not match surface")

// DefaultOrthonormalityTolerance bounds RᵀR - I before a pose is reported.
const DefaultOrthonormalityTolerance = 1e-6

// Config holds output settings.
type Config struct {
	OutputWidth  int
	OutputHeight int

	// OrthonormalityTolerance defaults to DefaultOrthonormalityTolerance.
	OrthonormalityTolerance float64
}

// Renderer draws poses through one render surface.
type Renderer struct {
	surface renderer.Surface
	cfg     Config
}

// New wraps an acquired surface. The renderer owns it from here on.
func New(surface renderer.Surface, cfg Config) *Renderer {
	if cfg.OrthonormalityTolerance <= 0 {
		cfg.OrthonormalityTolerance = DefaultOrthonormalityTolerance
	}
	return &Renderer{surface: surface, cfg: cfg}
}

// Bind loads the mesh that subsequent renders draw.
func (r *Renderer) Bind(m *mesh.Mesh) error {
	if err := r.surface.Bind(m); err != nil {
		return fmt.Errorf("binding mesh: %w", err)
	}
	b := m.Bounds()
	logger.Debug("mesh bound",
		zap.Int("faces", m.FaceCount()),
		zap.Float32s("min", b.Min[:]),
		zap.Float32s("max", b.Max[:]),
		zap.Float32s("center", centerOf(b)))
	return nil
}

// Render draws the bound mesh from the pose and returns the image at
// output size.
func (r *Renderer) Render(p pose.Pose) (image.Image, error) {
	ext := p.Extrinsic()
	if e := ext.OrthonormalityError(); e > r.cfg.OrthonormalityTolerance {
		logger.Warn("extrinsic rotation is not orthonormal",
			logger.Scan(p.ScanID),
			logger.Viewpoint(p.ViewpointID),
			zap.Int("view_index", p.ViewIndex),
			zap.Float64("error", e))
	}

	center, forward := ext.CameraCenter(), ext.Forward()
	logger.Debug("rendering pose",
		zap.String("image", p.ImageName()),
		zap.Float64s("center", []float64{center.X, center.Y, center.Z}),
		zap.Float64s("forward", []float64{forward.X, forward.Y, forward.Z}))

	frame, err := r.surface.Render(ext.Mat4)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", p.ImageName(), err)
	}
	if w, h := r.surface.Size(); frame.Width != w || frame.Height != h {
		return nil, fmt.Errorf("%w: %s is %dx%d, surface is %dx%d", ErrFrameSize, p.ImageName(), frame.Width, frame.Height, w, h)
	}
	return capture.Resize(capture.ToImage(frame), r.cfg.OutputWidth, r.cfg.OutputHeight), nil
}

// CaptureAndSave renders the pose and writes it as
// {scanID}_{viewpointID}_{viewIndex:02d}.png in outputDir, creating the
// directory if needed. It returns the written path.
func (r *Renderer) CaptureAndSave(scanID, viewpointID string, p pose.Pose, outputDir string) (string, error) {
	img, err := r.Render(p)
	if err != nil {
		return "", err
	}
	path, err := capture.NewWriter(outputDir).Save(img, pose.ImageName(scanID, viewpointID, p.ViewIndex))
	if err != nil {
		return "", err
	}
	logger.Debug("image written", zap.String("path", path))
	return path, nil
}

// Close releases the surface.
func (r *Renderer) Close() error {
	return r.surface.Close()
}

func centerOf(b mesh.Bounds) []float32 {
	c := b.Center()
	return c[:]
}
