// Package renderer defines the render surface contract shared by the
// OpenGL and software backends, and the float framebuffer they produce.
package renderer

import (
	"errors"

	"github.com/Faultbox/segrender/internal/engine/camera"
	"github.com/Faultbox/segrender/internal/engine/mesh"
	"github.com/Faultbox/segrender/pkg/math"
)

// ErrNoMesh is returned by Render before any mesh is bound.
var ErrNoMesh = errors.New("no mesh bound to surface")

// ErrClosed is returned by operations on a released surface.
var ErrClosed = errors.New("surface closed")

// Surface renders a bound mesh from a camera pose into a float framebuffer.
//
// A surface is acquired once, bound once per mesh and rendered many times.
// Every Render sets the full camera state from its extrinsic; nothing
// carries over between calls.
type Surface interface {
	// Bind replaces the mesh drawn by subsequent renders.
	Bind(m *mesh.Mesh) error

	// Render draws the bound mesh with the given world-to-camera matrix.
	Render(extrinsic math.Mat4) (*Frame, error)

	// Size returns the framebuffer dimensions.
	Size() (width, height int)

	// Close releases the surface. It is safe to call more than once.
	Close() error
}

// Options configures a surface.
type Options struct {
	Intrinsics camera.Intrinsics
	Background [3]float32 // RGB in [0, 1]
}
