// Package camera provides the pinhole camera model shared by the render
// surfaces.
//
// Camera space follows the extrinsic convention: x right, y down, z
// forward. Pixel (0, 0) is the top-left pixel and pixel centers sit on
// integer coordinates.
package camera

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/segrender/pkg/math"
)

// ErrInvalidIntrinsics is returned for unusable camera parameters.
var ErrInvalidIntrinsics = errors.New("invalid camera intrinsics")

// Intrinsics is a pinhole camera with a clip range.
type Intrinsics struct {
	Width, Height int
	Fx, Fy        float64 // focal lengths in pixels
	Cx, Cy        float64 // principal point in pixels
	Near, Far     float64
}

// FromFovY builds intrinsics for a surface size and vertical field of view
// in degrees. Pixels are square and the principal point is centered.
func FromFovY(width, height int, fovYDeg, near, far float64) (Intrinsics, error) {
	if width <= 0 || height <= 0 {
		return Intrinsics{}, fmt.Errorf("%w: size %dx%d", ErrInvalidIntrinsics, width, height)
	}
	if fovYDeg <= 0 || fovYDeg >= 180 {
		return Intrinsics{}, fmt.Errorf("%w: fov %v", ErrInvalidIntrinsics, fovYDeg)
	}
	if near <= 0 || far <= near {
		return Intrinsics{}, fmt.Errorf("%w: clip range [%v, %v]", ErrInvalidIntrinsics, near, far)
	}

	f := float64(height) / 2 / gomath.Tan(math.Deg(fovYDeg)/2)
	return Intrinsics{
		Width:  width,
		Height: height,
		Fx:     f,
		Fy:     f,
		Cx:     float64(width)/2 - 0.5,
		Cy:     float64(height)/2 - 0.5,
		Near:   near,
		Far:    far,
	}, nil
}

// FovY returns the vertical field of view in radians.
func (in Intrinsics) FovY() float64 {
	return 2 * gomath.Atan(float64(in.Height)/2/in.Fy)
}

// Aspect returns width / height.
func (in Intrinsics) Aspect() float64 {
	return float64(in.Width) / float64(in.Height)
}

// Project maps a camera-space point to pixel coordinates and depth.
// ok is false for points at or behind the camera.
func (in Intrinsics) Project(p math.Vec3) (u, v, depth float64, ok bool) {
	if p.Z <= 0 {
		return 0, 0, 0, false
	}
	return in.Fx*p.X/p.Z + in.Cx, in.Fy*p.Y/p.Z + in.Cy, p.Z, true
}

// Visible reports whether depth lies inside the clip range.
func (in Intrinsics) Visible(depth float64) bool {
	return depth >= in.Near && depth <= in.Far
}

// glFlip converts camera space (y down, z forward) to OpenGL eye space
// (y up, looking down -z).
var glFlip = math.Diag(1, -1, -1)

// ViewMatrix converts a world-to-camera extrinsic into an OpenGL view
// matrix.
func ViewMatrix(extrinsic math.Mat4) math.Mat4 {
	return glFlip.Mul(extrinsic)
}

// Projection returns the OpenGL projection equivalent to the intrinsics.
// Only centered principal points are representable; FromFovY produces
// those.
func (in Intrinsics) Projection() math.Mat4 {
	return math.Perspective(in.FovY(), in.Aspect(), in.Near, in.Far)
}
