package raster

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/segrender/internal/engine/camera"
	"github.com/Faultbox/segrender/internal/engine/mesh"
	"github.com/Faultbox/segrender/internal/engine/renderer"
	"github.com/Faultbox/segrender/internal/pose"
	"github.com/Faultbox/segrender/pkg/math"
)

var (
	white = [3]float32{1, 1, 1}
	red   = mesh.Color{255, 0, 0}
	green = mesh.Color{0, 255, 0}
)

func newSurface(t *testing.T, w, h int, far float64) *Surface {
	t.Helper()
	in, err := camera.FromFovY(w, h, 90, 0.01, far)
	require.NoError(t, err)
	s := New(renderer.Options{Intrinsics: in, Background: white})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// quad appends an axis-aligned rectangle as two faces of one color.
// corners are given in order around the rectangle.
func quad(m *mesh.Mesh, corners [4][3]float32, c mesh.Color) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, corners[:]...)
	m.Faces = append(m.Faces, mesh.Face{base, base + 1, base + 2}, mesh.Face{base, base + 2, base + 3})
	m.FaceColors = append(m.FaceColors, c, c)
}

// facingQuad is a square at camera-space depth z covering the whole view.
func facingQuad(m *mesh.Mesh, z float32, c mesh.Color) {
	quad(m, [4][3]float32{{-50, -50, z}, {50, -50, z}, {50, 50, z}, {-50, 50, z}}, c)
}

func rgb(c mesh.Color) [3]float32 {
	return [3]float32{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255}
}

func TestRenderRequiresMesh(t *testing.T) {
	s := newSurface(t, 4, 4, 100)
	_, err := s.Render(math.Identity())
	assert.ErrorIs(t, err, renderer.ErrNoMesh)
}

func TestClose(t *testing.T) {
	s := newSurface(t, 4, 4, 100)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Bind(&mesh.Mesh{}), renderer.ErrClosed)
	_, err := s.Render(math.Identity())
	assert.ErrorIs(t, err, renderer.ErrClosed)
}

func TestEmptyMeshRendersBackground(t *testing.T) {
	s := newSurface(t, 4, 3, 100)
	require.NoError(t, s.Bind(&mesh.Mesh{}))

	f, err := s.Render(math.Identity())
	require.NoError(t, err)
	assert.Equal(t, 4, f.Width)
	assert.Equal(t, 3, f.Height)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, white, f.At(x, y))
		}
	}
}

func TestBindRejectsInvalidMesh(t *testing.T) {
	s := newSurface(t, 4, 4, 100)
	err := s.Bind(&mesh.Mesh{Faces: []mesh.Face{{0, 1, 2}}})
	assert.ErrorIs(t, err, mesh.ErrFaceIndexOutOfRange)
}

func TestFullCoverage(t *testing.T) {
	s := newSurface(t, 8, 6, 100)
	m := &mesh.Mesh{}
	facingQuad(m, 2, red)
	require.NoError(t, s.Bind(m))

	f, err := s.Render(math.Identity())
	require.NoError(t, err)
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			assert.Equal(t, rgb(red), f.At(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestDepthTestIsOrderIndependent(t *testing.T) {
	for _, nearFirst := range []bool{true, false} {
		s := newSurface(t, 8, 8, 100)
		m := &mesh.Mesh{}
		if nearFirst {
			facingQuad(m, 2, red)
			facingQuad(m, 3, green)
		} else {
			facingQuad(m, 3, green)
			facingQuad(m, 2, red)
		}
		require.NoError(t, s.Bind(m))

		f, err := s.Render(math.Identity())
		require.NoError(t, err)
		assert.Equal(t, rgb(red), f.At(4, 4), "near first: %v", nearFirst)
	}
}

func TestFarPlaneClips(t *testing.T) {
	s := newSurface(t, 4, 4, 10)
	m := &mesh.Mesh{}
	facingQuad(m, 20, red)
	require.NoError(t, s.Bind(m))

	f, err := s.Render(math.Identity())
	require.NoError(t, err)
	assert.Equal(t, white, f.At(2, 2))
}

func TestNearPlaneClipping(t *testing.T) {
	// A floor below the camera running from behind it to far ahead.
	s := newSurface(t, 8, 8, 100)
	m := &mesh.Mesh{}
	quad(m, [4][3]float32{{-10, 0.5, -1}, {10, 0.5, -1}, {10, 0.5, 20}, {-10, 0.5, 20}}, green)
	require.NoError(t, s.Bind(m))

	f, err := s.Render(math.Identity())
	require.NoError(t, err)
	assert.Equal(t, rgb(green), f.At(4, 7), "floor visible at the bottom")
	assert.Equal(t, white, f.At(4, 0), "nothing above the horizon")
}

func TestRebindReplacesMesh(t *testing.T) {
	s := newSurface(t, 4, 4, 100)
	first := &mesh.Mesh{}
	facingQuad(first, 2, red)
	second := &mesh.Mesh{}
	facingQuad(second, 2, green)

	require.NoError(t, s.Bind(first))
	require.NoError(t, s.Bind(second))
	f, err := s.Render(math.Identity())
	require.NoError(t, err)
	assert.Equal(t, rgb(green), f.At(1, 1))
}

func TestDatasetPoseOrientation(t *testing.T) {
	// A wall at world y = 3, red above the camera height, green below.
	m := &mesh.Mesh{}
	quad(m, [4][3]float32{{-10, 3, 0}, {10, 3, 0}, {10, 3, 10}, {-10, 3, 10}}, red)
	quad(m, [4][3]float32{{-10, 3, -10}, {10, 3, -10}, {10, 3, 0}, {-10, 3, 0}}, green)

	s := newSurface(t, 9, 9, 100)
	require.NoError(t, s.Bind(m))

	facing := pose.ComputeExtrinsic(math.Vec3{}, 0, 0)
	f, err := s.Render(facing.Mat4)
	require.NoError(t, err)
	assert.Equal(t, rgb(red), f.At(4, 1), "up is the top of the image")
	assert.Equal(t, rgb(green), f.At(4, 7))

	away := pose.ComputeExtrinsic(math.Vec3{}, gomath.Pi, 0)
	f, err = s.Render(away.Mat4)
	require.NoError(t, err)
	assert.Equal(t, white, f.At(4, 4), "wall is behind the camera")
}

func TestBindSkipsDegenerateFaces(t *testing.T) {
	s := newSurface(t, 8, 8, 100)
	m := &mesh.Mesh{
		Vertices: [][3]float32{{0, 0, 1}, {1, 0, 1}, {2, 0, 1}, {0, 1, 1}},
		Faces:    []mesh.Face{{0, 1, 2}, {0, 1, 3}, {3, 3, 1}},
	}
	require.NoError(t, s.Bind(m))
	assert.Len(t, s.tris, 1, "collinear and repeated-vertex faces dropped")
}
