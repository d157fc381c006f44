package camera

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/segrender/pkg/math"
)

func TestFromFovY(t *testing.T) {
	in, err := FromFovY(1280, 1024, 60, 0.01, 1000)
	require.NoError(t, err)

	assert.InDelta(t, 512/gomath.Tan(gomath.Pi/6), in.Fy, 1e-9)
	assert.Equal(t, in.Fx, in.Fy)
	assert.Equal(t, 639.5, in.Cx)
	assert.Equal(t, 511.5, in.Cy)
	assert.InDelta(t, gomath.Pi/3, in.FovY(), 1e-12)
	assert.InDelta(t, 1.25, in.Aspect(), 1e-12)
}

func TestFromFovYRejects(t *testing.T) {
	for _, tc := range []struct {
		name      string
		w, h      int
		fov       float64
		near, far float64
	}{
		{"zero width", 0, 10, 60, 0.1, 10},
		{"fov 180", 10, 10, 180, 0.1, 10},
		{"near zero", 10, 10, 60, 0, 10},
		{"far before near", 10, 10, 60, 1, 0.5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromFovY(tc.w, tc.h, tc.fov, tc.near, tc.far)
			assert.ErrorIs(t, err, ErrInvalidIntrinsics)
		})
	}
}

func TestProject(t *testing.T) {
	in, err := FromFovY(4, 4, 90, 0.1, 100)
	require.NoError(t, err)

	u, v, d, ok := in.Project(math.Vec3{X: 0, Y: 0, Z: 2})
	require.True(t, ok)
	assert.Equal(t, 1.5, u)
	assert.Equal(t, 1.5, v)
	assert.Equal(t, 2.0, d)

	// Positive camera y is down the image.
	_, v, _, ok = in.Project(math.Vec3{Y: 1, Z: 1})
	require.True(t, ok)
	assert.InDelta(t, 3.5, v, 1e-9)

	_, _, _, ok = in.Project(math.Vec3{Z: -1})
	assert.False(t, ok)
}

func TestViewMatrixLooksDownNegativeZ(t *testing.T) {
	view := ViewMatrix(math.Identity())
	p := view.TransformPoint(math.Vec3{X: 1, Y: 1, Z: 5})
	assert.Equal(t, math.Vec3{X: 1, Y: -1, Z: -5}, p)
}

func TestProjectionMatchesPinhole(t *testing.T) {
	in, err := FromFovY(8, 6, 60, 0.1, 100)
	require.NoError(t, err)

	cam := math.Vec3{X: 0.3, Y: -0.2, Z: 4}
	u, v, _, ok := in.Project(cam)
	require.True(t, ok)

	ndc := in.Projection().TransformPoint(ViewMatrix(math.Identity()).TransformPoint(cam))
	// NDC to pixel index with the top row first.
	gu := (ndc.X+1)/2*float64(in.Width) - 0.5
	gv := (1-ndc.Y)/2*float64(in.Height) - 0.5
	assert.InDelta(t, u, gu, 1e-9)
	assert.InDelta(t, v, gv, 1e-9)
}
