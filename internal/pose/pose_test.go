package pose

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/segrender/pkg/formats"
	"github.com/Faultbox/segrender/pkg/math"
)

const tolerance = 1e-6

var testAngles = []float64{0, gomath.Pi / 2, -gomath.Pi, 10 * gomath.Pi, -7.3, 1e3}

func TestFromRecordSignConventions(t *testing.T) {
	p := FromRecord(formats.StateRecord{
		ScanID:      "S1",
		ViewpointID: "VP1",
		Heading:     0.4,
		Elevation:   -0.2,
		ViewIndex:   7,
		Location:    formats.Location{X: 1, Y: 2, Z: 3},
	})

	assert.Equal(t, -0.4, p.Heading)
	assert.Equal(t, 0.2, p.Elevation)
	assert.Equal(t, math.Vec3{X: -1, Y: 2, Z: 3}, p.Location)
	assert.Equal(t, 7, p.ViewIndex)
	assert.Equal(t, "S1_VP1_07.png", p.ImageName())
}

func TestImageNameZeroPadding(t *testing.T) {
	assert.Equal(t, "S_V_00.png", Pose{ScanID: "S", ViewpointID: "V"}.ImageName())
	assert.Equal(t, "S_V_123.png", Pose{ScanID: "S", ViewpointID: "V", ViewIndex: 123}.ImageName())
}

func TestBasePlacement(t *testing.T) {
	m := BasePlacement(math.Vec3{X: -1, Y: 2, Z: 3})
	assert.Equal(t, math.Mat4{
		1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, -1, 0,
		-1, 2, 3, 1,
	}, m)
}

func TestFactorOrder(t *testing.T) {
	fs := Factors(0.3, 0.1)
	require.Len(t, fs, 4)
	names := []string{fs[0].Name, fs[1].Name, fs[2].Name, fs[3].Name}
	assert.Equal(t, []string{FactorReference, FactorStage, FactorHeading, FactorElevation}, names)
	assert.Equal(t, math.RotateY(0.3), fs[2].Matrix)
	assert.Equal(t, math.RotateX(0.1), fs[3].Matrix)
}

func TestComposeIsLeftFold(t *testing.T) {
	base := BasePlacement(math.Vec3{X: 0.5, Y: -1, Z: 2})
	fs := Factors(0.3, -0.2)

	want := fs[3].Matrix.Mul(fs[2].Matrix.Mul(fs[1].Matrix.Mul(fs[0].Matrix.Mul(base))))
	assert.Equal(t, want, Compose(base, fs).Mat4)
}

func TestReferenceOrientation(t *testing.T) {
	// Heading and elevation zero: camera x is world x, camera y points
	// down (world -z), camera looks along world +y.
	e := ComputeExtrinsic(math.Vec3{}, 0, 0)
	want := [9]float64{
		1, 0, 0,
		0, 0, -1,
		0, 1, 0,
	}
	got := e.Rotation()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12, "rotation element %d", i)
	}
}

func TestDeterminism(t *testing.T) {
	loc := math.Vec3{X: -1.25, Y: 7.5, Z: 1.6}
	for _, h := range testAngles {
		for _, el := range testAngles {
			a := ComputeExtrinsic(loc, h, el)
			b := ComputeExtrinsic(loc, h, el)
			assert.Equal(t, a, b, "heading %v elevation %v", h, el)
		}
	}
}

func TestOrthonormality(t *testing.T) {
	loc := math.Vec3{X: 3, Y: -4, Z: 1.5}
	for _, h := range testAngles {
		for _, el := range testAngles {
			e := ComputeExtrinsic(loc, h, el)
			assert.Less(t, e.OrthonormalityError(), tolerance, "heading %v elevation %v", h, el)
			assert.True(t, e.IsAffine())
		}
	}
}

func TestHeadingSignConvention(t *testing.T) {
	// Zero translation keeps the 4x4 transpose a pure rotation inverse.
	loc := math.Vec3{}
	ref := ComputeExtrinsic(loc, 0, 0).Transpose()

	for _, h := range testAngles {
		pos := ComputeExtrinsic(loc, h, 0).Mul(ref)
		neg := ComputeExtrinsic(loc, -h, 0).Mul(ref).Transpose()

		// Both reduce to a pure rotation about Y by h.
		want := math.RotateY(h).Rotation()
		gotPos := pos.Rotation()
		gotNeg := neg.Rotation()
		for i := range want {
			assert.InDelta(t, want[i], gotPos[i], tolerance, "heading %v element %d", h, i)
			assert.InDelta(t, gotPos[i], gotNeg[i], tolerance, "heading %v element %d", h, i)
		}
	}
}

func TestCameraCenterIsDatasetLocation(t *testing.T) {
	rec := formats.StateRecord{
		ScanID:    "S1",
		Heading:   1.1,
		Elevation: 0.3,
		Location:  formats.Location{X: 1, Y: 2, Z: 3},
	}
	for _, h := range testAngles {
		rec.Heading = h
		c := FromRecord(rec).Extrinsic().CameraCenter()
		assert.InDelta(t, 1.0, c.X, tolerance)
		assert.InDelta(t, 2.0, c.Y, tolerance)
		assert.InDelta(t, 3.0, c.Z, tolerance)
	}
}

func TestForwardFollowsHeading(t *testing.T) {
	f := ComputeExtrinsic(math.Vec3{}, 0, 0).Forward()
	assert.InDelta(t, 1.0, f.Y, 1e-12)

	// A quarter turn keeps the view horizontal.
	f = ComputeExtrinsic(math.Vec3{}, gomath.Pi/2, 0).Forward()
	assert.InDelta(t, 0.0, f.Z, 1e-12)
	assert.InDelta(t, -1.0, f.X, 1e-12)
}
