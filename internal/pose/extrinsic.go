package pose

import (
	gomath "math"

	"gonum.org/v1/gonum/mat"

	"github.com/Faultbox/segrender/pkg/math"
)

// Extrinsic is a 4x4 world-to-camera transform: rotation in the upper-left
// 3x3 block, translation in the last column, last row (0, 0, 0, 1).
type Extrinsic struct {
	math.Mat4
}

// Factor is one named rotation in the composition chain.
type Factor struct {
	Name   string
	Matrix math.Mat4
}

// Names of the composition factors, in application order.
const (
	FactorReference = "reference"
	FactorStage     = "stage"
	FactorHeading   = "heading"
	FactorElevation = "elevation"
)

var (
	// axisFlip turns the dataset's z-up frame into the renderer's
	// y-down, z-forward camera frame.
	axisFlip = math.Diag(1, -1, -1)

	// referenceReorientation is the (0°, 90°, 90°) "xyz" Euler rotation.
	referenceReorientation = math.MustEuler("xyz", 0, math.Deg(90), math.Deg(90))

	// stageCorrection is -90° about Y.
	stageCorrection = math.RotateY(math.Deg(-90))
)

// BasePlacement returns the axis flip with the camera location as its
// translation column.
func BasePlacement(location math.Vec3) math.Mat4 {
	return math.Translate(location.X, location.Y, location.Z).Mul(axisFlip)
}

// Factors returns the rotation chain for a heading and elevation, in the
// order they are applied.
func Factors(heading, elevation float64) []Factor {
	return []Factor{
		{Name: FactorReference, Matrix: referenceReorientation},
		{Name: FactorStage, Matrix: stageCorrection},
		{Name: FactorHeading, Matrix: math.RotateY(heading)},
		{Name: FactorElevation, Matrix: math.RotateX(elevation)},
	}
}

// Compose left-multiplies each factor onto base, in order. The full 4x4 is
// carried, so the translation column rotates with the chain.
func Compose(base math.Mat4, factors []Factor) Extrinsic {
	acc := base
	for _, f := range factors {
		acc = f.Matrix.Mul(acc)
	}
	return Extrinsic{acc}
}

// ComputeExtrinsic converts a renderer-convention location, heading and
// elevation into an extrinsic matrix. Any real heading or elevation is
// accepted; the result is not renormalized.
func ComputeExtrinsic(location math.Vec3, heading, elevation float64) Extrinsic {
	return Compose(BasePlacement(location), Factors(heading, elevation))
}

// RotationDense returns the rotation block as a gonum matrix.
func (e Extrinsic) RotationDense() *mat.Dense {
	r := e.Rotation()
	return mat.NewDense(3, 3, r[:])
}

// OrthonormalityError returns max |(RᵀR - I)_ij| of the rotation block.
func (e Extrinsic) OrthonormalityError() float64 {
	r := e.RotationDense()
	var rtr mat.Dense
	rtr.Mul(r.T(), r)

	worst := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			if d := gomath.Abs(rtr.At(i, j) - want); d > worst {
				worst = d
			}
		}
	}
	return worst
}

// IsAffine reports whether the last row is exactly (0, 0, 0, 1).
func (e Extrinsic) IsAffine() bool {
	return e.At(3, 0) == 0 && e.At(3, 1) == 0 && e.At(3, 2) == 0 && e.At(3, 3) == 1
}

// CameraCenter returns the camera position in world coordinates, -Rᵀt.
func (e Extrinsic) CameraCenter() math.Vec3 {
	rt := e.WithTranslation(math.Vec3{}).Transpose()
	return rt.TransformPoint(e.Translation()).Scale(-1)
}

// Forward returns the camera's unit viewing direction in world
// coordinates, the third row of the rotation block.
func (e Extrinsic) Forward() math.Vec3 {
	r := e.Rotation()
	return math.Vec3{X: r[6], Y: r[7], Z: r[8]}.Normalize()
}
