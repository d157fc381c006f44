package math

import (
	"fmt"
	"math"
	"strings"
)

// Deg converts degrees to radians.
func Deg(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// axisRotation returns the rotation about a single named axis.
func axisRotation(axis byte, angle float64) (Mat4, error) {
	switch axis {
	case 'x':
		return RotateX(angle), nil
	case 'y':
		return RotateY(angle), nil
	case 'z':
		return RotateZ(angle), nil
	default:
		return Identity(), fmt.Errorf("unknown rotation axis %q", axis)
	}
}

// Euler builds a rotation from an axis sequence such as "xyz" and one angle
// per axis, in radians.
//
// Rotations are about the fixed (extrinsic) axes: the first axis is applied
// first, so "xyz" with angles (a, b, c) yields Rz(c)·Ry(b)·Rx(a).
func Euler(seq string, angles ...float64) (Mat4, error) {
	seq = strings.ToLower(seq)
	if len(seq) != len(angles) {
		return Identity(), fmt.Errorf("euler sequence %q needs %d angles, got %d", seq, len(seq), len(angles))
	}
	result := Identity()
	for i := 0; i < len(seq); i++ {
		r, err := axisRotation(seq[i], angles[i])
		if err != nil {
			return Identity(), err
		}
		result = r.Mul(result)
	}
	return result, nil
}

// MustEuler is like Euler but panics on a malformed sequence.
// Intended for package-level constants.
func MustEuler(seq string, angles ...float64) Mat4 {
	m, err := Euler(seq, angles...)
	if err != nil {
		panic(err)
	}
	return m
}
