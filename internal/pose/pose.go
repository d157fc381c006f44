// Package pose converts dataset camera states into renderer extrinsics.
//
// A dataset state gives a camera location plus heading and elevation. The
// renderer expects a world-to-camera matrix in its own axis convention, so
// the conversion is a fixed base placement followed by an ordered chain of
// rotations, each left-multiplied onto the full 4x4 matrix.
package pose

import (
	"fmt"

	"github.com/Faultbox/segrender/pkg/formats"
	"github.com/Faultbox/segrender/pkg/math"
)

// Pose is one camera orientation, position and view slot at a viewpoint,
// in renderer sign conventions.
type Pose struct {
	ScanID      string
	ViewpointID string
	Heading     float64 // radians, dataset heading negated
	Elevation   float64 // radians, dataset elevation negated
	ViewIndex   int
	Location    math.Vec3 // scan coordinates with x negated
}

// FromRecord applies the dataset-to-renderer sign conventions.
func FromRecord(r formats.StateRecord) Pose {
	return Pose{
		ScanID:      r.ScanID,
		ViewpointID: r.ViewpointID,
		Heading:     -r.Heading,
		Elevation:   -r.Elevation,
		ViewIndex:   r.ViewIndex,
		Location: math.Vec3{
			X: -r.Location.X,
			Y: r.Location.Y,
			Z: r.Location.Z,
		},
	}
}

// ImageName returns the output file name of the pose.
func (p Pose) ImageName() string {
	return ImageName(p.ScanID, p.ViewpointID, p.ViewIndex)
}

// ImageName formats {scan}_{viewpoint}_{view index, two digits}.png.
func ImageName(scanID, viewpointID string, viewIndex int) string {
	return fmt.Sprintf("%s_%s_%02d.png", scanID, viewpointID, viewIndex)
}

// Extrinsic computes the world-to-camera matrix of the pose.
func (p Pose) Extrinsic() Extrinsic {
	return ComputeExtrinsic(p.Location, p.Heading, p.Elevation)
}
