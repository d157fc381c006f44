// Package mesh provides the triangle mesh handed from semantic coloring to
// the render surfaces.
package mesh

// Face is a triangle as three vertex indices.
type Face [3]uint32

// Color is an 8-bit RGB triple.
type Color [3]uint8

// Mesh is an indexed triangle mesh with optional colors.
// FaceColors, when present, has one entry per face; VertexColors, when
// present, has one entry per vertex. Face colors take precedence.
type Mesh struct {
	Vertices     [][3]float32
	Faces        []Face
	FaceColors   []Color
	VertexColors []Color
}

// Bounds holds the axis-aligned bounding box of the mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Center returns the center of the box.
func (b Bounds) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// DefaultColor is used for faces of an uncolored mesh.
var DefaultColor = Color{128, 128, 128}
