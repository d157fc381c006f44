package mesh

import (
	"errors"
	"fmt"
)

// Mesh validation errors.
var (
	ErrFaceIndexOutOfRange = errors.New("face references a missing vertex")
	ErrColorCountMismatch  = errors.New("color count does not match element count")
)

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int { return len(m.Faces) }

// Validate checks index and color array consistency.
func (m *Mesh) Validate() error {
	n := uint32(len(m.Vertices))
	for i, f := range m.Faces {
		for _, v := range f {
			if v >= n {
				return fmt.Errorf("%w: face %d vertex %d (have %d)", ErrFaceIndexOutOfRange, i, v, n)
			}
		}
	}
	if m.FaceColors != nil && len(m.FaceColors) != len(m.Faces) {
		return fmt.Errorf("%w: %d face colors for %d faces", ErrColorCountMismatch, len(m.FaceColors), len(m.Faces))
	}
	if m.VertexColors != nil && len(m.VertexColors) != len(m.Vertices) {
		return fmt.Errorf("%w: %d vertex colors for %d vertices", ErrColorCountMismatch, len(m.VertexColors), len(m.Vertices))
	}
	return nil
}

// FaceColor returns the flat color of face i: its face color, else the
// color of its first vertex, else DefaultColor.
func (m *Mesh) FaceColor(i int) Color {
	if m.FaceColors != nil {
		return m.FaceColors[i]
	}
	if m.VertexColors != nil {
		return m.VertexColors[m.Faces[i][0]]
	}
	return DefaultColor
}

// Bounds computes the bounding box. An empty mesh has a zero box.
func (m *Mesh) Bounds() Bounds {
	if len(m.Vertices) == 0 {
		return Bounds{}
	}
	b := Bounds{
		Min: [3]float32{1e30, 1e30, 1e30},
		Max: [3]float32{-1e30, -1e30, -1e30},
	}
	for _, v := range m.Vertices {
		for k := 0; k < 3; k++ {
			if v[k] < b.Min[k] {
				b.Min[k] = v[k]
			}
			if v[k] > b.Max[k] {
				b.Max[k] = v[k]
			}
		}
	}
	return b
}

// Unrolled returns a copy with three private vertices per face, each
// carrying the face's flat color as a vertex color. Vertex colors then
// reproduce flat shading in consumers that only interpolate per vertex.
func (m *Mesh) Unrolled() *Mesh {
	out := &Mesh{
		Vertices:     make([][3]float32, 0, len(m.Faces)*3),
		Faces:        make([]Face, len(m.Faces)),
		VertexColors: make([]Color, 0, len(m.Faces)*3),
	}
	for i, f := range m.Faces {
		c := m.FaceColor(i)
		base := uint32(len(out.Vertices))
		for _, v := range f {
			out.Vertices = append(out.Vertices, m.Vertices[v])
			out.VertexColors = append(out.VertexColors, c)
		}
		out.Faces[i] = Face{base, base + 1, base + 2}
	}
	return out
}

// Interleaved returns the unrolled position/color vertex stream used for
// GPU upload: x, y, z, r, g, b per vertex, colors normalized to [0, 1].
func (m *Mesh) Interleaved() []float32 {
	data := make([]float32, 0, len(m.Faces)*3*6)
	for i, f := range m.Faces {
		c := m.FaceColor(i)
		r, g, b := float32(c[0])/255, float32(c[1])/255, float32(c[2])/255
		for _, v := range f {
			p := m.Vertices[v]
			data = append(data, p[0], p[1], p[2], r, g, b)
		}
	}
	return data
}
