package mesh

import (
	"fmt"
	"io"

	"github.com/Faultbox/segrender/pkg/formats"
)

// FromPLY builds a mesh from a parsed PLY file. Polygons with more than
// three vertices are fan-triangulated; vertex red/green/blue, when present,
// become vertex colors.
func FromPLY(ply *formats.PLY) (*Mesh, error) {
	vertex := ply.Element("vertex")
	if vertex == nil {
		return nil, fmt.Errorf("%w: vertex", formats.ErrUnknownPLYElement)
	}
	xs, err := vertex.Scalar("x")
	if err != nil {
		return nil, err
	}
	ys, err := vertex.Scalar("y")
	if err != nil {
		return nil, err
	}
	zs, err := vertex.Scalar("z")
	if err != nil {
		return nil, err
	}

	m := &Mesh{Vertices: make([][3]float32, vertex.Count)}
	for i := range m.Vertices {
		m.Vertices[i] = [3]float32{float32(xs[i]), float32(ys[i]), float32(zs[i])}
	}

	rs, errR := vertex.Scalar("red")
	gs, errG := vertex.Scalar("green")
	bs, errB := vertex.Scalar("blue")
	if errR == nil && errG == nil && errB == nil {
		m.VertexColors = make([]Color, vertex.Count)
		for i := range m.VertexColors {
			m.VertexColors[i] = Color{uint8(rs[i]), uint8(gs[i]), uint8(bs[i])}
		}
	}

	if face := ply.Element("face"); face != nil {
		lists, err := face.List("vertex_indices", "vertex_index")
		if err != nil {
			return nil, err
		}
		m.Faces = make([]Face, 0, len(lists))
		for i, poly := range lists {
			if len(poly) < 3 {
				return nil, fmt.Errorf("%w: face %d has %d vertices", formats.ErrInvalidPLYBody, i, len(poly))
			}
			for k := 1; k+1 < len(poly); k++ {
				m.Faces = append(m.Faces, Face{uint32(poly[0]), uint32(poly[k]), uint32(poly[k+1])})
			}
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads a mesh from a PLY file.
func Load(path string) (*Mesh, error) {
	ply, err := formats.LoadPLY(path)
	if err != nil {
		return nil, err
	}
	m, err := FromPLY(ply)
	if err != nil {
		return nil, fmt.Errorf("building mesh from %s: %w", path, err)
	}
	return m, nil
}

// ToPLY converts the mesh to a PLY document in the given encoding. Face
// colors are written by unrolling, since per-vertex color is what common
// PLY consumers read.
func (m *Mesh) ToPLY(format formats.PLYFormat) *formats.PLY {
	src := m
	if m.FaceColors != nil {
		src = m.Unrolled()
	}

	ply := &formats.PLY{Format: format}
	props := []formats.PLYProperty{
		{Name: "x", Type: "float"},
		{Name: "y", Type: "float"},
		{Name: "z", Type: "float"},
	}
	if src.VertexColors != nil {
		props = append(props,
			formats.PLYProperty{Name: "red", Type: "uchar"},
			formats.PLYProperty{Name: "green", Type: "uchar"},
			formats.PLYProperty{Name: "blue", Type: "uchar"},
		)
	}
	v := ply.AddElement("vertex", len(src.Vertices), props...)
	for k, name := range []string{"x", "y", "z"} {
		col := make([]float64, len(src.Vertices))
		for i, p := range src.Vertices {
			col[i] = float64(p[k])
		}
		v.Scalars[name] = col
	}
	if src.VertexColors != nil {
		for k, name := range []string{"red", "green", "blue"} {
			col := make([]float64, len(src.VertexColors))
			for i, c := range src.VertexColors {
				col[i] = float64(c[k])
			}
			v.Scalars[name] = col
		}
	}

	f := ply.AddElement("face", len(src.Faces),
		formats.PLYProperty{Name: "vertex_indices", Type: "int", IsList: true, CountType: "uchar"})
	lists := make([][]int64, len(src.Faces))
	for i, face := range src.Faces {
		lists[i] = []int64{int64(face[0]), int64(face[1]), int64(face[2])}
	}
	f.Lists["vertex_indices"] = lists
	return ply
}

// WritePLY encodes the mesh as PLY.
func (m *Mesh) WritePLY(w io.Writer, format formats.PLYFormat) error {
	return m.ToPLY(format).Write(w)
}
