// Package raster is a software render surface: a z-buffered triangle
// rasterizer with flat per-face color, for hosts without an OpenGL context.
package raster

import (
	gomath "math"

	"github.com/Faultbox/segrender/internal/engine/mesh"
	"github.com/Faultbox/segrender/internal/engine/renderer"
	"github.com/Faultbox/segrender/pkg/math"
)

type triangle struct {
	v     [3]math.Vec3
	color [3]float32
}

// projected is a clip-space vertex mapped to pixel coordinates.
type projected struct {
	u, v, z float64
}

// Surface implements renderer.Surface on the CPU.
type Surface struct {
	opts   renderer.Options
	tris   []triangle
	bound  bool
	closed bool
	depth  []float64
}

var _ renderer.Surface = (*Surface)(nil)

// New creates a software surface.
func New(opts renderer.Options) *Surface {
	in := opts.Intrinsics
	return &Surface{
		opts:  opts,
		depth: make([]float64, in.Width*in.Height),
	}
}

// Size returns the framebuffer dimensions.
func (s *Surface) Size() (int, int) {
	return s.opts.Intrinsics.Width, s.opts.Intrinsics.Height
}

// Bind replaces the mesh drawn by subsequent renders.
func (s *Surface) Bind(m *mesh.Mesh) error {
	if s.closed {
		return renderer.ErrClosed
	}
	if err := m.Validate(); err != nil {
		return err
	}
	s.tris = s.tris[:0]
	for i, f := range m.Faces {
		c := m.FaceColor(i)
		t := triangle{color: [3]float32{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255}}
		for k, vi := range f {
			p := m.Vertices[vi]
			t.v[k] = math.Vec3{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
		}
		if degenerate(t) {
			continue
		}
		s.tris = append(s.tris, t)
	}
	s.bound = true
	return nil
}

// Render draws the bound mesh. Both triangle sides are drawn.
func (s *Surface) Render(extrinsic math.Mat4) (*renderer.Frame, error) {
	if s.closed {
		return nil, renderer.ErrClosed
	}
	if !s.bound {
		return nil, renderer.ErrNoMesh
	}

	in := s.opts.Intrinsics
	frame := renderer.NewFrame(in.Width, in.Height, s.opts.Background)
	for i := range s.depth {
		s.depth[i] = gomath.Inf(1)
	}

	var poly, clipped []math.Vec3
	for _, t := range s.tris {
		poly = poly[:0]
		for _, v := range t.v {
			poly = append(poly, extrinsic.TransformPoint(v))
		}
		clipped = clipNear(clipped[:0], poly, in.Near)
		if len(clipped) < 3 {
			continue
		}

		var pts [4]projected
		for k, p := range clipped {
			u, v, z, _ := in.Project(p)
			pts[k] = projected{u, v, z}
		}
		for k := 1; k+1 < len(clipped); k++ {
			s.fill(frame, pts[0], pts[k], pts[k+1], t.color)
		}
	}
	return frame, nil
}

// Close releases the surface.
func (s *Surface) Close() error {
	s.closed = true
	s.tris = nil
	s.depth = nil
	return nil
}

// degenerate reports a zero-area triangle, which covers no pixel.
func degenerate(t triangle) bool {
	return t.v[1].Sub(t.v[0]).Cross(t.v[2].Sub(t.v[0])).Length() == 0
}

// clipNear clips a camera-space polygon against the plane z = near
// (Sutherland-Hodgman). A triangle yields at most four vertices.
func clipNear(dst, poly []math.Vec3, near float64) []math.Vec3 {
	for i := range poly {
		a := poly[i]
		b := poly[(i+1)%len(poly)]
		aIn := a.Z >= near
		bIn := b.Z >= near
		if aIn {
			dst = append(dst, a)
		}
		if aIn != bIn {
			t := (near - a.Z) / (b.Z - a.Z)
			p := a.Lerp(b, t)
			p.Z = near
			dst = append(dst, p)
		}
	}
	return dst
}

func edge(a, b projected, x, y float64) float64 {
	return (b.u-a.u)*(y-a.v) - (b.v-a.v)*(x-a.u)
}

// fill scan-converts one projected triangle with a depth test. Pixel
// centers sit on integer coordinates. Depth is interpolated
// perspective-correctly through 1/z.
func (s *Surface) fill(frame *renderer.Frame, a, b, c projected, color [3]float32) {
	area := edge(a, b, c.u, c.v)
	if area == 0 {
		return
	}

	in := s.opts.Intrinsics
	minX := int(gomath.Max(0, gomath.Ceil(gomath.Min(a.u, gomath.Min(b.u, c.u)))))
	maxX := int(gomath.Min(float64(in.Width-1), gomath.Floor(gomath.Max(a.u, gomath.Max(b.u, c.u)))))
	minY := int(gomath.Max(0, gomath.Ceil(gomath.Min(a.v, gomath.Min(b.v, c.v)))))
	maxY := int(gomath.Min(float64(in.Height-1), gomath.Floor(gomath.Max(a.v, gomath.Max(b.v, c.v)))))

	invA, invB, invC := 1/a.z, 1/b.z, 1/c.z
	for y := minY; y <= maxY; y++ {
		fy := float64(y)
		for x := minX; x <= maxX; x++ {
			fx := float64(x)
			w0 := edge(b, c, fx, fy) / area
			w1 := edge(c, a, fx, fy) / area
			w2 := edge(a, b, fx, fy) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := 1 / (w0*invA + w1*invB + w2*invC)
			if !in.Visible(z) {
				continue
			}
			i := y*in.Width + x
			if z < s.depth[i] {
				s.depth[i] = z
				frame.Set(x, y, color)
			}
		}
	}
}
