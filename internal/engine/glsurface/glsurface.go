// Package glsurface is the OpenGL render surface: a hidden SDL2 window
// owning a GL 4.1 core context, drawing into an offscreen float
// framebuffer.
package glsurface

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/segrender/internal/engine/camera"
	"github.com/Faultbox/segrender/internal/engine/framebuffer"
	"github.com/Faultbox/segrender/internal/engine/mesh"
	"github.com/Faultbox/segrender/internal/engine/renderer"
	"github.com/Faultbox/segrender/internal/engine/shader"
	"github.com/Faultbox/segrender/internal/engine/window"
	"github.com/Faultbox/segrender/internal/logger"
	"github.com/Faultbox/segrender/pkg/math"
)

// Surface implements renderer.Surface with OpenGL.
type Surface struct {
	opts    renderer.Options
	win     *window.Window
	fb      *framebuffer.Framebuffer
	program *shader.FlatProgram

	vao, vbo    uint32
	vertexCount int32
	glReady     bool
	bound       bool
	closed      bool
}

var _ renderer.Surface = (*Surface)(nil)

// Open acquires a window, context and framebuffer sized to the
// intrinsics. Must be called from the main goroutine.
func Open(opts renderer.Options) (*Surface, error) {
	s := &Surface{opts: opts}
	if err := s.init(); err != nil {
		return nil, multierr.Append(err, s.Close())
	}
	return s, nil
}

func (s *Surface) init() error {
	in := s.opts.Intrinsics

	var err error
	s.win, err = window.New(window.Config{
		Title:  "segrender",
		Width:  in.Width,
		Height: in.Height,
		Hidden: true,
	})
	if err != nil {
		return err
	}

	winW, winH := s.win.Size()
	logger.Debug("offscreen window created", zap.Int("width", winW), zap.Int("height", winH))

	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	s.glReady = true
	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	s.program, err = shader.NewFlatProgram()
	if err != nil {
		return err
	}
	s.fb, err = framebuffer.New(int32(in.Width), int32(in.Height))
	if err != nil {
		return err
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Disable(gl.CULL_FACE)

	gl.GenVertexArrays(1, &s.vao)
	gl.GenBuffers(1, &s.vbo)
	return nil
}

// Size returns the framebuffer dimensions.
func (s *Surface) Size() (int, int) {
	if s.fb == nil {
		return s.opts.Intrinsics.Width, s.opts.Intrinsics.Height
	}
	w, h := s.fb.Size()
	return int(w), int(h)
}

// Bind uploads the mesh as a flat-colored triangle stream.
func (s *Surface) Bind(m *mesh.Mesh) error {
	if s.closed {
		return renderer.ErrClosed
	}
	if err := m.Validate(); err != nil {
		return err
	}

	data := m.Interleaved()
	gl.BindVertexArray(s.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	} else {
		gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.STATIC_DRAW)
	}

	stride := int32(6 * 4)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 12)
	gl.EnableVertexAttribArray(1)
	gl.BindVertexArray(0)

	s.vertexCount = int32(len(data) / 6)
	s.bound = true
	logger.Debug("mesh uploaded", zap.Int32("vertices", s.vertexCount))
	return nil
}

// Render draws the bound mesh and reads the frame back.
func (s *Surface) Render(extrinsic math.Mat4) (*renderer.Frame, error) {
	if s.closed {
		return nil, renderer.ErrClosed
	}
	if !s.bound {
		return nil, renderer.ErrNoMesh
	}

	in := s.opts.Intrinsics
	mvp := in.Projection().Mul(camera.ViewMatrix(extrinsic))

	bg := s.opts.Background
	s.fb.Bind()
	s.fb.Clear(bg[0], bg[1], bg[2], 1)
	if s.vertexCount > 0 {
		s.program.Use(mvp.Float32())
		gl.BindVertexArray(s.vao)
		gl.DrawArrays(gl.TRIANGLES, 0, s.vertexCount)
		gl.BindVertexArray(0)
	}
	gl.Finish()

	pixels := s.fb.ReadFloatPixels()
	s.fb.Unbind()
	if err := glError(); err != nil {
		return nil, err
	}
	return renderer.FromRGBA(in.Width, in.Height, pixels), nil
}

// Close releases GL objects, the context and the window.
func (s *Surface) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	logger.Debug("closing GL surface")

	var err error
	if s.glReady {
		if s.vao != 0 {
			gl.DeleteVertexArrays(1, &s.vao)
		}
		if s.vbo != 0 {
			gl.DeleteBuffers(1, &s.vbo)
		}
		if s.program != nil {
			s.program.Delete()
		}
		if s.fb != nil {
			s.fb.Destroy()
		}
		err = multierr.Append(err, glError())
	}
	if s.win != nil {
		err = multierr.Append(err, s.win.Close())
	}
	return err
}

func glError() error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("OpenGL error 0x%x", code)
	}
	return nil
}
