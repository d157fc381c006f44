package renderer

// Frame is an RGB float framebuffer stored row-major from the top-left
// pixel, three components per pixel in [0, 1].
type Frame struct {
	Width, Height int
	Pix           []float32
}

// NewFrame returns a frame filled with bg.
func NewFrame(width, height int, bg [3]float32) *Frame {
	f := &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*3),
	}
	f.Fill(bg)
	return f
}

// Fill sets every pixel to c.
func (f *Frame) Fill(c [3]float32) {
	for i := 0; i < len(f.Pix); i += 3 {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2] = c[0], c[1], c[2]
	}
}

// At returns the color at (x, y).
func (f *Frame) At(x, y int) [3]float32 {
	i := (y*f.Width + x) * 3
	return [3]float32{f.Pix[i], f.Pix[i+1], f.Pix[i+2]}
}

// Set writes the color at (x, y).
func (f *Frame) Set(x, y int, c [3]float32) {
	i := (y*f.Width + x) * 3
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = c[0], c[1], c[2]
}

// FromRGBA builds a frame from bottom-up RGBA float rows, as read back
// from OpenGL, dropping alpha.
func FromRGBA(width, height int, rgba []float32) *Frame {
	f := &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*3),
	}
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * width * 4
		dst := y * width * 3
		for x := 0; x < width; x++ {
			copy(f.Pix[dst+x*3:dst+x*3+3], rgba[src+x*4:src+x*4+3])
		}
	}
	return f
}
