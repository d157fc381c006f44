// Package capture turns rendered frames into output images on disk.
package capture

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/Faultbox/segrender/internal/engine/renderer"
)

// ToImage converts a float frame to an opaque 8-bit image. Components are
// clamped to [0, 1] and rounded.
func ToImage(f *renderer.Frame) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < f.Width; x++ {
			c := f.At(x, y)
			row[x*4+0] = to8(c[0])
			row[x*4+1] = to8(c[1])
			row[x*4+2] = to8(c[2])
			row[x*4+3] = 0xff
		}
	}
	return img
}

func to8(v float32) uint8 {
	switch {
	case v <= 0 || v != v:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Resize scales img to width x height with linear filtering. An image
// already at that size is returned unchanged.
func Resize(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	return imaging.Resize(img, width, height, imaging.Linear)
}

// Writer saves images into one output directory.
type Writer struct {
	outputDir string
}

// NewWriter creates a writer for outputDir.
func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

// Save writes img as PNG under name, creating the output directory if
// needed, and returns the written path. Opaque images are stored as RGB.
func (w *Writer) Save(img image.Image, name string) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(w.outputDir, name)
	if err := imaging.Save(img, path, imaging.PNGCompressionLevel(png.DefaultCompression)); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	return path, nil
}
