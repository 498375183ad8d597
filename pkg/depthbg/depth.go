package depthbg

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"io"
)

// DepthFrame is a single channel depth image, stored as float64 so that
// arithmetic on 16-bit sensor values can't overflow.
type DepthFrame struct {
	Width  int
	Height int
	Depth  []float64 // row major, len = Width * Height
}

func NewDepthFrame(width, height int) *DepthFrame {
	return &DepthFrame{
		Width:  width,
		Height: height,
		Depth:  make([]float64, width*height),
	}
}

func (f *DepthFrame) At(x, y int) float64 {
	return f.Depth[y*f.Width+x]
}

func (f *DepthFrame) Set(x, y int, v float64) {
	f.Depth[y*f.Width+x] = v
}

func (f *DepthFrame) sameShape(b *DepthFrame) bool {
	return f.Width == b.Width && f.Height == b.Height
}

// ReadDepthPNG decodes a greyscale depth PNG.
// 16-bit and 8-bit images keep their raw sensor values. Colour images are
// converted to 16-bit luminance.
func ReadDepthPNG(r io.Reader) (*DepthFrame, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("Failed to decode depth image: %w", err)
	}
	b := img.Bounds()
	f := NewDepthFrame(b.Dx(), b.Dy())
	switch src := img.(type) {
	case *image.Gray16:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				f.Set(x, y, float64(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
	case *image.Gray:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				f.Set(x, y, float64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
	default:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				f.Set(x, y, float64(g.Y))
			}
		}
	}
	return f, nil
}
