package transform

import (
	"fmt"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/trainset/pkg/annot"
)

// Letterbox scales an image to fit inside Width x Height, preserving aspect ratio,
// and pads the remainder evenly on both sides with Fill.
type Letterbox struct {
	Width  int
	Height int
	Fill   byte
}

// Geometry of a letterbox operation, from source pixels to network pixels
type LetterboxGeometry struct {
	Scale        float32
	ScaledWidth  int
	ScaledHeight int
	PadLeft      int
	PadTop       int
}

// Geometry computes how an image of srcWidth x srcHeight is placed in the box
func (l *Letterbox) Geometry(srcWidth, srcHeight int) LetterboxGeometry {
	g := LetterboxGeometry{Scale: 1, ScaledWidth: srcWidth, ScaledHeight: srcHeight}
	if srcWidth == l.Width && srcHeight == l.Height {
		return g
	}
	sx := float32(l.Width) / float32(srcWidth)
	sy := float32(l.Height) / float32(srcHeight)
	if sx <= sy {
		g.Scale = sx
	} else {
		g.Scale = sy
	}
	if g.Scale != 1 {
		g.ScaledWidth = max(1, int(g.Scale*float32(srcWidth)))
		g.ScaledHeight = max(1, int(g.Scale*float32(srcHeight)))
	}
	g.PadLeft = (l.Width - g.ScaledWidth) / 2
	g.PadTop = (l.Height - g.ScaledHeight) / 2
	return g
}

func (l *Letterbox) Apply(img *cimg.Image, annos []annot.Annotation) (*cimg.Image, []annot.Annotation, error) {
	if l.Width <= 0 || l.Height <= 0 {
		return nil, nil, fmt.Errorf("Invalid letterbox size %vx%v", l.Width, l.Height)
	}
	g := l.Geometry(img.Width, img.Height)
	out := copyAnnotations(annos)
	for i := range out {
		a := &out[i]
		a.X = a.X*g.Scale + float32(g.PadLeft)
		a.Y = a.Y*g.Scale + float32(g.PadTop)
		a.Width *= g.Scale
		a.Height *= g.Scale
	}

	if img.Width == l.Width && img.Height == l.Height {
		return img, out, nil
	}
	scaled := img
	if g.ScaledWidth != img.Width || g.ScaledHeight != img.Height {
		scaled = cimg.ResizeNew(img, g.ScaledWidth, g.ScaledHeight, &cimg.ResizeParams{Filter: resizeFilter(g.Scale)})
	}
	if scaled.Width == l.Width && scaled.Height == l.Height {
		return scaled, out, nil
	}
	dst := newFilled(l.Width, l.Height, l.Fill)
	if err := dst.CopyImageRect(scaled, 0, 0, scaled.Width, scaled.Height, g.PadLeft, g.PadTop); err != nil {
		return nil, nil, err
	}
	return dst, out, nil
}

// Box filter for downsampling, in case of a large ratio. CatmullRom is the sharpest for upsampling.
func resizeFilter(scale float32) cimg.ResizeFilter {
	if scale > 1 {
		return cimg.ResizeFilterCatmullRom
	}
	return cimg.ResizeFilterBox
}
