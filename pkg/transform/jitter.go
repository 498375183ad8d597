package transform

import (
	"fmt"
	"math/rand"

	"github.com/bmharper/cimg/v2"
	flatbush "github.com/bmharper/flatbush-go"
	"github.com/chewxy/math32"
	"github.com/cyclopcam/trainset/pkg/annot"
)

// RandomJitter crops a random window whose edges move inwards or outwards by up to
// Jitter * size. Regions outside the source image are filled with Fill.
// With CropAnno, boxes are clipped to the window, and dropped when less than
// IntersectionThreshold of their area survives.
type RandomJitter struct {
	Jitter                float64
	CropAnno              bool
	IntersectionThreshold float32
	Fill                  byte
	Rand                  *rand.Rand
}

// CropWindow is [Left, Right) x [Top, Bottom) in source image coordinates.
// It may extend beyond the image.
type CropWindow struct {
	Left, Top, Right, Bottom int
}

func (c CropWindow) Width() int  { return c.Right - c.Left }
func (c CropWindow) Height() int { return c.Bottom - c.Top }

// Window picks a crop window for an image of the given size.
// The window is at least 1x1, even when Jitter is 0.5 or more.
func (j *RandomJitter) Window(width, height int) CropWindow {
	dw := int(float64(width) * j.Jitter)
	dh := int(float64(height) * j.Jitter)
	left := j.randInt(-dw, dw)
	right := j.randInt(-dw, dw)
	top := j.randInt(-dh, dh)
	bottom := j.randInt(-dh, dh)
	win := CropWindow{Left: left, Top: top, Right: width - right, Bottom: height - bottom}
	if win.Right <= win.Left {
		win.Right = win.Left + 1
	}
	if win.Bottom <= win.Top {
		win.Bottom = win.Top + 1
	}
	return win
}

// Inclusive on both ends
func (j *RandomJitter) randInt(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + j.Rand.Intn(hi-lo+1)
}

func (j *RandomJitter) Apply(img *cimg.Image, annos []annot.Annotation) (*cimg.Image, []annot.Annotation, error) {
	win := j.Window(img.Width, img.Height)
	return j.Crop(img, annos, win)
}

// Crop cuts 'win' out of the image, and moves the boxes into the window's coordinate frame
func (j *RandomJitter) Crop(img *cimg.Image, annos []annot.Annotation, win CropWindow) (*cimg.Image, []annot.Annotation, error) {
	if win.Width() <= 0 || win.Height() <= 0 {
		return nil, nil, fmt.Errorf("Invalid crop window %v", win)
	}
	dst := newFilled(win.Width(), win.Height(), j.Fill)
	// Intersection of the window and the source image
	sx1 := max(0, win.Left)
	sy1 := max(0, win.Top)
	sx2 := min(img.Width, win.Right)
	sy2 := min(img.Height, win.Bottom)
	if sx2 > sx1 && sy2 > sy1 {
		if err := dst.CopyImageRect(img, sx1, sy1, sx2, sy2, sx1-win.Left, sy1-win.Top); err != nil {
			return nil, nil, err
		}
	}
	return dst, j.cropAnnotations(annos, win), nil
}

func (j *RandomJitter) cropAnnotations(annos []annot.Annotation, win CropWindow) []annot.Annotation {
	dx := float32(win.Left)
	dy := float32(win.Top)
	if !j.CropAnno {
		out := copyAnnotations(annos)
		for i := range out {
			out[i].X -= dx
			out[i].Y -= dy
		}
		return out
	}

	// Only boxes that touch the window can survive
	inside := make([]bool, len(annos))
	if len(annos) != 0 {
		fb := flatbush.NewFlatbush[float32]()
		fb.Reserve(len(annos))
		for _, a := range annos {
			fb.Add(a.X, a.Y, a.X+a.Width, a.Y+a.Height)
		}
		fb.Finish()
		for _, i := range fb.Search(float32(win.Left), float32(win.Top), float32(win.Right), float32(win.Bottom)) {
			inside[i] = true
		}
	}

	cw := float32(win.Width())
	ch := float32(win.Height())
	out := make([]annot.Annotation, 0, len(annos))
	for i, a := range annos {
		x1 := a.X - dx
		y1 := a.Y - dy
		x2 := x1 + a.Width
		y2 := y1 + a.Height
		cx1 := math32.Max(x1, 0)
		cy1 := math32.Max(y1, 0)
		cx2 := math32.Min(x2, cw)
		cy2 := math32.Min(y2, ch)
		var kept float32
		if inside[i] && cx2 > cx1 && cy2 > cy1 {
			kept = (cx2 - cx1) * (cy2 - cy1)
		}
		var ratio float32
		if area := a.Width * a.Height; area > 0 {
			ratio = kept / area
		}
		if ratio < j.IntersectionThreshold {
			continue
		}
		a.X = cx1
		a.Y = cy1
		a.Width = math32.Max(cx2-cx1, 0)
		a.Height = math32.Max(cy2-cy1, 0)
		out = append(out, a)
	}
	return out
}
