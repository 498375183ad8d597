package transform

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/trainset/pkg/annot"
	"github.com/lucasb-eyer/go-colorful"
)

// RandomHSV shifts hue by up to ±Hue (a fraction of the colour wheel, wrapping around),
// and scales saturation and value by a random factor in [1, S] or its reciprocal.
// Boxes are unaffected.
type RandomHSV struct {
	Hue        float64
	Saturation float64
	Value      float64
	Rand       *rand.Rand
}

func (h *RandomHSV) Apply(img *cimg.Image, annos []annot.Annotation) (*cimg.Image, []annot.Annotation, error) {
	dh := h.Hue * (2*h.Rand.Float64() - 1)
	ds := h.randScale(h.Saturation)
	dv := h.randScale(h.Value)
	out, err := AdjustHSV(img, dh, ds, dv)
	return out, annos, err
}

func (h *RandomHSV) randScale(s float64) float64 {
	if s <= 1 {
		return 1
	}
	v := 1 + h.Rand.Float64()*(s-1)
	if h.Rand.Float64() < 0.5 {
		v = 1 / v
	}
	return v
}

// AdjustHSV returns a copy of an RGB image with hue shifted by dh (in [-1, 1], wrapping),
// and saturation and value multiplied by ds and dv (clamped to [0, 1]).
func AdjustHSV(img *cimg.Image, dh, ds, dv float64) (*cimg.Image, error) {
	if img.NChan() != 3 {
		return nil, fmt.Errorf("HSV adjustment expects an RGB image, not %v channels", img.NChan())
	}
	// colorful works in degrees
	shift := dh * 360
	dst := cimg.NewImage(img.Width, img.Height, cimg.PixelFormatRGB)
	for y := 0; y < img.Height; y++ {
		s := img.Pixels[y*img.Stride:]
		d := dst.Pixels[y*dst.Stride:]
		for x := 0; x < img.Width*3; x += 3 {
			c := colorful.Color{R: float64(s[x]) / 255, G: float64(s[x+1]) / 255, B: float64(s[x+2]) / 255}
			hh, ss, vv := c.Hsv()
			hh = wrapDegrees(hh + shift)
			ss = clampUnit(ss * ds)
			vv = clampUnit(vv * dv)
			d[x], d[x+1], d[x+2] = colorful.Hsv(hh, ss, vv).Clamped().RGB255()
		}
	}
	return dst, nil
}

// Wrap into [0, 360)
func wrapDegrees(h float64) float64 {
	h -= 360 * math.Floor(h/360)
	if h >= 360 {
		h = 0
	}
	return h
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
