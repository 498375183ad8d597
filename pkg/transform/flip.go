package transform

import (
	"fmt"
	"math/rand"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/trainset/pkg/annot"
)

// RandomFlip mirrors the image horizontally with the given probability
type RandomFlip struct {
	Probability float64
	Rand        *rand.Rand
}

func (f *RandomFlip) Apply(img *cimg.Image, annos []annot.Annotation) (*cimg.Image, []annot.Annotation, error) {
	if f.Probability <= 0 || f.Rand.Float64() >= f.Probability {
		return img, annos, nil
	}
	return FlipHorizontal(img, annos)
}

// FlipHorizontal mirrors an image and its boxes. The image is copied.
func FlipHorizontal(img *cimg.Image, annos []annot.Annotation) (*cimg.Image, []annot.Annotation, error) {
	if img.NChan() != 3 {
		return nil, nil, fmt.Errorf("Flip expects an RGB image, not %v channels", img.NChan())
	}
	const nc = 3
	dst := cimg.NewImage(img.Width, img.Height, cimg.PixelFormatRGB)
	for y := 0; y < img.Height; y++ {
		s := img.Pixels[y*img.Stride:]
		d := dst.Pixels[y*dst.Stride:]
		for x := 0; x < img.Width; x++ {
			sx := (img.Width - 1 - x) * nc
			copy(d[x*nc:x*nc+nc], s[sx:sx+nc])
		}
	}
	out := copyAnnotations(annos)
	w := float32(img.Width)
	for i := range out {
		out[i].X = w - out[i].X - out[i].Width
	}
	return dst, out, nil
}
