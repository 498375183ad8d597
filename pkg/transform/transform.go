// Package transform letterboxes and augments images together with their annotations.
//
// Every Step transforms an image and its boxes jointly, so that a random decision
// (a crop window, a flip) is applied identically to both. Steps never modify the
// annotation slice they are given.
package transform

import (
	"math/rand"
	"time"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/trainset/pkg/annot"
	"github.com/cyclopcam/trainset/pkg/hyper"
)

// Grey level of padding introduced by Letterbox and RandomJitter
const DefaultFill = 127

type Step interface {
	Apply(img *cimg.Image, annos []annot.Annotation) (*cimg.Image, []annot.Annotation, error)
}

// Compose runs steps in order
type Compose []Step

func (c Compose) Apply(img *cimg.Image, annos []annot.Annotation) (*cimg.Image, []annot.Annotation, error) {
	var err error
	for _, s := range c {
		img, annos, err = s.Apply(img, annos)
		if err != nil {
			return nil, nil, err
		}
	}
	return img, annos, nil
}

// NewRand returns a time-seeded source for the random steps
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Pipeline builds the standard training transform:
// HSV, jitter and flip when augmenting, followed by a letterbox to the network input size.
// HSV only touches pixels, so it runs first.
// If rng is nil, a time-seeded source is used.
func Pipeline(params *hyper.Params, augment bool, rng *rand.Rand) Compose {
	steps := Compose{}
	if augment {
		if rng == nil {
			rng = NewRand()
		}
		steps = append(steps,
			&RandomHSV{Hue: params.Hue, Saturation: params.Saturation, Value: params.Value, Rand: rng},
			&RandomJitter{Jitter: params.Jitter, CropAnno: true, IntersectionThreshold: 0.1, Fill: DefaultFill, Rand: rng},
			&RandomFlip{Probability: params.Flip, Rand: rng},
		)
	}
	steps = append(steps, &Letterbox{Width: params.InputDimension.Width, Height: params.InputDimension.Height, Fill: DefaultFill})
	return steps
}

func copyAnnotations(annos []annot.Annotation) []annot.Annotation {
	return append([]annot.Annotation(nil), annos...)
}

// Allocate a new RGB image filled with 'fill'
func newFilled(width, height int, fill byte) *cimg.Image {
	img := cimg.NewImage(width, height, cimg.PixelFormatRGB)
	if fill != 0 {
		for y := 0; y < height; y++ {
			row := img.Pixels[y*img.Stride : y*img.Stride+width*3]
			for i := range row {
				row[i] = fill
			}
		}
	}
	return img
}
