package transform

import (
	"fmt"

	"github.com/bmharper/cimg/v2"
)

// Tensor is a CHW float32 image, with values in [0, 1]
type Tensor struct {
	Channels int
	Height   int
	Width    int
	Data     []float32
}

// ToTensor converts an image to planar float, dividing by 255
func ToTensor(img *cimg.Image) *Tensor {
	nc := img.NChan()
	t := &Tensor{
		Channels: nc,
		Height:   img.Height,
		Width:    img.Width,
		Data:     make([]float32, nc*img.Width*img.Height),
	}
	plane := img.Width * img.Height
	for y := 0; y < img.Height; y++ {
		src := img.Pixels[y*img.Stride:]
		for x := 0; x < img.Width; x++ {
			for c := 0; c < nc; c++ {
				t.Data[c*plane+y*img.Width+x] = float32(src[x*nc+c]) / 255
			}
		}
	}
	return t
}

func (t *Tensor) Shape() []int {
	return []int{t.Channels, t.Height, t.Width}
}

func (t *Tensor) At(c, y, x int) float32 {
	return t.Data[(c*t.Height+y)*t.Width+x]
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[%v,%v,%v]", t.Channels, t.Height, t.Width)
}
