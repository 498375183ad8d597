// Package depthbg separates foreground from a static scene, using a depth camera.
//
// The background is the mean of a handful of depth frames of the empty scene.
// A pixel of a later frame is foreground when its depth differs from the background
// by more than a fraction of the largest difference seen in that frame.
package depthbg

import (
	"errors"
	"fmt"

	"github.com/bmharper/cimg/v2"
	"gonum.org/v1/gonum/floats"
)

// DefaultThreshold is applied to the normalized absolute depth difference
const DefaultThreshold = 0.1

// Model is a static background reference. It is read-only once built.
type Model struct {
	width  int
	height int
	ref    []float64
}

// NewModel builds the background reference as the element-wise mean of 'frames'
func NewModel(frames ...*DepthFrame) (*Model, error) {
	if len(frames) == 0 {
		return nil, errors.New("At least one background frame is required")
	}
	first := frames[0]
	sum := make([]float64, len(first.Depth))
	for i, f := range frames {
		if !f.sameShape(first) {
			return nil, fmt.Errorf("Background frame %v is %vx%v, but frame 0 is %vx%v", i, f.Width, f.Height, first.Width, first.Height)
		}
		floats.Add(sum, f.Depth)
	}
	floats.Scale(1/float64(len(frames)), sum)
	return &Model{
		width:  first.Width,
		height: first.Height,
		ref:    sum,
	}, nil
}

func (m *Model) Width() int {
	return m.width
}

func (m *Model) Height() int {
	return m.height
}

// Reference returns a copy of the background depth
func (m *Model) Reference() []float64 {
	return append([]float64(nil), m.ref...)
}

// Difference returns |frame - background|, normalized to [0,1] by subtracting the
// minimum and dividing by the (shifted) maximum.
// If every pixel has the same difference, the result is all zeros.
func (m *Model) Difference(frame *DepthFrame) ([]float64, error) {
	if frame.Width != m.width || frame.Height != m.height {
		return nil, fmt.Errorf("Depth frame is %vx%v, but background is %vx%v", frame.Width, frame.Height, m.width, m.height)
	}
	d := make([]float64, len(m.ref))
	floats.SubTo(d, frame.Depth, m.ref)
	for i, v := range d {
		if v < 0 {
			d[i] = -v
		}
	}
	floats.AddConst(-floats.Min(d), d)
	if hi := floats.Max(d); hi > 0 {
		floats.Scale(1/hi, d)
	}
	return d, nil
}

// ForegroundMask classifies every pixel of 'frame' as foreground (true) or background
func (m *Model) ForegroundMask(frame *DepthFrame, threshold float64) (*Mask, error) {
	d, err := m.Difference(frame)
	if err != nil {
		return nil, err
	}
	mask := &Mask{
		Width:      m.width,
		Height:     m.height,
		Foreground: make([]bool, len(d)),
	}
	for i, v := range d {
		mask.Foreground[i] = v > threshold
	}
	return mask, nil
}

// Mask is a per-pixel foreground flag, row major
type Mask struct {
	Width      int
	Height     int
	Foreground []bool
}

func (k *Mask) At(x, y int) bool {
	return k.Foreground[y*k.Width+x]
}

// Count returns the number of foreground pixels
func (k *Mask) Count() int {
	n := 0
	for _, f := range k.Foreground {
		if f {
			n++
		}
	}
	return n
}

// Apply zeroes all channels of every background pixel of 'img', in place
func (k *Mask) Apply(img *cimg.Image) error {
	if img.Width != k.Width || img.Height != k.Height {
		return fmt.Errorf("Image is %vx%v, but mask is %vx%v", img.Width, img.Height, k.Width, k.Height)
	}
	nchan := img.NChan()
	for y := 0; y < k.Height; y++ {
		row := img.Pixels[y*img.Stride:]
		fg := k.Foreground[y*k.Width : (y+1)*k.Width]
		for x, keep := range fg {
			if !keep {
				clear(row[x*nchan : (x+1)*nchan])
			}
		}
	}
	return nil
}
