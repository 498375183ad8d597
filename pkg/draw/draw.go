// Package draw renders labelled boxes on top of images, for previewing datasets.
package draw

import (
	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/trainset/pkg/annot"
	"github.com/cyclopcam/trainset/pkg/imgutil"
	"github.com/cyclopcam/trainset/pkg/nn"
	"github.com/fogleman/gg"
)

type LabelledBox struct {
	Box    nn.Box
	Label  string
	Ignore bool // Drawn dashed
}

// Distinct colours, cycled by class
var palette = [][3]float64{
	{0.1, 0.9, 0.2},
	{1, 0.3, 0.2},
	{0.2, 0.5, 1},
	{1, 0.85, 0.1},
	{0.9, 0.2, 0.9},
	{0.1, 0.9, 0.9},
}

// Boxes returns a copy of img with the boxes drawn on it
func Boxes(img *cimg.Image, boxes []LabelledBox) *cimg.Image {
	dc := gg.NewContextForRGBA(imgutil.ToRGBA(img))
	colors := map[string]int{}
	for _, b := range boxes {
		ci, ok := colors[b.Label]
		if !ok {
			ci = len(colors) % len(palette)
			colors[b.Label] = ci
		}
		c := palette[ci]
		dc.SetRGB(c[0], c[1], c[2])
		dc.SetLineWidth(2)
		if b.Ignore {
			dc.SetDash(4, 4)
		} else {
			dc.SetDash()
		}
		dc.DrawRectangle(float64(b.Box.X), float64(b.Box.Y), float64(b.Box.Width), float64(b.Box.Height))
		dc.Stroke()
		if b.Label != "" {
			dc.DrawStringAnchored(b.Label, float64(b.Box.X)+2, float64(b.Box.Y)+2, 0, 1)
		}
	}
	return imgutil.FromImage(dc.Image())
}

// FromAnnotations labels each box with its class label
func FromAnnotations(annos []annot.Annotation) []LabelledBox {
	out := make([]LabelledBox, 0, len(annos))
	for _, a := range annos {
		out = append(out, LabelledBox{
			Box:    nn.Box{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height},
			Label:  a.ClassLabel,
			Ignore: a.Ignore,
		})
	}
	return out
}

// FromCorners converts [xmin, ymin, xmax, ymax] boxes, all with the same label
func FromCorners(corners [][4]float32, label string) []LabelledBox {
	out := make([]LabelledBox, 0, len(corners))
	for _, c := range corners {
		out = append(out, LabelledBox{Box: nn.BoxFromCorners(c[0], c[1], c[2], c[3]), Label: label})
	}
	return out
}
