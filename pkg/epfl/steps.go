package epfl

import (
	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/trainset/pkg/annot"
	"github.com/cyclopcam/trainset/pkg/nn"
	"github.com/cyclopcam/trainset/pkg/transform"
)

// StepTransform runs a transform.Step (letterbox, flip, jitter...) on a sample.
// Boxes that the step drops are removed from every per-box field, and areas
// are recomputed from the transformed boxes.
func StepTransform(step transform.Step) Transform {
	return TransformFunc(func(img *cimg.Image, target *Target) (*cimg.Image, *Target, error) {
		annos := make([]annot.Annotation, len(target.Boxes))
		for i, b := range target.Boxes {
			annos[i] = annot.Annotation{
				ID:         int64(i),
				ClassLabel: "person",
				X:          b[0],
				Y:          b[1],
				Width:      b[2] - b[0],
				Height:     b[3] - b[1],
			}
		}
		img, annos, err := step.Apply(img, annos)
		if err != nil {
			return nil, nil, err
		}
		out := &Target{
			Boxes:   make([][4]float32, 0, len(annos)),
			Labels:  make([]int64, 0, len(annos)),
			ImageID: target.ImageID,
			Area:    make([]float32, 0, len(annos)),
			IsCrowd: make([]int64, 0, len(annos)),
		}
		for _, a := range annos {
			src := a.ID
			box := nn.Box{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height}
			out.Boxes = append(out.Boxes, box.Corners())
			out.Labels = append(out.Labels, target.Labels[src])
			out.Area = append(out.Area, box.Area())
			out.IsCrowd = append(out.IsCrowd, target.IsCrowd[src])
		}
		return img, out, nil
	})
}
