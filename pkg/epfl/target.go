package epfl

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/cyclopcam/trainset/pkg/nn"
)

// Class id of every box in this dataset (pedestrian)
const PedestrianLabel = 1

// Target keys, in the order that the training loop expects them
var TargetKeys = []string{"boxes", "labels", "image_id", "area", "iscrowd"}

// Target is the label set for one frame.
// All slices are non-nil, even when the frame has no boxes.
type Target struct {
	Boxes   [][4]float32 `json:"boxes"` // [xmin, ymin, xmax, ymax]
	Labels  []int64      `json:"labels"`
	ImageID []int64      `json:"image_id"` // Single element: the absolute frame number
	Area    []float32    `json:"area"`     // Width * height of the source box
	IsCrowd []int64      `json:"iscrowd"`
}

// NewTarget builds the target for 'frame' from boxes in (x, y, width, height) form
func NewTarget(frame int, boxes []nn.Box) *Target {
	t := &Target{
		Boxes:   make([][4]float32, 0, len(boxes)),
		Labels:  make([]int64, 0, len(boxes)),
		ImageID: []int64{int64(frame)},
		Area:    make([]float32, 0, len(boxes)),
		IsCrowd: make([]int64, 0, len(boxes)),
	}
	for _, b := range boxes {
		t.Boxes = append(t.Boxes, b.Corners())
		t.Labels = append(t.Labels, PedestrianLabel)
		t.Area = append(t.Area, b.Area())
		t.IsCrowd = append(t.IsCrowd, 0)
	}
	return t
}

// Keys returns the keys that are present in the target dictionary (always all of them)
func (t *Target) Keys() []string {
	return append([]string(nil), TargetKeys...)
}

// AsMap returns the target as a dictionary keyed by TargetKeys
func (t *Target) AsMap() map[string]any {
	return map[string]any{
		"boxes":    t.Boxes,
		"labels":   t.Labels,
		"image_id": t.ImageID,
		"area":     t.Area,
		"iscrowd":  t.IsCrowd,
	}
}

func (t *Target) NumObjects() int {
	return len(t.Boxes)
}

// BoxIndex maps an absolute frame number to the boxes in that frame
type BoxIndex map[int][]nn.Box

// Lookup returns the boxes of 'frame', or an empty list if the frame has no entry
func (bi BoxIndex) Lookup(frame int) []nn.Box {
	boxes, ok := bi[frame]
	if !ok {
		return []nn.Box{}
	}
	return boxes
}

// Frames returns the frame numbers that have an entry, in ascending order
func (bi BoxIndex) Frames() []int {
	frames := make([]int, 0, len(bi))
	for f := range bi {
		frames = append(frames, f)
	}
	sort.Ints(frames)
	return frames
}

// LoadBoxIndex reads a JSON object of the form {"34": [[x, y, width, height], ...], ...}
func LoadBoxIndex(r io.Reader) (BoxIndex, error) {
	raw := map[string][][]float32{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("Error decoding box index: %w", err)
	}
	bi := BoxIndex{}
	for key, list := range raw {
		frame, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("Invalid frame number '%v' in box index", key)
		}
		boxes := make([]nn.Box, 0, len(list))
		for i, b := range list {
			if len(b) != 4 {
				return nil, fmt.Errorf("Box %v of frame %v has %v elements. Expected [x, y, width, height]", i, frame, len(b))
			}
			boxes = append(boxes, nn.Box{X: b[0], Y: b[1], Width: b[2], Height: b[3]})
		}
		bi[frame] = boxes
	}
	return bi, nil
}
