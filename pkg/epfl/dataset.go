// Package epfl serves the EPFL RGB-D pedestrian sequence as training samples.
//
// The scene is static, so the first three depth frames are averaged into a background
// model, and every sample has its background pixels blacked out before being paired
// with the pedestrian boxes of that frame.
package epfl

import (
	"errors"
	"fmt"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trainset/pkg/depthbg"
	"github.com/cyclopcam/trainset/pkg/imgutil"
	"github.com/cyclopcam/trainset/pkg/storage"
)

const (
	FrameOffset = 34  // Sample 0 is frame 34
	Length      = 916 // Number of samples in the sequence

	RGBTemplate   = "rgb%06d.png"
	DepthTemplate = "depth%06d.png"
)

// Frames that are averaged into the background model
var BackgroundFrames = []int{1, 2, 3}

var ErrIndexOutOfRange = errors.New("Sample index out of range")

// Transform is applied to every sample after masking, if set
type Transform interface {
	Apply(img *cimg.Image, target *Target) (*cimg.Image, *Target, error)
}

// TransformFunc adapts a function to the Transform interface
type TransformFunc func(img *cimg.Image, target *Target) (*cimg.Image, *Target, error)

func (f TransformFunc) Apply(img *cimg.Image, target *Target) (*cimg.Image, *Target, error) {
	return f(img, target)
}

type Options struct {
	Threshold *float64  // Foreground threshold on the normalized depth difference. Nil = depthbg.DefaultThreshold
	Transform Transform // Optional
}

// Sample is one masked colour frame and its labels
type Sample struct {
	Index  int         // Index passed to Get
	Frame  int         // Absolute frame number (Index + FrameOffset)
	Image  *cimg.Image // RGB, with background pixels set to zero
	Target *Target
}

type Dataset struct {
	log        logs.Log
	store      storage.Storage
	boxes      BoxIndex
	background *depthbg.Model
	threshold  float64
	transform  Transform
}

// Open loads the background frames and returns a dataset that reads the rest on demand
func Open(log logs.Log, store storage.Storage, boxes BoxIndex, opts Options) (*Dataset, error) {
	if boxes == nil {
		boxes = BoxIndex{}
	}
	threshold := depthbg.DefaultThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	d := &Dataset{
		log:       log,
		store:     store,
		boxes:     boxes,
		threshold: threshold,
		transform: opts.Transform,
	}
	bgFrames := []*depthbg.DepthFrame{}
	for _, frame := range BackgroundFrames {
		f, err := d.readDepth(frame)
		if err != nil {
			return nil, fmt.Errorf("Failed to load background frame %v: %w", frame, err)
		}
		bgFrames = append(bgFrames, f)
	}
	bg, err := depthbg.NewModel(bgFrames...)
	if err != nil {
		return nil, err
	}
	d.background = bg
	log.Infof("EPFL background model %vx%v built from frames %v, %v annotated frames", bg.Width(), bg.Height(), BackgroundFrames, len(boxes))
	return d, nil
}

// Len is the fixed number of samples, independent of how many files exist
func (d *Dataset) Len() int {
	return Length
}

func (d *Dataset) Background() *depthbg.Model {
	return d.background
}

func (d *Dataset) Boxes() BoxIndex {
	return d.boxes
}

// Get returns sample 'idx'
func (d *Dataset) Get(idx int) (*Sample, error) {
	if idx < 0 {
		return nil, fmt.Errorf("%w: %v", ErrIndexOutOfRange, idx)
	}
	frame := idx + FrameOffset

	rgb, err := d.readRGB(frame)
	if err != nil {
		return nil, err
	}
	depth, err := d.readDepth(frame)
	if err != nil {
		return nil, err
	}
	mask, err := d.background.ForegroundMask(depth, d.threshold)
	if err != nil {
		return nil, fmt.Errorf("Frame %v: %w", frame, err)
	}
	if err := mask.Apply(rgb); err != nil {
		return nil, fmt.Errorf("Frame %v: %w", frame, err)
	}

	target := NewTarget(frame, d.boxes.Lookup(frame))
	if d.transform != nil {
		rgb, target, err = d.transform.Apply(rgb, target)
		if err != nil {
			return nil, fmt.Errorf("Frame %v transform: %w", frame, err)
		}
	}
	return &Sample{
		Index:  idx,
		Frame:  frame,
		Image:  rgb,
		Target: target,
	}, nil
}

func (d *Dataset) readRGB(frame int) (*cimg.Image, error) {
	name := fmt.Sprintf(RGBTemplate, frame)
	f, err := d.store.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("Failed to open %v: %w", name, err)
	}
	defer f.Reader.Close()
	img, err := imgutil.DecodeRGB(f.Reader)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", name, err)
	}
	return img, nil
}

func (d *Dataset) readDepth(frame int) (*depthbg.DepthFrame, error) {
	name := fmt.Sprintf(DepthTemplate, frame)
	f, err := d.store.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("Failed to open %v: %w", name, err)
	}
	defer f.Reader.Close()
	depth, err := depthbg.ReadDepthPNG(f.Reader)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", name, err)
	}
	return depth, nil
}
