// Package voc turns an annotation set into letterboxed (and optionally augmented)
// training samples.
package voc

import (
	"fmt"
	"math/rand"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trainset/pkg/annot"
	"github.com/cyclopcam/trainset/pkg/hyper"
	"github.com/cyclopcam/trainset/pkg/transform"
)

// Dataset is not safe for concurrent Get when augmenting, because the random steps
// share a single source.
type Dataset struct {
	log      logs.Log
	set      *annot.Set
	params   *hyper.Params
	augment  bool
	images   ImageSource
	names    []string
	pipeline transform.Compose
}

func NewDataset(log logs.Log, set *annot.Set, params *hyper.Params, augment bool, images ImageSource) *Dataset {
	if len(params.ClassLabelMap) == 0 {
		withLabels := *params
		withLabels.ClassLabelMap = set.ClassLabels()
		params = &withLabels
		log.Warnf("No class_label_map. Using sorted labels from annotations: %v", params.ClassLabelMap)
	}
	d := &Dataset{
		log:     log,
		set:     set,
		params:  params,
		augment: augment,
		images:  images,
		names:   set.Images(),
	}
	unknown := map[string]bool{}
	for _, name := range d.names {
		for _, a := range set.ForImage(name) {
			if params.ClassID(a.ClassLabel) == -1 && !unknown[a.ClassLabel] {
				unknown[a.ClassLabel] = true
				log.Warnf("Class label '%v' is not in the class label map. Its boxes get class id -1", a.ClassLabel)
			}
		}
	}
	d.pipeline = transform.Pipeline(params, augment, nil)
	log.Infof("VOC dataset: %v images, %v annotations, input %v, augment %v", len(d.names), set.NumAnnotations(), params.InputDimension, augment)
	return d
}

// WithRand rebuilds the pipeline around a fixed random source
func (d *Dataset) WithRand(rng *rand.Rand) *Dataset {
	d.pipeline = transform.Pipeline(d.params, d.augment, rng)
	return d
}

// Len is the number of distinct images
func (d *Dataset) Len() int {
	return len(d.names)
}

func (d *Dataset) Classes() []string {
	return d.params.ClassLabelMap
}

func (d *Dataset) ImageName(idx int) (string, error) {
	if idx < 0 || idx >= len(d.names) {
		return "", fmt.Errorf("Index %v out of range [0, %v)", idx, len(d.names))
	}
	return d.names[idx], nil
}

// Get returns the transformed image as a CHW tensor, and its transformed annotations
func (d *Dataset) Get(idx int) (*transform.Tensor, []annot.Annotation, error) {
	img, annos, err := d.GetImage(idx)
	if err != nil {
		return nil, nil, err
	}
	return transform.ToTensor(img), annos, nil
}

// GetImage is Get without the final tensor conversion
func (d *Dataset) GetImage(idx int) (*cimg.Image, []annot.Annotation, error) {
	name, err := d.ImageName(idx)
	if err != nil {
		return nil, nil, err
	}
	img, err := d.images.Load(name)
	if err != nil {
		return nil, nil, err
	}
	annos := d.set.ForImage(name)
	for i := range annos {
		annos[i].ClassID = d.params.ClassID(annos[i].ClassLabel)
	}
	img, annos, err = d.pipeline.Apply(img, annos)
	if err != nil {
		return nil, nil, fmt.Errorf("Transform of %v failed: %w", name, err)
	}
	return img, annos, nil
}
