// Package hyper holds the training hyper-parameters that shape how samples are
// filtered, augmented and letterboxed.
package hyper

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cyclopcam/trainset/pkg/annot"
	"github.com/cyclopcam/trainset/pkg/nn"
	"gopkg.in/yaml.v3"
)

type Params struct {
	InputDimension nn.InputDimension `json:"input_dimension" yaml:"input_dimension"`
	ClassLabelMap  []string          `json:"class_label_map" yaml:"class_label_map"` // Class ID = position in this list
	ClassFile      string            `json:"class_file" yaml:"class_file"`           // One label per line. Replaces class_label_map. Relative to the parameter file
	FilterAnno     string            `json:"filter_anno" yaml:"filter_anno"`         // rm, ignore, none
	Flip           float64           `json:"flip" yaml:"flip"`                       // Horizontal flip probability
	Jitter         float64           `json:"jitter" yaml:"jitter"`                   // Crop offset, as a fraction of image size
	Hue            float64           `json:"hue" yaml:"hue"`                         // Max hue shift, as a fraction of the colour wheel
	Saturation     float64           `json:"saturation" yaml:"saturation"`           // Max saturation scale (>= 1)
	Value          float64           `json:"value" yaml:"value"`                     // Max value scale (>= 1)
}

func Default() *Params {
	return &Params{
		InputDimension: nn.InputDimension{Width: 416, Height: 416},
		FilterAnno:     string(annot.FilterNone),
		Flip:           0.5,
		Jitter:         0.2,
		Hue:            0.1,
		Saturation:     1.5,
		Value:          1.5,
	}
}

// Load reads parameters from a .json, .yaml or .yml file.
// Keys that are absent keep their default values.
func Load(filename string) (*Params, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	p := Default()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		err = json.Unmarshal(raw, p)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, p)
	default:
		return nil, fmt.Errorf("Unrecognized hyper-parameter file type '%v'. Use .json or .yaml", filepath.Ext(filename))
	}
	if err != nil {
		return nil, fmt.Errorf("Error parsing %v: %w", filename, err)
	}
	if p.ClassFile != "" {
		classFile := p.ClassFile
		if !filepath.IsAbs(classFile) {
			classFile = filepath.Join(filepath.Dir(filename), classFile)
		}
		if p.ClassLabelMap, err = nn.LoadClassFile(classFile); err != nil {
			return nil, fmt.Errorf("Failed to load class file of %v: %w", filename, err)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", filename, err)
	}
	return p, nil
}

func (p *Params) Validate() error {
	if p.InputDimension.Width <= 0 || p.InputDimension.Height <= 0 {
		return fmt.Errorf("Invalid input_dimension %v", p.InputDimension)
	}
	if p.Flip < 0 || p.Flip > 1 {
		return fmt.Errorf("flip must be between 0 and 1, not %v", p.Flip)
	}
	if p.Jitter < 0 || p.Jitter >= 0.5 {
		return fmt.Errorf("jitter must be in [0, 0.5), not %v", p.Jitter)
	}
	if p.Hue < 0 || p.Hue > 0.5 {
		return fmt.Errorf("hue must be between 0 and 0.5, not %v", p.Hue)
	}
	if p.Saturation < 1 || p.Value < 1 {
		return fmt.Errorf("saturation and value must be at least 1")
	}
	return nil
}

// ClassID returns the position of 'label' in ClassLabelMap, or -1
func (p *Params) ClassID(label string) int {
	return nn.ClassIndex(p.ClassLabelMap, label)
}
