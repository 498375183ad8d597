// Package nn holds the geometry and class definitions that are shared between
// our datasets and the networks that consume them.
package nn

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// InputDimension is the (width, height) of the network input tensor
type InputDimension struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func (d InputDimension) String() string {
	return fmt.Sprintf("%vx%v", d.Width, d.Height)
}

// UnmarshalJSON accepts either {"width":416,"height":416} or [416,416]
func (d *InputDimension) UnmarshalJSON(b []byte) error {
	var pair []int
	if err := json.Unmarshal(b, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("Input dimension must have 2 elements, but has %v", len(pair))
		}
		d.Width, d.Height = pair[0], pair[1]
		return nil
	}
	type plain InputDimension
	return json.Unmarshal(b, (*plain)(d))
}

// UnmarshalYAML accepts the same two forms as UnmarshalJSON
func (d *InputDimension) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var pair []int
		if err := value.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("Input dimension must have 2 elements, but has %v", len(pair))
		}
		d.Width, d.Height = pair[0], pair[1]
		return nil
	}
	type plain InputDimension
	return value.Decode((*plain)(d))
}

// Load a text file with class names on each line
func LoadClassFile(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	classes := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			classes = append(classes, line)
		}
	}
	return classes, scanner.Err()
}

// ClassIndex returns the position of 'class' in 'classes', or -1
func ClassIndex(classes []string, class string) int {
	for i, c := range classes {
		if c == class {
			return i
		}
	}
	return -1
}
