package annot

import (
	"strings"

	"github.com/cyclopcam/logs"
)

// FilterMode decides what happens to difficult annotations when a set is loaded
type FilterMode string

const (
	FilterRemove FilterMode = "rm"     // Drop difficult annotations
	FilterIgnore FilterMode = "ignore" // Keep them, but mark them Ignore
	FilterNone   FilterMode = "none"   // Leave them alone
)

// ParseFilterMode accepts "rm", "ignore" or "none" (case insensitive).
// Anything else is logged and treated as "none".
func ParseFilterMode(s string, log logs.Log) FilterMode {
	switch FilterMode(strings.ToLower(strings.TrimSpace(s))) {
	case FilterRemove:
		return FilterRemove
	case FilterIgnore:
		return FilterIgnore
	case FilterNone, "":
		return FilterNone
	}
	if log != nil {
		log.Errorf("%v is not a valid filtering method [rm, ignore, none]. Not filtering annotations", s)
	}
	return FilterNone
}

// Apply returns the filtered copy of 'all'. The input is not modified.
func (f FilterMode) Apply(all []Annotation) []Annotation {
	out := make([]Annotation, 0, len(all))
	for _, a := range all {
		if a.Difficult {
			switch f {
			case FilterRemove:
				continue
			case FilterIgnore:
				a.Ignore = true
			}
		}
		out = append(out, a)
	}
	return out
}
