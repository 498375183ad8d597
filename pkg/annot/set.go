package annot

import "sort"

// Set is a filtered, read-only snapshot of the annotation store, grouped by image
type Set struct {
	images  []string
	byImage map[string][]Annotation
	total   int
}

// NewSet groups annotations by image. Images are ordered by name.
func NewSet(all []Annotation) *Set {
	s := &Set{
		byImage: map[string][]Annotation{},
		total:   len(all),
	}
	for _, a := range all {
		if _, ok := s.byImage[a.Image]; !ok {
			s.images = append(s.images, a.Image)
		}
		s.byImage[a.Image] = append(s.byImage[a.Image], a)
	}
	sort.Strings(s.images)
	return s
}

// Images returns the distinct image names, sorted
func (s *Set) Images() []string {
	return append([]string(nil), s.images...)
}

func (s *Set) NumImages() int {
	return len(s.images)
}

// NumAnnotations is the total across all images
func (s *Set) NumAnnotations() int {
	return s.total
}

// ForImage returns a copy of the annotations of one image (nil if the image is unknown)
func (s *Set) ForImage(image string) []Annotation {
	src := s.byImage[image]
	if src == nil {
		return nil
	}
	return append([]Annotation(nil), src...)
}

// ClassLabels returns every distinct class label, sorted
func (s *Set) ClassLabels() []string {
	seen := map[string]bool{}
	labels := []string{}
	for _, list := range s.byImage {
		for _, a := range list {
			if !seen[a.ClassLabel] {
				seen[a.ClassLabel] = true
				labels = append(labels, a.ClassLabel)
			}
		}
	}
	sort.Strings(labels)
	return labels
}
