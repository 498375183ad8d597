package export

import (
	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/trainset/pkg/epfl"
	"github.com/cyclopcam/trainset/pkg/voc"
)

type epflSource struct {
	ds *epfl.Dataset
}

// EPFLSource exports masked frames, labelled with their Target
func EPFLSource(ds *epfl.Dataset) Source {
	return &epflSource{ds: ds}
}

func (s *epflSource) Name() string      { return "epfl" }
func (s *epflSource) Len() int          { return s.ds.Len() }
func (s *epflSource) Classes() []string { return []string{"background", "person"} }

func (s *epflSource) Sample(idx int) (*cimg.Image, any, error) {
	sample, err := s.ds.Get(idx)
	if err != nil {
		return nil, nil, err
	}
	return sample.Image, sample.Target, nil
}

type vocSource struct {
	ds *voc.Dataset
}

// VOCSource exports letterboxed (and possibly augmented) images, labelled with their annotations
func VOCSource(ds *voc.Dataset) Source {
	return &vocSource{ds: ds}
}

func (s *vocSource) Name() string      { return "voc" }
func (s *vocSource) Len() int          { return s.ds.Len() }
func (s *vocSource) Classes() []string { return s.ds.Classes() }

func (s *vocSource) Sample(idx int) (*cimg.Image, any, error) {
	img, annos, err := s.ds.GetImage(idx)
	if err != nil {
		return nil, nil, err
	}
	return img, annos, nil
}
