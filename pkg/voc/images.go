package voc

import (
	"fmt"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/trainset/pkg/imgutil"
	"github.com/cyclopcam/trainset/pkg/storage"
)

// Where annotated images live, relative to the storage root
const DefaultImageTemplate = "epfl_lab/20140804_160621_00/%s"

// ImageSource loads the pixels of an annotated image, by the name in the annotation store
type ImageSource interface {
	Load(image string) (*cimg.Image, error)
}

// StorageImages reads images from blob storage, at fmt.Sprintf(Template, image)
type StorageImages struct {
	Store    storage.Storage
	Template string
}

func NewStorageImages(store storage.Storage, template string) *StorageImages {
	if template == "" {
		template = DefaultImageTemplate
	}
	return &StorageImages{
		Store:    store,
		Template: template,
	}
}

func (s *StorageImages) Filename(image string) string {
	return fmt.Sprintf(s.Template, image)
}

func (s *StorageImages) Load(image string) (*cimg.Image, error) {
	name := s.Filename(image)
	f, err := s.Store.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("Failed to open image %v: %w", name, err)
	}
	defer f.Reader.Close()
	img, err := imgutil.DecodeRGB(f.Reader)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", name, err)
	}
	return img, nil
}
