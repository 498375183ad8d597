package storage

import (
	"errors"
	"io"
	"path"
	"time"
)

var ErrNotAFilesystem = errors.New("Storage is not a filesystem")

// Storage is an abstraction of the blob store that holds our dataset files.
// Frame sequences and annotated images can live on the local disk, or in a bucket.
type Storage interface {
	// When finished, you must close the WriteCloser
	WriteFile(name string) (io.WriteCloser, error)

	// When finished, you must close File.Reader
	ReadFile(name string) (*File, error)

	DeleteFile(name string) error
}

// File is an element in blob storage.
type File struct {
	Reader     io.ReadCloser
	ModifiedAt time.Time
	Size       int64
}

func WriteFile(s Storage, name string, content io.Reader) error {
	f, err := s.WriteFile(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, content)
	errClose := f.Close()
	if err != nil {
		return err
	}
	return errClose
}

func ReadFile(s Storage, name string) ([]byte, error) {
	f, err := s.ReadFile(name)
	if err != nil {
		return nil, err
	}
	defer f.Reader.Close()
	return io.ReadAll(f.Reader)
}

// Prefixed exposes a sub-directory of another Storage.
// The EPFL frames, for example, live under "<root>/rgbNNNNNN.png".
type Prefixed struct {
	Upstream Storage
	Prefix   string
}

func NewPrefixed(upstream Storage, prefix string) Storage {
	if prefix == "" || prefix == "." {
		return upstream
	}
	return &Prefixed{Upstream: upstream, Prefix: prefix}
}

func (p *Prefixed) WriteFile(name string) (io.WriteCloser, error) {
	return p.Upstream.WriteFile(path.Join(p.Prefix, name))
}

func (p *Prefixed) ReadFile(name string) (*File, error) {
	return p.Upstream.ReadFile(path.Join(p.Prefix, name))
}

func (p *Prefixed) DeleteFile(name string) error {
	return p.Upstream.DeleteFile(path.Join(p.Prefix, name))
}
