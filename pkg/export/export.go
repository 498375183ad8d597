// Package export writes a dataset into a single zip archive, for training on another machine.
//
// Layout:
//
//	images/000000.jpg
//	labels/000000.json
//	manifest.json
package export

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trainset/pkg/annot"
	"github.com/cyclopcam/trainset/pkg/imgutil"
	"github.com/cyclopcam/trainset/pkg/perfstats"
)

// Source is anything that can produce numbered samples
type Source interface {
	Name() string
	Len() int
	Classes() []string
	Sample(idx int) (img *cimg.Image, labels any, err error)
}

type Options struct {
	Quality     int  // JPEG quality. Zero = 95
	Limit       int  // Maximum number of samples. Zero = all
	SkipMissing bool // Skip samples whose files don't exist, instead of failing
}

type ManifestItem struct {
	Index   int    `json:"index"`
	Image   string `json:"image"`
	Labels  string `json:"labels"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Objects int    `json:"objects"`
}

type Manifest struct {
	Name    string         `json:"name"`
	Classes []string       `json:"classes"`
	Skipped []int          `json:"skipped,omitempty"`
	Items   []ManifestItem `json:"items"`
}

func ImageName(idx int) string {
	return fmt.Sprintf("images/%06d.jpg", idx)
}

func LabelsName(idx int) string {
	return fmt.Sprintf("labels/%06d.json", idx)
}

// Write extracts every sample of 'src' into a zip archive on 'w'
func Write(log logs.Log, w io.Writer, src Source, opts Options) (*Manifest, error) {
	quality := opts.Quality
	if quality == 0 {
		quality = 95
	}
	n := src.Len()
	if opts.Limit > 0 && opts.Limit < n {
		n = opts.Limit
	}

	zipWriter := zip.NewWriter(w)
	manifest := &Manifest{
		Name:    src.Name(),
		Classes: src.Classes(),
		Items:   []ManifestItem{},
	}

	timings := perfstats.NewTimings()
	for i := 0; i < n; i++ {
		start := time.Now()
		img, labels, err := src.Sample(i)
		if err != nil {
			if opts.SkipMissing && errors.Is(err, fs.ErrNotExist) {
				log.Warnf("Skipping sample %v: %v", i, err)
				manifest.Skipped = append(manifest.Skipped, i)
				continue
			}
			zipWriter.Close()
			return nil, fmt.Errorf("Sample %v: %w", i, err)
		}
		item := ManifestItem{
			Index:   i,
			Image:   ImageName(i),
			Labels:  LabelsName(i),
			Width:   img.Width,
			Height:  img.Height,
			Objects: countObjects(labels),
		}
		if err := writeSample(zipWriter, item, img, labels, quality); err != nil {
			zipWriter.Close()
			return nil, fmt.Errorf("Sample %v: %w", i, err)
		}
		manifest.Items = append(manifest.Items, item)
		timings.Since("sample", start)
		if (i+1)%100 == 0 {
			log.Infof("Exported %v/%v samples", i+1, n)
		}
	}

	manifestZ, err := zipWriter.Create("manifest.json")
	if err != nil {
		return nil, err
	}
	enc := json.NewEncoder(manifestZ)
	enc.SetIndent("", "\t")
	if err := enc.Encode(manifest); err != nil {
		return nil, err
	}
	if err := zipWriter.Close(); err != nil {
		return nil, err
	}
	for _, t := range timings.Summaries() {
		log.Infof("Average time per %v: %.1f ms (max %.1f ms)", t.Name, t.AverageMS, t.MaxMS)
	}
	log.Infof("Exported %v samples of '%v' (%v skipped)", len(manifest.Items), manifest.Name, len(manifest.Skipped))
	return manifest, nil
}

type objectCounter interface {
	NumObjects() int
}

// Number of labelled objects, or zero for labels of an unknown shape
func countObjects(labels any) int {
	switch v := labels.(type) {
	case objectCounter:
		return v.NumObjects()
	case []annot.Annotation:
		return len(v)
	}
	return 0
}

func writeSample(zipWriter *zip.Writer, item ManifestItem, img *cimg.Image, labels any, quality int) error {
	jpg, err := imgutil.EncodeJPEG(img, quality)
	if err != nil {
		return err
	}
	// JPEG is already compressed
	imgZ, err := zipWriter.CreateHeader(&zip.FileHeader{Name: item.Image, Method: zip.Store})
	if err != nil {
		return err
	}
	if _, err := imgZ.Write(jpg); err != nil {
		return err
	}
	labelsZ, err := zipWriter.Create(item.Labels)
	if err != nil {
		return err
	}
	return json.NewEncoder(labelsZ).Encode(labels)
}
