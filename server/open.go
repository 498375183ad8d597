package server

import (
	"fmt"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trainset/pkg/annot"
	"github.com/cyclopcam/trainset/pkg/epfl"
	"github.com/cyclopcam/trainset/pkg/hyper"
	"github.com/cyclopcam/trainset/pkg/storage"
	"github.com/cyclopcam/trainset/pkg/voc"
)

// OpenStorage opens the blob store named by the config
func OpenStorage(log logs.Log, cfg StorageConfig) (storage.Storage, error) {
	if cfg.GCS != nil {
		return storage.NewStorageGCS(log, cfg.GCS.Bucket, cfg.GCS.Prefix)
	} else if cfg.Filesystem != nil {
		return storage.NewStorageFS(log, cfg.Filesystem.Root)
	}
	return nil, fmt.Errorf("One of the storage options must be configured (i.e. either 'filesystem' or 'gcs')")
}

// OpenEPFL builds the background model and loads the box index.
// A missing box index is not an error: every frame gets an empty target.
func OpenEPFL(log logs.Log, store storage.Storage, cfg *EPFLConfig) (*epfl.Dataset, error) {
	boxes := epfl.BoxIndex{}
	if cfg.BoxIndex != "" {
		f, err := store.ReadFile(cfg.BoxIndex)
		if err != nil {
			return nil, fmt.Errorf("Failed to open box index %v: %w", cfg.BoxIndex, err)
		}
		boxes, err = epfl.LoadBoxIndex(f.Reader)
		f.Reader.Close()
		if err != nil {
			return nil, err
		}
	} else {
		log.Warnf("No EPFL box index configured. All targets will be empty")
	}
	return epfl.Open(log, storage.NewPrefixed(store, cfg.Dir), boxes, epfl.Options{Threshold: cfg.Threshold})
}

// OpenVOC loads the hyper-parameters, opens the annotation store, and loads the filtered set.
// The caller must close the returned store.
func OpenVOC(log logs.Log, store storage.Storage, cfg *Config) (*voc.Dataset, *annot.Store, error) {
	if cfg.Annotations == nil {
		return nil, nil, fmt.Errorf("No annotation database configured")
	}
	params := hyper.Default()
	if cfg.VOC.Hyper != "" {
		var err error
		if params, err = hyper.Load(cfg.VOC.Hyper); err != nil {
			return nil, nil, err
		}
	}
	annots, err := annot.Open(log, *cfg.Annotations, 0)
	if err != nil {
		return nil, nil, err
	}
	set, err := annots.Load(annot.ParseFilterMode(params.FilterAnno, log))
	if err != nil {
		annots.Close()
		return nil, nil, err
	}
	ds := voc.NewDataset(log, set, params, cfg.VOC.Augment, voc.NewStorageImages(store, cfg.VOC.ImageTemplate))
	return ds, annots, nil
}
