package server

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cyclopcam/dbh"
)

type Config struct {
	Storage     StorageConfig `json:"storage"`
	EPFL        *EPFLConfig   `json:"epfl"`        // Optional
	Annotations *dbh.DBConfig `json:"annotations"` // Optional. Enables the VOC dataset
	VOC         VOCConfig     `json:"voc"`
}

// One of the storage options must be configured (i.e. either 'filesystem' or 'gcs')
type StorageConfig struct {
	Filesystem *StorageConfigFS  `json:"filesystem"`
	GCS        *StorageConfigGCS `json:"gcs"`
}

type StorageConfigFS struct {
	Root string `json:"root"` // Path to the root of the filesystem
}

type StorageConfigGCS struct {
	Bucket string `json:"bucket"` // Name of the GCS bucket
	Prefix string `json:"prefix"` // Object name prefix, eg "datasets/"
}

type EPFLConfig struct {
	Dir       string   `json:"dir"`       // Directory of rgbNNNNNN.png and depthNNNNNN.png, relative to the storage root
	BoxIndex  string   `json:"boxIndex"`  // JSON box index, relative to the storage root
	Threshold *float64 `json:"threshold"` // Omitted = 0.1
}

type VOCConfig struct {
	Hyper         string `json:"hyper"`         // Hyper-parameter file (.json or .yaml). Empty = defaults
	ImageTemplate string `json:"imageTemplate"` // Empty = epfl_lab/20140804_160621_00/%s
	Augment       bool   `json:"augment"`
}

func LoadConfig(configFile string) (*Config, error) {
	cfg := Config{}
	cfgB, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cfgB, &cfg); err != nil {
		return nil, fmt.Errorf("Error parsing config file %v: %w", configFile, err)
	}
	return &cfg, nil
}
