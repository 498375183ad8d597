// Package annot is the annotation store.
//
// Annotations live in an SQL table (SQLite by default). They are imported from CSV,
// and loaded into an immutable Set, with difficult boxes filtered as requested.
package annot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"gorm.io/gorm"
)

// CSV columns, in their default order. ImportCSV matches by header name.
var CSVColumns = []string{"image", "class_label", "x_top_left", "y_top_left", "width", "height", "occluded", "truncated", "lost", "difficult", "ignore"}

// Columns that must be present in a CSV header
var requiredCSVColumns = []string{"image", "class_label", "x_top_left", "y_top_left", "width", "height"}

// Insert in chunks, to stay under SQLite's variable limit
const insertBatchSize = 200

type Store struct {
	Log logs.Log
	DB  *gorm.DB
}

// Open the annotation database, creating and migrating it if necessary
func Open(log logs.Log, dbc dbh.DBConfig, flags dbh.DBConnectFlags) (*Store, error) {
	db, err := dbh.OpenDB(log, dbc, Migrations(log, dbc.Driver), flags)
	if err != nil {
		return nil, fmt.Errorf("Failed to open annotation database: %w", err)
	}
	return &Store{
		Log: log,
		DB:  db,
	}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Insert adds annotations as a single import batch, and returns the batch
func (s *Store) Insert(source string, annotations []Annotation) (*ImportBatch, error) {
	batch := ImportBatch{
		Source:     source,
		ImportedAt: dbh.MakeIntTime(time.Now()),
		Count:      len(annotations),
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&batch).Error; err != nil {
			return err
		}
		if len(annotations) == 0 {
			return nil
		}
		rows := make([]Annotation, len(annotations))
		for i, a := range annotations {
			if a.Image == "" {
				return fmt.Errorf("Annotation %v has no image", i)
			}
			a.ID = 0
			a.BatchID = batch.ID
			rows[i] = a
		}
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})
	if err != nil {
		return nil, fmt.Errorf("Failed to insert annotations: %w", err)
	}
	s.Log.Infof("Imported %v annotations from '%v' (batch %v)", batch.Count, source, batch.ID)
	return &batch, nil
}

// ImportCSV reads annotations from a CSV file with a header row, and inserts them
func (s *Store) ImportCSV(source string, r io.Reader) (*ImportBatch, error) {
	all, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}
	return s.Insert(source, all)
}

// Load reads every annotation and applies the filter
func (s *Store) Load(filter FilterMode) (*Set, error) {
	all := []Annotation{}
	if err := s.DB.Order("image, id").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("Failed to load annotations: %w", err)
	}
	filtered := filter.Apply(all)
	s.Log.Infof("Loaded %v annotations, %v after filter '%v'", len(all), len(filtered), filter)
	return NewSet(filtered), nil
}

// Batches returns every import batch, oldest first
func (s *Store) Batches() ([]ImportBatch, error) {
	batches := []ImportBatch{}
	err := s.DB.Order("id").Find(&batches).Error
	return batches, err
}

// DeleteBatch removes a batch and all of its annotations
func (s *Store) DeleteBatch(id int64) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("batch_id = ?", id).Delete(&Annotation{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&ImportBatch{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ParseCSV reads annotations from CSV, matching columns by header name.
// Boolean columns are optional, and accept 1/0, true/false, yes/no, or empty.
func ParseCSV(r io.Reader) ([]Annotation, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("CSV is empty")
	} else if err != nil {
		return nil, err
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range requiredCSVColumns {
		if _, ok := col[req]; !ok {
			return nil, fmt.Errorf("CSV is missing column '%v'", req)
		}
	}

	all := []Annotation{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}
		p := csvRow{rec: rec, col: col}
		a := Annotation{
			Image:      p.str("image"),
			ClassLabel: p.str("class_label"),
			X:          p.float("x_top_left"),
			Y:          p.float("y_top_left"),
			Width:      p.float("width"),
			Height:     p.float("height"),
			Occluded:   p.bool("occluded"),
			Truncated:  p.bool("truncated"),
			Lost:       p.bool("lost"),
			Difficult:  p.bool("difficult"),
			Ignore:     p.bool("ignore"),
		}
		if p.err != nil {
			return nil, fmt.Errorf("CSV line %v: %w", line, p.err)
		}
		if a.Image == "" {
			return nil, fmt.Errorf("CSV line %v: image is empty", line)
		}
		all = append(all, a)
	}
	return all, nil
}

// csvRow holds the first parse error, so that a row can be read field by field
type csvRow struct {
	rec []string
	col map[string]int
	err error
}

func (p *csvRow) str(name string) string {
	i, ok := p.col[name]
	if !ok || i >= len(p.rec) {
		return ""
	}
	return strings.TrimSpace(p.rec[i])
}

func (p *csvRow) float(name string) float32 {
	s := p.str(name)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("Invalid %v '%v'", name, s)
	}
	return float32(v)
}

func (p *csvRow) bool(name string) bool {
	switch strings.ToLower(p.str(name)) {
	case "", "0", "false", "no", "f", "n":
		return false
	case "1", "true", "yes", "t", "y":
		return true
	}
	if p.err == nil {
		p.err = fmt.Errorf("Invalid %v '%v'", name, p.str(name))
	}
	return false
}
