package annot

import "github.com/cyclopcam/dbh"

// Annotation is one labelled box on one image.
// Coordinates are in pixels, with (X, Y) the top-left corner.
type Annotation struct {
	ID         int64   `gorm:"primaryKey" json:"-"`
	BatchID    int64   `json:"-" gorm:"default:null"`
	Image      string  `json:"image"`
	ClassLabel string  `json:"classLabel"`
	ClassID    int     `json:"classId" gorm:"-"` // Assigned by the consumer, never stored
	X          float32 `json:"x" gorm:"column:x_top_left"`
	Y          float32 `json:"y" gorm:"column:y_top_left"`
	Width      float32 `json:"width"`
	Height     float32 `json:"height"`
	Occluded   bool    `json:"occluded"`
	Truncated  bool    `json:"truncated"`
	Lost       bool    `json:"lost"`
	Difficult  bool    `json:"difficult"`
	Ignore     bool    `json:"ignore"`
}

// ImportBatch records one call to Insert or ImportCSV
type ImportBatch struct {
	ID         int64       `gorm:"primaryKey" json:"id"`
	Source     string      `json:"source" gorm:"default:null"`
	ImportedAt dbh.IntTime `json:"importedAt"`
	Count      int         `json:"count"`
}
