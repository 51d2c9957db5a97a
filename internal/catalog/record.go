package catalog

import (
	"time"

	"github.com/zombor/gis-catalog/internal/scanning"
)

// ScanRecord is one cataloged GIS file. Path is the unique key: a
// re-scan of the same path replaces the whole record while keeping its ID
// and CreatedAt. Type is always set; the optional metadata fields are
// present only when extraction succeeded and the concept applies to the
// format.
type ScanRecord struct {
	ID              string                `json:"id"`
	Path            string                `json:"path"`
	Name            string                `json:"name"`
	Type            scanning.FileType     `json:"type"`
	SizeBytes       int64                 `json:"size_bytes"`
	ModifiedAt      time.Time             `json:"modified_at"`
	GeometryType    string                `json:"geometry_type,omitempty"`
	CRS             string                `json:"crs,omitempty"`
	BoundingBox     *scanning.BoundingBox `json:"bounding_box,omitempty"`
	FeatureCount    *int                  `json:"feature_count,omitempty"`
	BandCount       *int                  `json:"band_count,omitempty"`
	ExtractionError string                `json:"extraction_error,omitempty"`
	Category        string                `json:"category,omitempty"`
	Confidence      float64               `json:"confidence,omitempty"`
	MatchingRules   []string              `json:"matching_rules,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// ScanRun summarizes one scan pass over a root directory
type ScanRun struct {
	ID         string    `json:"id"`
	Root       string    `json:"root"`
	Recursive  bool      `json:"recursive"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	FileCount  int       `json:"file_count"`
	ErrorCount int       `json:"error_count"`
}
