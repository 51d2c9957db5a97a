package catalog

import (
	"fmt"
	"iter"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/gis-catalog/internal/scanning"
)

// DirectoryScanner defines the interface for directory scanning
// operations; *scanning.Scanner satisfies it
type DirectoryScanner interface {
	Scan(root string, recursive bool) (iter.Seq[scanning.FileRecord], error)
}

// IDGenerator generates unique IDs for records and scan runs
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles catalog operations
type Service struct {
	db          DB
	scanner     DirectoryScanner
	rules       *scanning.RuleSet
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner DirectoryScanner, rules *scanning.RuleSet) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		rules:       rules,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner DirectoryScanner, rules *scanning.RuleSet, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		rules:       rules,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// RunScan scans a root directory, upserts a record per discovered file
// and persists a run summary. Root errors fail before any record is
// written; per-file failures land on their records and the scan
// continues.
func (s *Service) RunScan(root string, recursive bool) (*ScanRun, []*ScanRecord, error) {
	seq, err := s.scanner.Scan(root, recursive)
	if err != nil {
		return nil, nil, fmt.Errorf("starting scan: %w", err)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving root: %w", err)
	}

	run := &ScanRun{
		ID:        s.idGenerator.Generate(),
		Root:      abs,
		Recursive: recursive,
		StartedAt: s.timeSource.Now(),
	}

	var records []*ScanRecord
	for fileRecord := range seq {
		record := s.recordFromFile(fileRecord)
		if err := s.db.UpsertRecord(record); err != nil {
			return nil, nil, fmt.Errorf("saving record for %s: %w", record.Path, err)
		}
		run.FileCount++
		if record.ExtractionError != "" {
			run.ErrorCount++
		}
		records = append(records, record)
	}

	run.FinishedAt = s.timeSource.Now()
	if err := s.db.SaveRun(run); err != nil {
		return nil, nil, fmt.Errorf("saving scan run: %w", err)
	}

	slog.Info("Scan complete", "root", run.Root, "files", run.FileCount, "errors", run.ErrorCount)
	return run, records, nil
}

// recordFromFile converts a scanner record into a catalog record,
// attaching a category when the file is a recognized GIS type
func (s *Service) recordFromFile(fileRecord scanning.FileRecord) *ScanRecord {
	now := s.timeSource.Now()
	record := &ScanRecord{
		ID:              s.idGenerator.Generate(),
		Path:            fileRecord.Path,
		Name:            fileRecord.Name,
		Type:            fileRecord.Type,
		SizeBytes:       fileRecord.Size,
		ModifiedAt:      fileRecord.ModTime,
		ExtractionError: fileRecord.Err,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if meta := fileRecord.Metadata; meta != nil {
		record.GeometryType = meta.GeometryType
		record.CRS = meta.CRS
		record.BoundingBox = meta.Bounds
		record.FeatureCount = meta.FeatureCount
		record.BandCount = meta.BandCount
	}

	if s.rules != nil && fileRecord.Type != scanning.TypeUnknown {
		classification := s.rules.Categorize(record.Name, record.GeometryType)
		record.Category = classification.Category
		record.Confidence = classification.Confidence
		record.MatchingRules = classification.MatchingRules
	}

	return record
}

// GetRecord retrieves a record by ID
func (s *Service) GetRecord(id string) (*ScanRecord, error) {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return nil, fmt.Errorf("getting record: %w", err)
	}
	return record, nil
}

// ListRecords returns all records, optionally filtered by file type
func (s *Service) ListRecords(typeFilter string) ([]*ScanRecord, error) {
	records, err := s.db.ListRecords()
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	if typeFilter == "" {
		return records, nil
	}
	filtered := make([]*ScanRecord, 0, len(records))
	for _, record := range records {
		if string(record.Type) == typeFilter {
			filtered = append(filtered, record)
		}
	}
	return filtered, nil
}

// DeleteRecord removes a record from the catalog. The file itself is
// left in place; the catalog only indexes files, it does not own them.
func (s *Service) DeleteRecord(id string) error {
	if err := s.db.DeleteRecord(id); err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	return nil
}

// GetRun retrieves a scan run by ID
func (s *Service) GetRun(id string) (*ScanRun, error) {
	run, err := s.db.GetRun(id)
	if err != nil {
		return nil, fmt.Errorf("getting scan run: %w", err)
	}
	return run, nil
}

// ListRuns returns all scan runs
func (s *Service) ListRuns() ([]*ScanRun, error) {
	runs, err := s.db.ListRuns()
	if err != nil {
		return nil, fmt.Errorf("listing scan runs: %w", err)
	}
	return runs, nil
}

// Organize moves every cataloged file into a category subdirectory of
// targetRoot and updates the stored paths. Failures are reported per
// operation; one stuck file never aborts the rest.
func (s *Service) Organize(targetRoot string) (*OrganizeResult, error) {
	records, err := s.db.ListRecords()
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	plan := BuildPlan(records, targetRoot)
	result := &OrganizeResult{Target: targetRoot}

	for _, op := range plan {
		outcome := OperationResult{RecordID: op.RecordID, Source: op.Source, Dest: op.Dest}
		if err := executeMove(op); err != nil {
			slog.Warn("Failed to move file", "source", op.Source, "error", err)
			outcome.Error = err.Error()
			result.Failed++
		} else if err := s.updateRecordPath(op.RecordID, op.Dest); err != nil {
			outcome.Error = err.Error()
			result.Failed++
		} else {
			result.Moved++
		}
		result.Operations = append(result.Operations, outcome)
	}

	slog.Info("Organize complete", "target", targetRoot, "moved", result.Moved, "failed", result.Failed)
	return result, nil
}

// updateRecordPath rewrites a record's path after a successful move
func (s *Service) updateRecordPath(id, newPath string) error {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return fmt.Errorf("getting record for path update: %w", err)
	}
	if err := s.db.DeleteRecord(id); err != nil {
		return fmt.Errorf("removing old path entry: %w", err)
	}
	record.Path = newPath
	record.UpdatedAt = s.timeSource.Now()
	if err := s.db.UpsertRecord(record); err != nil {
		return fmt.Errorf("saving moved record: %w", err)
	}
	return nil
}
