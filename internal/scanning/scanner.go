package scanning

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"time"
)

// ErrNotDirectory is returned by Scan when the root exists but is not a
// directory
var ErrNotDirectory = fmt.Errorf("root is not a directory")

// FileRecord describes one file discovered during a scan. Type is always
// set; Metadata is present only when an extractor ran and succeeded, and
// Err carries the read or extraction failure otherwise.
type FileRecord struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Type     FileType  `json:"type"`
	Size     int64     `json:"size_bytes"`
	ModTime  time.Time `json:"modified_at"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Err      string    `json:"extraction_error,omitempty"`
}

// Scanner walks directories, classifying each regular file and running
// the matching extractor. Scanners hold only their configuration, so
// concurrent Scan calls on one Scanner are independent.
type Scanner struct {
	classifier *Classifier
	extractors map[FileType]Extractor
}

// NewScanner creates a Scanner from a classifier and an extractor
// registry
func NewScanner(classifier *Classifier, extractors map[FileType]Extractor) *Scanner {
	return &Scanner{
		classifier: classifier,
		extractors: extractors,
	}
}

// NewDefaultScanner creates a Scanner with the default classifier and
// extractors
func NewDefaultScanner() *Scanner {
	return NewScanner(NewClassifier(), DefaultExtractors())
}

// Scan validates root and returns a lazy sequence of FileRecords. A root
// that does not exist or is not a directory fails here, before any
// records are produced. The walk itself happens as the sequence is
// consumed: stopping early abandons the rest, and ranging again performs
// a fresh, independent pass. Symbolic links are never followed. Per-file
// failures become records with Err set; only the root check is fatal. A
// root that exists but cannot be read yields one error record for the
// root itself.
func (s *Scanner) Scan(root string, recursive bool) (iter.Seq[FileRecord], error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("checking root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}

	return func(yield func(FileRecord) bool) {
		filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path != abs && d != nil && d.IsDir() {
					// unreadable subdirectory, nothing to report per file
					return fs.SkipDir
				}
				// an unreadable root yields a single error record
				if !yield(s.errorRecord(path, err)) {
					return fs.SkipAll
				}
				return nil
			}

			if d.IsDir() {
				if path == abs {
					return nil
				}
				if !recursive {
					return fs.SkipDir
				}
				return nil
			}

			// symlinks are skipped entirely to avoid cycles
			if !d.Type().IsRegular() {
				return nil
			}

			if !yield(s.scanFile(path, d)) {
				return fs.SkipAll
			}
			return nil
		})
	}, nil
}

// scanFile stats, classifies and extracts a single regular file
func (s *Scanner) scanFile(path string, d fs.DirEntry) FileRecord {
	rec := FileRecord{
		Path: path,
		Name: d.Name(),
		Type: s.classifier.Classify(path),
	}

	info, err := d.Info()
	if err != nil {
		rec.Err = fmt.Sprintf("reading file info: %v", err)
		return rec
	}
	rec.Size = info.Size()
	rec.ModTime = info.ModTime()

	extractor, ok := s.extractors[rec.Type]
	if !ok {
		return rec
	}
	meta, err := extractor.Extract(path)
	if err != nil {
		rec.Err = err.Error()
		return rec
	}
	rec.Metadata = meta
	return rec
}

// errorRecord reports a file the walk could not read. Classification
// still runs on the path so Type is set, and a best-effort stat fills the
// filesystem fields.
func (s *Scanner) errorRecord(path string, err error) FileRecord {
	rec := FileRecord{
		Path: path,
		Name: filepath.Base(path),
		Type: s.classifier.Classify(path),
		Err:  err.Error(),
	}
	if info, statErr := os.Lstat(path); statErr == nil {
		rec.Size = info.Size()
		rec.ModTime = info.ModTime()
	}
	return rec
}
