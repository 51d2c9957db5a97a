package catalog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zombor/gis-catalog/internal/scanning"
)

// shapefileSidecarExts are the companion files that must travel with a
// .shp when it moves
var shapefileSidecarExts = []string{".shx", ".dbf", ".prj", ".cpg", ".sbn", ".sbx"}

// MoveOp is one planned file move, including any sidecar files
type MoveOp struct {
	RecordID string   `json:"record_id"`
	Source   string   `json:"source"`
	Dest     string   `json:"dest"`
	Sidecars []string `json:"sidecars,omitempty"`
}

// OperationResult reports the outcome of one executed move
type OperationResult struct {
	RecordID string `json:"record_id"`
	Source   string `json:"source"`
	Dest     string `json:"dest"`
	Error    string `json:"error,omitempty"`
}

// OrganizeResult summarizes an organize pass
type OrganizeResult struct {
	Target     string            `json:"target"`
	Moved      int               `json:"moved"`
	Failed     int               `json:"failed"`
	Operations []OperationResult `json:"operations"`
}

// BuildPlan maps each record to targetRoot/<category>/<name>. Records
// with no category (unknown files) go under the unclassified directory.
// Records already at their destination are left out of the plan.
func BuildPlan(records []*ScanRecord, targetRoot string) []MoveOp {
	var plan []MoveOp
	for _, record := range records {
		category := record.Category
		if category == "" {
			category = scanning.CategoryUnclassified
		}
		dest := filepath.Join(targetRoot, category, record.Name)
		if dest == record.Path {
			continue
		}
		plan = append(plan, MoveOp{
			RecordID: record.ID,
			Source:   record.Path,
			Dest:     dest,
			Sidecars: sidecarsFor(record),
		})
	}
	return plan
}

// sidecarsFor lists the existing sidecar files accompanying a shapefile
func sidecarsFor(record *ScanRecord) []string {
	if record.Type != scanning.TypeShapefile {
		return nil
	}
	base := strings.TrimSuffix(record.Path, filepath.Ext(record.Path))
	var sidecars []string
	for _, ext := range shapefileSidecarExts {
		if _, err := os.Stat(base + ext); err == nil {
			sidecars = append(sidecars, base+ext)
		}
	}
	return sidecars
}

// executeMove moves the main file and its sidecars into the destination
// directory
func executeMove(op MoveOp) error {
	if err := os.MkdirAll(filepath.Dir(op.Dest), 0755); err != nil {
		return fmt.Errorf("creating category directory: %w", err)
	}
	if err := moveFile(op.Source, op.Dest); err != nil {
		return err
	}
	destDir := filepath.Dir(op.Dest)
	for _, sidecar := range op.Sidecars {
		if err := moveFile(sidecar, filepath.Join(destDir, filepath.Base(sidecar))); err != nil {
			return fmt.Errorf("moving sidecar %s: %w", filepath.Base(sidecar), err)
		}
	}
	return nil
}

// moveFile renames when possible and falls back to copy-and-remove for
// cross-device moves
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copying file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing destination: %w", err)
	}
	return os.Remove(src)
}
