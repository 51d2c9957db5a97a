package scanning

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// FileType identifies the GIS format of a scanned file
type FileType string

const (
	TypeShapefile FileType = "shapefile"
	TypeGeoJSON   FileType = "geojson"
	TypeKML       FileType = "kml"
	TypeGML       FileType = "gml"
	TypeRaster    FileType = "raster"
	TypeUnknown   FileType = "unknown"
)

// sniffLimit is the number of leading bytes read when content sniffing
const sniffLimit = 512

// Classifier assigns a FileType to a path based on its extension, falling
// back to a short content sniff when the extension is absent or unmapped.
// Each Classifier carries its own extension table so independent scans can
// run without interference.
type Classifier struct {
	extensions map[string]FileType
}

// NewClassifier creates a Classifier with the default extension mapping
func NewClassifier() *Classifier {
	return &Classifier{
		extensions: map[string]FileType{
			".shp":     TypeShapefile,
			".geojson": TypeGeoJSON,
			".json":    TypeGeoJSON,
			".kml":     TypeKML,
			".gml":     TypeGML,
			".tif":     TypeRaster,
			".tiff":    TypeRaster,
		},
	}
}

// Classify returns the FileType for a path. It never fails: paths that
// match no extension rule and no content signature come back as
// TypeUnknown. When extension and content disagree the extension wins,
// since it is the cheaper and more stable signal.
func (c *Classifier) Classify(path string) FileType {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := c.extensions[ext]; ok {
		return t
	}
	return c.sniff(path)
}

// sniff inspects the first bytes of a file for known format signatures
func (c *Classifier) sniff(path string) FileType {
	f, err := os.Open(path)
	if err != nil {
		return TypeUnknown
	}
	defer f.Close()

	buf := make([]byte, sniffLimit)
	n, err := f.Read(buf)
	if n == 0 || (err != nil && n <= 0) {
		return TypeUnknown
	}
	buf = buf[:n]

	// TIFF magic: little endian "II*\0" or big endian "MM\0*"
	if bytes.HasPrefix(buf, []byte{0x49, 0x49, 0x2A, 0x00}) || bytes.HasPrefix(buf, []byte{0x4D, 0x4D, 0x00, 0x2A}) {
		return TypeRaster
	}

	trimmed := bytes.TrimLeftFunc(buf, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == 0xFEFF
	})
	if bytes.HasPrefix(trimmed, []byte("{")) && bytes.Contains(trimmed, []byte(`"type"`)) {
		return TypeGeoJSON
	}
	if bytes.HasPrefix(trimmed, []byte("<")) {
		if bytes.Contains(trimmed, []byte("<kml")) || bytes.Contains(trimmed, []byte("opengis.net/kml")) {
			return TypeKML
		}
		if bytes.Contains(trimmed, []byte("<gml:")) || bytes.Contains(trimmed, []byte("opengis.net/gml")) {
			return TypeGML
		}
	}

	return TypeUnknown
}
