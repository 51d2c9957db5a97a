package scanning

// BoundingBox is the minimal rectangle containing all geometry in a
// layer, expressed in the data's own coordinate reference system
type BoundingBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// extend grows the box to include a point, allocating on first use
func (b *BoundingBox) extend(x, y float64) *BoundingBox {
	if b == nil {
		return &BoundingBox{MinX: x, MinY: y, MaxX: x, MaxY: y}
	}
	if x < b.MinX {
		b.MinX = x
	}
	if y < b.MinY {
		b.MinY = y
	}
	if x > b.MaxX {
		b.MaxX = x
	}
	if y > b.MaxY {
		b.MaxY = y
	}
	return b
}

// Metadata contains format-level information extracted from a GIS file.
// Fields are populated only when the underlying reader can determine them
// and the concept applies to the format: vector files carry geometry type
// and feature count, rasters carry band count. Multi-layer files report
// the first layer only.
type Metadata struct {
	GeometryType string       `json:"geometry_type,omitempty"`
	CRS          string       `json:"crs,omitempty"`
	Bounds       *BoundingBox `json:"bounding_box,omitempty"`
	FeatureCount *int         `json:"feature_count,omitempty"`
	BandCount    *int         `json:"band_count,omitempty"`
}

// Extractor reads one GIS format and pulls its metadata. Implementations
// must release any file handles on every exit path and report failures as
// errors rather than panicking; the scanner records them per file.
type Extractor interface {
	Extract(path string) (*Metadata, error)
}

// DefaultExtractors returns the extractor registry covering every
// classifiable FileType. TypeUnknown has no entry: extraction is skipped
// entirely for unrecognized files.
func DefaultExtractors() map[FileType]Extractor {
	return map[FileType]Extractor{
		TypeShapefile: shapefileExtractor{},
		TypeGeoJSON:   geoJSONExtractor{},
		TypeKML:       kmlExtractor{},
		TypeGML:       gmlExtractor{},
		TypeRaster:    geoTIFFExtractor{},
	}
}

func intPtr(n int) *int {
	return &n
}
