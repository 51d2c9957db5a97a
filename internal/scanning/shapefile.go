package scanning

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
)

// shapefileExtractor reads ESRI shapefiles. The .shx and .dbf sidecars
// are required companions of a .shp; a missing one is an extraction
// error. A missing .prj only means the CRS is unknown.
type shapefileExtractor struct{}

func (shapefileExtractor) Extract(path string) (*Metadata, error) {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{".shx", ".dbf"} {
		if _, err := os.Stat(base + ext); err != nil {
			return nil, fmt.Errorf("missing %s sidecar for %s: %w", ext, filepath.Base(path), err)
		}
	}

	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening shapefile: %w", err)
	}
	defer r.Close()

	count := 0
	for r.Next() {
		count++
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading shapes: %w", err)
	}

	box := r.BBox()
	meta := &Metadata{
		GeometryType: shapeGeometry(r.GeometryType),
		Bounds: &BoundingBox{
			MinX: box.MinX,
			MinY: box.MinY,
			MaxX: box.MaxX,
			MaxY: box.MaxY,
		},
		FeatureCount: intPtr(count),
	}

	if wkt, err := os.ReadFile(base + ".prj"); err == nil {
		meta.CRS = NormalizeCRS(string(wkt))
	}

	return meta, nil
}

// shapeGeometry maps the shapefile header shape type to a geometry name.
// Z and M variants collapse onto their planar equivalents.
func shapeGeometry(t shp.ShapeType) string {
	switch t {
	case shp.POINT, shp.POINTZ, shp.POINTM:
		return "Point"
	case shp.POLYLINE, shp.POLYLINEZ, shp.POLYLINEM:
		return "LineString"
	case shp.POLYGON, shp.POLYGONZ, shp.POLYGONM:
		return "Polygon"
	case shp.MULTIPOINT, shp.MULTIPOINTZ, shp.MULTIPOINTM:
		return "MultiPoint"
	default:
		return ""
	}
}
