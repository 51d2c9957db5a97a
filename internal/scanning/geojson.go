package scanning

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// geoJSONExtractor reads GeoJSON documents: a FeatureCollection, a single
// Feature, or a bare Geometry. Per RFC 7946 the coordinate reference
// system of GeoJSON is always WGS 84.
type geoJSONExtractor struct{}

func (geoJSONExtractor) Extract(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	fc, err := decodeGeoJSON(data)
	if err != nil {
		return nil, err
	}

	meta := &Metadata{
		CRS:          "EPSG:4326",
		FeatureCount: intPtr(len(fc.Features)),
	}

	var bound orb.Bound
	first := true
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if meta.GeometryType == "" {
			meta.GeometryType = f.Geometry.GeoJSONType()
		}
		b := f.Geometry.Bound()
		if first {
			bound = b
			first = false
		} else {
			bound = bound.Union(b)
		}
	}
	if !first {
		meta.Bounds = &BoundingBox{
			MinX: bound.Min.X(),
			MinY: bound.Min.Y(),
			MaxX: bound.Max.X(),
			MaxY: bound.Max.Y(),
		}
	}

	return meta, nil
}

// decodeGeoJSON accepts the three top-level GeoJSON document forms,
// normalizing everything to a FeatureCollection
func decodeGeoJSON(data []byte) (*geojson.FeatureCollection, error) {
	fc, fcErr := geojson.UnmarshalFeatureCollection(data)
	if fcErr == nil {
		return fc, nil
	}
	if f, err := geojson.UnmarshalFeature(data); err == nil {
		return geojson.NewFeatureCollection().Append(f), nil
	}
	if g, err := geojson.UnmarshalGeometry(data); err == nil {
		return geojson.NewFeatureCollection().Append(geojson.NewFeature(g.Geometry())), nil
	}
	return nil, fmt.Errorf("parsing geojson: %w", fcErr)
}
