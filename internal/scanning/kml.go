package scanning

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// kmlExtractor reads OGC KML. Feature count is the number of Placemark
// elements, geometry type comes from the first geometry element, and
// bounds accumulate over every <coordinates> block. KML coordinates are
// always WGS 84 longitude/latitude per the OGC spec.
type kmlExtractor struct{}

func (kmlExtractor) Extract(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	defer f.Close()

	dec := xml.NewDecoder(f)

	var (
		sawRoot bool
		count   int
		geom    string
		bounds  *BoundingBox
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing kml: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !sawRoot {
			if start.Name.Local != "kml" {
				return nil, fmt.Errorf("not a kml document: root element is <%s>", start.Name.Local)
			}
			sawRoot = true
			continue
		}

		switch start.Name.Local {
		case "Placemark":
			count++
		case "Point", "LineString", "Polygon":
			if geom == "" {
				geom = start.Name.Local
			}
		case "coordinates":
			var text string
			if err := dec.DecodeElement(&text, &start); err != nil {
				return nil, fmt.Errorf("parsing kml coordinates: %w", err)
			}
			bounds = extendKMLBounds(bounds, text)
		}
	}

	if !sawRoot {
		return nil, errors.New("not a kml document: no root element")
	}

	return &Metadata{
		GeometryType: geom,
		CRS:          "EPSG:4326",
		Bounds:       bounds,
		FeatureCount: intPtr(count),
	}, nil
}

// extendKMLBounds folds "lon,lat[,alt]" tuples into the bounding box.
// Malformed tuples are skipped rather than failing the whole file.
func extendKMLBounds(b *BoundingBox, text string) *BoundingBox {
	for _, tuple := range strings.Fields(text) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			continue
		}
		lon, lonErr := strconv.ParseFloat(parts[0], 64)
		lat, latErr := strconv.ParseFloat(parts[1], 64)
		if lonErr != nil || latErr != nil {
			continue
		}
		b = b.extend(lon, lat)
	}
	return b
}
