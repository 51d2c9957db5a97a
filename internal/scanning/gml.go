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

// gmlGeometryNames maps GML geometry element names onto the common
// geometry vocabulary used across the catalog
var gmlGeometryNames = map[string]string{
	"Point":           "Point",
	"LineString":      "LineString",
	"Curve":           "LineString",
	"Polygon":         "Polygon",
	"Surface":         "Polygon",
	"MultiPoint":      "MultiPoint",
	"MultiLineString": "MultiLineString",
	"MultiCurve":      "MultiLineString",
	"MultiPolygon":    "MultiPolygon",
	"MultiSurface":    "MultiPolygon",
}

// gmlExtractor reads GML documents. Feature count is the number of
// featureMember elements, geometry type comes from the first geometry
// element, the CRS from the first srsName attribute, and bounds
// accumulate over posList/pos/coordinates content.
type gmlExtractor struct{}

func (gmlExtractor) Extract(path string) (*Metadata, error) {
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
		crs     string
		bounds  *BoundingBox
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing gml: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true

		if crs == "" {
			for _, attr := range start.Attr {
				if attr.Name.Local == "srsName" && attr.Value != "" {
					crs = NormalizeCRS(attr.Value)
					break
				}
			}
		}

		switch start.Name.Local {
		case "featureMember":
			count++
		case "posList", "pos", "coordinates":
			dim := 2
			for _, attr := range start.Attr {
				if attr.Name.Local == "srsDimension" {
					if d, err := strconv.Atoi(attr.Value); err == nil && d > 1 {
						dim = d
					}
				}
			}
			commaTuples := start.Name.Local == "coordinates"
			var text string
			if err := dec.DecodeElement(&text, &start); err != nil {
				return nil, fmt.Errorf("parsing gml coordinates: %w", err)
			}
			bounds = extendGMLBounds(bounds, text, dim, commaTuples)
		default:
			if geom == "" {
				if name, ok := gmlGeometryNames[start.Name.Local]; ok {
					geom = name
				}
			}
		}
	}

	if !sawRoot {
		return nil, errors.New("not a gml document: no root element")
	}

	return &Metadata{
		GeometryType: geom,
		CRS:          crs,
		Bounds:       bounds,
		FeatureCount: intPtr(count),
	}, nil
}

// extendGMLBounds parses coordinate text in either GML 3 form (a flat
// whitespace-separated number list grouped by srsDimension) or GML 2
// <coordinates> form ("x,y x,y" tuples) and folds the positions into the
// bounding box
func extendGMLBounds(b *BoundingBox, text string, dim int, commaTuples bool) *BoundingBox {
	if commaTuples {
		for _, tuple := range strings.Fields(text) {
			parts := strings.Split(tuple, ",")
			if len(parts) < 2 {
				continue
			}
			x, xErr := strconv.ParseFloat(parts[0], 64)
			y, yErr := strconv.ParseFloat(parts[1], 64)
			if xErr != nil || yErr != nil {
				continue
			}
			b = b.extend(x, y)
		}
		return b
	}

	fields := strings.Fields(text)
	for i := 0; i+1 < len(fields); i += dim {
		x, xErr := strconv.ParseFloat(fields[i], 64)
		y, yErr := strconv.ParseFloat(fields[i+1], 64)
		if xErr != nil || yErr != nil {
			continue
		}
		b = b.extend(x, y)
	}
	return b
}
