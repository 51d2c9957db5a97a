package scanning

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
)

// TIFF tag and field-type constants, limited to what GeoTIFF metadata
// extraction needs. The GeoKey directory layout follows the GeoTIFF 1.1
// specification (OGC 19-008).
const (
	tagImageWidth       = 256
	tagImageLength      = 257
	tagSamplesPerPixel  = 277
	tagModelPixelScale  = 33550
	tagModelTiepoint    = 33922
	tagGeoKeyDirectory  = 34735
	fieldTypeShort      = 3
	fieldTypeLong       = 4
	fieldTypeDouble     = 12
	geoKeyGeographicCRS = 2048
	geoKeyProjectedCRS  = 3072
	geoKeyUserDefined   = 32767
)

// geoTIFFExtractor reads TIFF rasters by walking the first image file
// directory. x/image/tiff decodes pixel data but exposes no tag access,
// and the GeoTIFF georeferencing keys live in raw private tags, so the
// directory is parsed directly. Plain TIFFs without geo keys still yield
// band count and dimensions; BigTIFF is not supported.
type geoTIFFExtractor struct{}

type tiffEntry struct {
	fieldType uint16
	count     uint32
	raw       [4]byte
}

func (geoTIFFExtractor) Extract(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	defer f.Close()

	var header [8]byte
	if _, err := f.ReadAt(header[:], 0); err != nil {
		return nil, fmt.Errorf("reading tiff header: %w", err)
	}

	var bo binary.ByteOrder
	switch {
	case header[0] == 'I' && header[1] == 'I':
		bo = binary.LittleEndian
	case header[0] == 'M' && header[1] == 'M':
		bo = binary.BigEndian
	default:
		return nil, errors.New("not a tiff file: bad byte-order mark")
	}

	switch magic := bo.Uint16(header[2:4]); magic {
	case 42:
	case 43:
		return nil, errors.New("bigtiff is not supported")
	default:
		return nil, fmt.Errorf("not a tiff file: bad magic number %d", magic)
	}

	entries, err := readIFD(f, bo, int64(bo.Uint32(header[4:8])))
	if err != nil {
		return nil, err
	}

	bands := 1
	if e, ok := entries[tagSamplesPerPixel]; ok {
		if v, err := readIntValue(bo, e); err == nil && v > 0 {
			bands = int(v)
		}
	}
	meta := &Metadata{BandCount: intPtr(bands)}

	if code := readEPSGCode(f, bo, entries); code != 0 {
		meta.CRS = fmt.Sprintf("EPSG:%d", code)
	}

	if box := readExtent(f, bo, entries); box != nil {
		meta.Bounds = box
	}

	return meta, nil
}

// readIFD reads the first image file directory into a tag-keyed map
func readIFD(f *os.File, bo binary.ByteOrder, offset int64) (map[uint16]tiffEntry, error) {
	var countBuf [2]byte
	if _, err := f.ReadAt(countBuf[:], offset); err != nil {
		return nil, fmt.Errorf("reading tiff directory: %w", err)
	}
	count := int(bo.Uint16(countBuf[:]))

	buf := make([]byte, count*12)
	if _, err := f.ReadAt(buf, offset+2); err != nil {
		return nil, fmt.Errorf("reading tiff directory entries: %w", err)
	}

	entries := make(map[uint16]tiffEntry, count)
	for i := 0; i < count; i++ {
		e := buf[i*12 : (i+1)*12]
		entry := tiffEntry{
			fieldType: bo.Uint16(e[2:4]),
			count:     bo.Uint32(e[4:8]),
		}
		copy(entry.raw[:], e[8:12])
		entries[bo.Uint16(e[0:2])] = entry
	}
	return entries, nil
}

// readIntValue returns a single SHORT or LONG value stored inline
func readIntValue(bo binary.ByteOrder, e tiffEntry) (uint32, error) {
	switch e.fieldType {
	case fieldTypeShort:
		return uint32(bo.Uint16(e.raw[0:2])), nil
	case fieldTypeLong:
		return bo.Uint32(e.raw[:]), nil
	default:
		return 0, fmt.Errorf("unexpected field type %d", e.fieldType)
	}
}

// readShorts returns a SHORT array, following the offset when the values
// do not fit inline
func readShorts(f *os.File, bo binary.ByteOrder, e tiffEntry) ([]uint16, error) {
	if e.fieldType != fieldTypeShort {
		return nil, fmt.Errorf("unexpected field type %d", e.fieldType)
	}
	n := int(e.count)
	var data []byte
	if n*2 <= 4 {
		data = e.raw[:n*2]
	} else {
		data = make([]byte, n*2)
		if _, err := f.ReadAt(data, int64(bo.Uint32(e.raw[:]))); err != nil {
			return nil, fmt.Errorf("reading tiff values: %w", err)
		}
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = bo.Uint16(data[i*2 : i*2+2])
	}
	return out, nil
}

// readDoubles returns a DOUBLE array; doubles never fit inline
func readDoubles(f *os.File, bo binary.ByteOrder, e tiffEntry) ([]float64, error) {
	if e.fieldType != fieldTypeDouble {
		return nil, fmt.Errorf("unexpected field type %d", e.fieldType)
	}
	n := int(e.count)
	data := make([]byte, n*8)
	if _, err := f.ReadAt(data, int64(bo.Uint32(e.raw[:]))); err != nil {
		return nil, fmt.Errorf("reading tiff values: %w", err)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(bo.Uint64(data[i*8 : i*8+8]))
	}
	return out, nil
}

// readEPSGCode pulls the EPSG code out of the GeoKey directory,
// preferring a projected CRS key over a geographic one
func readEPSGCode(f *os.File, bo binary.ByteOrder, entries map[uint16]tiffEntry) int {
	e, ok := entries[tagGeoKeyDirectory]
	if !ok {
		return 0
	}
	keys, err := readShorts(f, bo, e)
	if err != nil || len(keys) < 4 {
		return 0
	}

	geographic := 0
	// four-short header, then four shorts per key entry
	for i := 4; i+3 < len(keys); i += 4 {
		keyID, location, value := keys[i], keys[i+1], keys[i+3]
		if location != 0 || value == 0 || value == geoKeyUserDefined {
			continue
		}
		switch keyID {
		case geoKeyProjectedCRS:
			return int(value)
		case geoKeyGeographicCRS:
			geographic = int(value)
		}
	}
	return geographic
}

// readExtent derives the bounding box from the model tiepoint, pixel
// scale and raster dimensions
func readExtent(f *os.File, bo binary.ByteOrder, entries map[uint16]tiffEntry) *BoundingBox {
	widthEntry, okW := entries[tagImageWidth]
	heightEntry, okH := entries[tagImageLength]
	scaleEntry, okS := entries[tagModelPixelScale]
	tieEntry, okT := entries[tagModelTiepoint]
	if !okW || !okH || !okS || !okT {
		return nil
	}

	width, errW := readIntValue(bo, widthEntry)
	height, errH := readIntValue(bo, heightEntry)
	if errW != nil || errH != nil || width == 0 || height == 0 {
		return nil
	}
	scale, err := readDoubles(f, bo, scaleEntry)
	if err != nil || len(scale) < 2 || scale[0] <= 0 || scale[1] <= 0 {
		return nil
	}
	tie, err := readDoubles(f, bo, tieEntry)
	if err != nil || len(tie) < 6 {
		return nil
	}

	// tiepoint maps raster (i, j) onto model (x, y)
	minX := tie[3] - tie[0]*scale[0]
	maxY := tie[4] + tie[1]*scale[1]
	return &BoundingBox{
		MinX: minX,
		MinY: maxY - float64(height)*scale[1],
		MaxX: minX + float64(width)*scale[0],
		MaxY: maxY,
	}
}
