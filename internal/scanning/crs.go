package scanning

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// EPSG:4326, EPSG::4326 (urn form), epsg 4326, EPSG_4326, SRID=4326
	epsgColonPattern = regexp.MustCompile(`(?i)EPSG:{1,2}\s*(\d+)`)
	epsgSepPattern   = regexp.MustCompile(`(?i)EPSG[\s_-](\d+)`)
	sridPattern      = regexp.MustCompile(`(?i)SRID=(\d+)`)
	// WKT authority clause; the last occurrence names the whole CRS
	authorityPattern = regexp.MustCompile(`AUTHORITY\["EPSG",\s*"(\d+)"\]`)
	utmZonePattern   = regexp.MustCompile(`UTM [Zz]one (\d+)`)
)

// NormalizeCRS reduces the many spellings of a coordinate reference
// system identifier to an "EPSG:code" string where one can be recognized:
// plain EPSG references, URN forms, SRID assignments, WKT AUTHORITY
// clauses, well-known WGS 84 text and named UTM zones. Input that cannot
// be recognized is returned unchanged, and empty input stays empty.
func NormalizeCRS(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if m := epsgColonPattern.FindStringSubmatch(s); m != nil {
		return "EPSG:" + m[1]
	}
	if m := epsgSepPattern.FindStringSubmatch(s); m != nil {
		return "EPSG:" + m[1]
	}
	if m := sridPattern.FindStringSubmatch(s); m != nil {
		return "EPSG:" + m[1]
	}
	if ms := authorityPattern.FindAllStringSubmatch(s, -1); len(ms) > 0 {
		return "EPSG:" + ms[len(ms)-1][1]
	}

	if strings.HasPrefix(s, `GEOGCS["WGS 84"`) || strings.HasPrefix(s, `GEOGCS["GCS_WGS_1984"`) {
		return "EPSG:4326"
	}

	if m := utmZonePattern.FindStringSubmatch(s); m != nil {
		zone, err := strconv.Atoi(m[1])
		if err == nil && zone >= 1 && zone <= 60 {
			lower := strings.ToLower(s)
			if strings.Contains(lower, "southern hemisphere") || strings.Contains(lower, ", south") || strings.Contains(s, zoneSouthSuffix(m[1])) {
				return "EPSG:" + strconv.Itoa(32700+zone)
			}
			return "EPSG:" + strconv.Itoa(32600+zone)
		}
	}

	return s
}

// zoneSouthSuffix matches the "33S" style suffix in names like
// "WGS 84 / UTM zone 33S"
func zoneSouthSuffix(zone string) string {
	return "zone " + zone + "S"
}
