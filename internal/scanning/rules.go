package scanning

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
)

// Rule assigns a thematic category to files whose name matches a pattern
// and, optionally, whose geometry type is one of a listed set
type Rule struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Priority        int      `json:"priority"`
	FilenamePattern string   `json:"filename_pattern,omitempty"`
	GeometryTypes   []string `json:"geometry_types,omitempty"`
}

// Classification is the outcome of categorizing one file
type Classification struct {
	Category      string   `json:"category"`
	Confidence    float64  `json:"confidence"`
	MatchingRules []string `json:"matching_rules,omitempty"`
	SuggestedPath string   `json:"suggested_path,omitempty"`
}

// CategoryUnclassified is assigned when no rule matches
const CategoryUnclassified = "unclassified"

// DefaultRules returns the built-in category rule table
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:            "Base Maps",
			Description:     "Base map layers like administrative boundaries",
			Category:        "basemaps",
			FilenamePattern: `(boundary|admin|border|limits)`,
			GeometryTypes:   []string{"Polygon", "MultiPolygon"},
		},
		{
			Name:            "Roads",
			Description:     "Road network data",
			Category:        "transportation",
			FilenamePattern: `(road|street|highway|transportation)`,
			GeometryTypes:   []string{"LineString", "MultiLineString"},
		},
		{
			Name:            "Points of Interest",
			Description:     "POI data",
			Category:        "points_of_interest",
			FilenamePattern: `(poi|point|location|facility)`,
			GeometryTypes:   []string{"Point", "MultiPoint"},
		},
		{
			Name:            "Hydrography",
			Description:     "Water features",
			Category:        "hydrography",
			FilenamePattern: `(water|river|stream|lake|hydro)`,
			GeometryTypes:   []string{"Polygon", "MultiPolygon", "LineString"},
		},
		{
			Name:            "Elevation",
			Description:     "Elevation data",
			Category:        "elevation",
			FilenamePattern: `(dem|elevation|contour|height|dtm)`,
		},
		{
			Name:            "Land Cover",
			Description:     "Land cover or land use data",
			Category:        "land_cover",
			FilenamePattern: `(land|cover|use|lulc|vegetation)`,
			GeometryTypes:   []string{"Polygon", "MultiPolygon"},
		},
	}
}

// LoadRules reads additional rules from a JSON file holding an array of
// Rule objects
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	return rules, nil
}

type compiledRule struct {
	Rule
	pattern *regexp.Regexp
}

// RuleSet holds a compiled, ordered rule table. Rule sets are plain
// values constructed per caller; there is no shared rule registry.
type RuleSet struct {
	rules []compiledRule
}

// NewRuleSet compiles a rule list. Filename patterns are matched
// case-insensitively against the base filename.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cr := compiledRule{Rule: r}
		if r.FilenamePattern != "" {
			re, err := regexp.Compile(`(?i)` + r.FilenamePattern)
			if err != nil {
				return nil, fmt.Errorf("compiling pattern for rule %q: %w", r.Name, err)
			}
			cr.pattern = re
		}
		compiled = append(compiled, cr)
	}
	return &RuleSet{rules: compiled}, nil
}

// matches reports whether a rule applies to a file. A geometry-type
// condition is only enforced when the file actually has a geometry type,
// so rasters can still match filename-only conditions.
func (r compiledRule) matches(filename, geometryType string) bool {
	if r.pattern != nil && !r.pattern.MatchString(filename) {
		return false
	}
	if len(r.GeometryTypes) > 0 && geometryType != "" {
		if !slices.Contains(r.GeometryTypes, geometryType) {
			return false
		}
	}
	return true
}

// Categorize classifies one file by name and geometry type. With no
// matching rule the result is the unclassified category at zero
// confidence; otherwise the highest-priority match names the category and
// confidence grows with the number of matching rules and the winner's
// priority, capped at 1.0.
func (rs *RuleSet) Categorize(filename, geometryType string) Classification {
	var matching []compiledRule
	for _, r := range rs.rules {
		if r.matches(filename, geometryType) {
			matching = append(matching, r)
		}
	}

	if len(matching) == 0 {
		return Classification{
			Category:      CategoryUnclassified,
			SuggestedPath: filepath.Join(CategoryUnclassified, filename),
		}
	}

	slices.SortStableFunc(matching, func(a, b compiledRule) int {
		return b.Priority - a.Priority
	})
	top := matching[0]

	names := make([]string, len(matching))
	for i, r := range matching {
		names[i] = r.Name
	}

	return Classification{
		Category:      top.Category,
		Confidence:    min(1.0, 0.5+0.1*float64(len(matching))+0.1*float64(top.Priority)),
		MatchingRules: names,
		SuggestedPath: filepath.Join(top.Category, filename),
	}
}
