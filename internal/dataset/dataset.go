package dataset

import (
	"sort"
	"strings"
)

// RainfallRecord is one observed rainfall row: a state, the observation year
// and the rainfall in millimetres. District-level sources may produce several
// rows per (state, year); aggregation averages them.
type RainfallRecord struct {
	State      string  `json:"state"`
	Year       int     `json:"year"`
	RainfallMM float64 `json:"rainfall_mm"`
}

// CropRecord is one crop production row: state, crop, year and production in
// thousand tonnes. One record per (state, crop, year).
type CropRecord struct {
	State                    string  `json:"state"`
	Crop                     string  `json:"crop"`
	Year                     int     `json:"year"`
	ProductionThousandTonnes float64 `json:"production_thousand_tonnes"`
}

// Tables holds both loaded datasets. Immutable once loaded; callers must not
// mutate the slices.
type Tables struct {
	Rainfall []RainfallRecord
	Crops    []CropRecord
}

// NormalizeState canonicalizes a state name for matching: trimmed and lowercased.
func NormalizeState(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// States returns the distinct state names present across both tables, sorted.
func (t *Tables) States() []string {
	seen := make(map[string]string)
	for _, r := range t.Rainfall {
		if _, ok := seen[NormalizeState(r.State)]; !ok {
			seen[NormalizeState(r.State)] = strings.TrimSpace(r.State)
		}
	}
	for _, c := range t.Crops {
		if _, ok := seen[NormalizeState(c.State)]; !ok {
			seen[NormalizeState(c.State)] = strings.TrimSpace(c.State)
		}
	}

	states := make([]string, 0, len(seen))
	for _, name := range seen {
		states = append(states, name)
	}
	sort.Strings(states)
	return states
}

// CropNames returns the distinct crop names in the crop table, sorted.
func (t *Tables) CropNames() []string {
	seen := make(map[string]struct{})
	for _, c := range t.Crops {
		seen[c.Crop] = struct{}{}
	}

	crops := make([]string, 0, len(seen))
	for crop := range seen {
		crops = append(crops, crop)
	}
	sort.Strings(crops)
	return crops
}

// Years returns the distinct years present in the crop table, ascending.
// The query parser uses these to resolve "last N years" expressions.
func (t *Tables) Years() []int {
	seen := make(map[int]struct{})
	for _, c := range t.Crops {
		seen[c.Year] = struct{}{}
	}
	for _, r := range t.Rainfall {
		seen[r.Year] = struct{}{}
	}

	years := make([]int, 0, len(seen))
	for year := range seen {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}
