package analytics

import (
	"errors"
	"fmt"
	"sort"

	"samarth/internal/dataset"
)

// Sentinel errors distinguishing "bad request" from "nothing matched".
// Callers must treat an invalid parameter differently from an empty filter.
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNoMatchingData   = errors.New("no matching data")
)

// CropTotal is one ranked entry of a top-crops result
type CropTotal struct {
	Crop            string  `json:"crop"`
	TotalProduction float64 `json:"total_production"`
}

// StateRainfall is one side of a rainfall comparison. AverageMM is nil when
// the state has no rainfall rows in the analyzed window.
type StateRainfall struct {
	State     string   `json:"state"`
	AverageMM *float64 `json:"average_mm"`
}

// RainfallComparison compares average rainfall between two states over the
// most recent years present in the dataset.
type RainfallComparison struct {
	StateX        StateRainfall `json:"state_x"`
	StateY        StateRainfall `json:"state_y"`
	YearsAnalyzed []int         `json:"years_analyzed"`
}

// AverageRainfall returns the arithmetic mean rainfall for a state over the
// lastNYears most recent distinct years present in that state's rows. The
// window is over years present in the data, not contiguous calendar years.
func AverageRainfall(records []dataset.RainfallRecord, state string, lastNYears int) (float64, error) {
	if lastNYears <= 0 {
		return 0, fmt.Errorf("%w: last_n_years must be positive, got %d", ErrInvalidParameter, lastNYears)
	}
	norm := dataset.NormalizeState(state)
	if norm == "" {
		return 0, fmt.Errorf("%w: state must not be blank", ErrInvalidParameter)
	}

	var filtered []dataset.RainfallRecord
	for _, r := range records {
		if dataset.NormalizeState(r.State) == norm {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return 0, fmt.Errorf("%w: no rainfall rows for state %q", ErrNoMatchingData, state)
	}

	window := recentYears(rainfallYears(filtered), lastNYears)

	var sum float64
	var count int
	for _, r := range filtered {
		if window[r.Year] {
			sum += r.RainfallMM
			count++
		}
	}
	if count == 0 {
		return 0, fmt.Errorf("%w: no rainfall rows for state %q in window", ErrNoMatchingData, state)
	}

	return sum / float64(count), nil
}

// TopCrops ranks crops for a state by total production over the lastNYears
// most recent distinct years present in the state's rows, descending by
// total. Equal totals are ordered by crop name ascending so results are
// deterministic. The result holds at most topM entries.
func TopCrops(records []dataset.CropRecord, state string, lastNYears, topM int) ([]CropTotal, error) {
	if lastNYears <= 0 {
		return nil, fmt.Errorf("%w: last_n_years must be positive, got %d", ErrInvalidParameter, lastNYears)
	}
	if topM <= 0 {
		return nil, fmt.Errorf("%w: top_m must be positive, got %d", ErrInvalidParameter, topM)
	}
	norm := dataset.NormalizeState(state)
	if norm == "" {
		return nil, fmt.Errorf("%w: state must not be blank", ErrInvalidParameter)
	}

	var filtered []dataset.CropRecord
	for _, r := range records {
		if dataset.NormalizeState(r.State) == norm {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("%w: no crop rows for state %q", ErrNoMatchingData, state)
	}

	window := recentYears(cropYears(filtered), lastNYears)

	totals := make(map[string]float64)
	for _, r := range filtered {
		if window[r.Year] {
			totals[r.Crop] += r.ProductionThousandTonnes
		}
	}
	if len(totals) == 0 {
		return nil, fmt.Errorf("%w: no crop rows for state %q in window", ErrNoMatchingData, state)
	}

	ranked := make([]CropTotal, 0, len(totals))
	for crop, total := range totals {
		ranked = append(ranked, CropTotal{Crop: crop, TotalProduction: total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalProduction != ranked[j].TotalProduction {
			return ranked[i].TotalProduction > ranked[j].TotalProduction
		}
		return ranked[i].Crop < ranked[j].Crop
	})

	if len(ranked) > topM {
		ranked = ranked[:topM]
	}
	return ranked, nil
}

// CompareRainfall computes both states' average rainfall over the lastNYears
// most recent distinct years present in the whole rainfall table. One-sided
// missing data is tolerated; only when neither state has rows in the window
// does the comparison fail.
func CompareRainfall(records []dataset.RainfallRecord, stateX, stateY string, lastNYears int) (*RainfallComparison, error) {
	if lastNYears <= 0 {
		return nil, fmt.Errorf("%w: last_n_years must be positive, got %d", ErrInvalidParameter, lastNYears)
	}
	normX := dataset.NormalizeState(stateX)
	normY := dataset.NormalizeState(stateY)
	if normX == "" || normY == "" {
		return nil, fmt.Errorf("%w: both states must be provided", ErrInvalidParameter)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: rainfall table is empty", ErrNoMatchingData)
	}

	window := recentYears(rainfallYears(records), lastNYears)

	avgFor := func(norm string) *float64 {
		var sum float64
		var count int
		for _, r := range records {
			if window[r.Year] && dataset.NormalizeState(r.State) == norm {
				sum += r.RainfallMM
				count++
			}
		}
		if count == 0 {
			return nil
		}
		avg := sum / float64(count)
		return &avg
	}

	avgX := avgFor(normX)
	avgY := avgFor(normY)
	if avgX == nil && avgY == nil {
		return nil, fmt.Errorf("%w: no rainfall rows for states %q and %q", ErrNoMatchingData, stateX, stateY)
	}

	years := make([]int, 0, len(window))
	for year := range window {
		years = append(years, year)
	}
	sort.Ints(years)

	return &RainfallComparison{
		StateX:        StateRainfall{State: stateX, AverageMM: avgX},
		StateY:        StateRainfall{State: stateY, AverageMM: avgY},
		YearsAnalyzed: years,
	}, nil
}

// recentYears returns the n largest distinct years as a membership set
func recentYears(years []int, n int) map[int]bool {
	sort.Ints(years)
	if len(years) > n {
		years = years[len(years)-n:]
	}
	window := make(map[int]bool, len(years))
	for _, year := range years {
		window[year] = true
	}
	return window
}

func rainfallYears(records []dataset.RainfallRecord) []int {
	seen := make(map[int]struct{})
	for _, r := range records {
		seen[r.Year] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for year := range seen {
		years = append(years, year)
	}
	return years
}

func cropYears(records []dataset.CropRecord) []int {
	seen := make(map[int]struct{})
	for _, r := range records {
		seen[r.Year] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for year := range seen {
		years = append(years, year)
	}
	return years
}
