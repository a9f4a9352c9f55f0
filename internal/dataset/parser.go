package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Column header matching is case-insensitive substring based: data.gov.in
// resources are inconsistent about exact header names across revisions.

var (
	fiscalYearRe = regexp.MustCompile(`(\d{4})([ -]\d{2})?`)
	parenRe      = regexp.MustCompile(`\([^)]*\)`)
)

// categoryTokens are column-name fragments that never name a crop
var categoryTokens = []string{
	"food grains", "cereals", "pulses", "oilseeds",
	"total", "production", "state", "name", "all india", "all-india",
}

// ParseRainfallCSV parses a long-format rainfall dataset. It expects a header
// row with a state column, a year column and a rainfall column; rows that do
// not parse are skipped rather than failing the whole load.
func ParseRainfallCSV(r io.Reader) ([]RainfallRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read rainfall header: %w", err)
	}

	stateIdx, yearIdx, rainIdx := -1, -1, -1
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		switch {
		case stateIdx < 0 && strings.Contains(name, "state"):
			stateIdx = i
		case yearIdx < 0 && strings.Contains(name, "year"):
			yearIdx = i
		case rainIdx < 0 && (strings.Contains(name, "rain") || strings.Contains(name, "avg")):
			rainIdx = i
		}
	}
	if stateIdx < 0 || yearIdx < 0 || rainIdx < 0 {
		return nil, fmt.Errorf("rainfall dataset missing required columns (state/year/rainfall), got headers: %s",
			strings.Join(header, ", "))
	}

	var records []RainfallRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rainfall row: %w", err)
		}
		if len(row) <= stateIdx || len(row) <= yearIdx || len(row) <= rainIdx {
			continue
		}

		state := strings.TrimSpace(row[stateIdx])
		if state == "" {
			continue
		}

		year, ok := parseYear(row[yearIdx])
		if !ok {
			continue
		}

		rainfall, ok := parseNumber(row[rainIdx])
		if !ok || rainfall < 0 {
			continue
		}

		records = append(records, RainfallRecord{
			State:      state,
			Year:       year,
			RainfallMM: rainfall,
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("rainfall dataset contained no parseable rows")
	}

	return records, nil
}

// ParseCropCSV parses the wide-format crop production dataset, where each
// column names a crop and a fiscal year ("Rice-2014-15-(Th. tonnes)") and
// each row is a state. The wide columns are melted into long CropRecord rows
// keyed by (state, crop, year); duplicate keys are summed.
func ParseCropCSV(r io.Reader) ([]CropRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read crop header: %w", err)
	}

	stateIdx := -1
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if strings.Contains(name, "state") || strings.Contains(name, "name") {
			stateIdx = i
			break
		}
	}
	if stateIdx < 0 {
		return nil, fmt.Errorf("crop dataset missing state column, got headers: %s",
			strings.Join(header, ", "))
	}

	// Resolve each data column to a (crop, year) pair up front
	type columnKey struct {
		crop string
		year int
	}
	columns := make(map[int]columnKey)
	for i, col := range header {
		if i == stateIdx {
			continue
		}
		crop, year, ok := parseCropColumn(col)
		if !ok {
			continue
		}
		columns[i] = columnKey{crop: crop, year: year}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("crop dataset contained no recognizable crop-year columns")
	}

	type recordKey struct {
		state string
		crop  string
		year  int
	}
	totals := make(map[recordKey]float64)
	display := make(map[string]string)

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read crop row: %w", err)
		}
		if len(row) <= stateIdx {
			continue
		}

		state := strings.TrimSpace(row[stateIdx])
		if state == "" || isCategoryToken(state) {
			continue
		}
		norm := NormalizeState(state)
		display[norm] = state

		for i, key := range columns {
			if len(row) <= i {
				continue
			}
			value, ok := parseNumber(row[i])
			if !ok || value <= 0 {
				continue
			}
			totals[recordKey{state: norm, crop: key.crop, year: key.year}] += value
		}
	}

	if len(totals) == 0 {
		return nil, fmt.Errorf("crop dataset contained no parseable rows")
	}

	records := make([]CropRecord, 0, len(totals))
	for key, total := range totals {
		records = append(records, CropRecord{
			State:                    display[key.state],
			Crop:                     key.crop,
			Year:                     key.year,
			ProductionThousandTonnes: total,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].State != records[j].State {
			return records[i].State < records[j].State
		}
		if records[i].Crop != records[j].Crop {
			return records[i].Crop < records[j].Crop
		}
		return records[i].Year < records[j].Year
	})

	return records, nil
}

// parseCropColumn extracts the crop name and start year from a wide-format
// column header. Fiscal year spans resolve to their start year (2014-15 -> 2014).
func parseCropColumn(col string) (string, int, bool) {
	yearMatch := fiscalYearRe.FindStringSubmatch(col)
	if yearMatch == nil {
		return "", 0, false
	}
	year, err := strconv.Atoi(yearMatch[1])
	if err != nil {
		return "", 0, false
	}

	cleaned := fiscalYearRe.ReplaceAllString(col, "")
	cleaned = parenRe.ReplaceAllString(cleaned, "")

	// Pick the last hyphen-separated segment that is not a category or unit
	crop := ""
	for _, part := range strings.Split(cleaned, "-") {
		part = strings.TrimSpace(part)
		if part == "" || isCategoryToken(part) {
			continue
		}
		crop = part
	}
	if crop == "" {
		return "", 0, false
	}

	return titleCase(crop), year, true
}

// isCategoryToken reports whether s names a dataset category or unit rather
// than a crop or state.
func isCategoryToken(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, token := range categoryTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// parseYear parses a year cell, tolerating float formatting ("2014.0")
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if year, err := strconv.Atoi(s); err == nil {
		if year >= 1800 && year <= 2200 {
			return year, true
		}
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		year := int(f)
		if year >= 1800 && year <= 2200 {
			return year, true
		}
	}
	return 0, false
}

// parseNumber parses a numeric cell, tolerating thousands separators and the
// dataset's NA markers.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "NA", "N/A", "#", "-", "*":
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// titleCase uppercases the first letter of each word, matching how the
// original dataset prints crop names.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
