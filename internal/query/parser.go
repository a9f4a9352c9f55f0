package query

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrUnrecognized is returned when a question cannot be mapped to one of the
// supported analyses.
var ErrUnrecognized = errors.New("unrecognized question")

// Intent identifies which analysis a question asks for
type Intent string

const (
	IntentRainfallComparison Intent = "rainfall_comparison"
	IntentCropRanking        Intent = "crop_ranking"
)

// Request is the structured analysis request extracted from a question
type Request struct {
	Intent     Intent   `json:"intent"`
	States     []string `json:"states"`
	LastNYears int      `json:"last_n_years"`
	TopM       int      `json:"top_m"`
	Question   string   `json:"question"`
}

const (
	defaultYears = 5
	defaultTopM  = 5
	maxTopM      = 10
	maxYears     = 20
)

var (
	lastNYearsRe = regexp.MustCompile(`last\s+(\d+)\s+years?`)
	topMRe       = regexp.MustCompile(`(?:top|first|best)\s+(\d+)`)
	mCropsRe     = regexp.MustCompile(`(\d+)\s+crops`)
)

// rainfallWords and cropWords decide the question's intent
var (
	rainfallWords = []string{"rain", "rainfall", "monsoon", "precipitation"}
	cropWords     = []string{"crop", "production", "produce", "grown", "harvest"}
)

// abbreviations maps common state short forms to full names. Matching uses
// word boundaries so "up" in "supper" or "upper" never counts.
var abbreviations = map[string]string{
	"up": "Uttar Pradesh",
	"mp": "Madhya Pradesh",
	"hp": "Himachal Pradesh",
	"wb": "West Bengal",
	"tn": "Tamil Nadu",
	"ap": "Andhra Pradesh",
}

var abbreviationPatterns = compileAbbreviations()

func compileAbbreviations() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(abbreviations))
	for abbrev := range abbreviations {
		patterns[abbrev] = regexp.MustCompile(`\b` + abbrev + `\b`)
	}
	return patterns
}

// Parser maps free-text questions onto structured analysis requests. State
// names are matched against the loaded tables so only states that actually
// exist in the data are recognized.
type Parser struct {
	states []string
}

// NewParser creates a parser recognizing the given state names
func NewParser(states []string) *Parser {
	return &Parser{states: states}
}

// Parse extracts intent, states and numeric parameters from a question
func (p *Parser) Parse(question string) (*Request, error) {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return nil, fmt.Errorf("%w: question is empty", ErrUnrecognized)
	}

	req := &Request{
		States:     p.extractStates(q),
		LastNYears: extractYears(q),
		TopM:       extractTopM(q),
		Question:   question,
	}

	switch {
	case containsAny(q, rainfallWords):
		req.Intent = IntentRainfallComparison
	case containsAny(q, cropWords):
		req.Intent = IntentCropRanking
	default:
		return nil, fmt.Errorf("%w: ask about rainfall or crop production", ErrUnrecognized)
	}

	if err := p.validate(req, q); err != nil {
		return nil, err
	}
	return req, nil
}

func (p *Parser) validate(req *Request, q string) error {
	switch req.Intent {
	case IntentRainfallComparison:
		if len(req.States) < 2 {
			return fmt.Errorf("%w: a rainfall comparison needs two states, found %d", ErrUnrecognized, len(req.States))
		}
		req.States = req.States[:2]
	case IntentCropRanking:
		if len(req.States) == 0 {
			return fmt.Errorf("%w: a crop ranking needs a state", ErrUnrecognized)
		}
		req.States = req.States[:1]
	}
	return nil
}

// extractStates finds known state names in the question, in order of first
// appearance, with common abbreviations expanded.
func (p *Parser) extractStates(q string) []string {
	type hit struct {
		pos  int
		name string
	}
	var hits []hit
	seen := make(map[string]struct{})

	for _, state := range p.states {
		idx := strings.Index(q, strings.ToLower(state))
		if idx < 0 {
			continue
		}
		if _, dup := seen[state]; dup {
			continue
		}
		seen[state] = struct{}{}
		hits = append(hits, hit{pos: idx, name: state})
	}

	for abbrev, full := range abbreviations {
		if _, dup := seen[full]; dup {
			continue
		}
		if loc := abbreviationPatterns[abbrev].FindStringIndex(q); loc != nil {
			seen[full] = struct{}{}
			hits = append(hits, hit{pos: loc[0], name: full})
		}
	}

	// Order by appearance so "X vs Y" keeps X first
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	states := make([]string, len(hits))
	for i, h := range hits {
		states[i] = h.name
	}
	return states
}

func extractYears(q string) int {
	if m := lastNYearsRe.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			if n > maxYears {
				return maxYears
			}
			return n
		}
	}
	return defaultYears
}

func extractTopM(q string) int {
	for _, re := range []*regexp.Regexp{topMRe, mCropsRe} {
		if m := re.FindStringSubmatch(q); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				if n > maxTopM {
					return maxTopM
				}
				return n
			}
		}
	}
	return defaultTopM
}

func containsAny(q string, words []string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}
