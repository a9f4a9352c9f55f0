package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"

	"samarth/internal/analytics"
	"samarth/internal/config"
	"samarth/internal/dataset"
	apierrors "samarth/internal/errors"
	"samarth/internal/exporter"
	"samarth/internal/query"
)

// Dataset citations surfaced with every result
const (
	rainfallCitation = "Rainfall Data - India Meteorological Department (IMD) (data.gov.in)"
	cropCitation     = "Crop Production Statistics - Ministry of Agriculture & Farmers Welfare (data.gov.in)"
)

// productionUnit is the unit of the crop production dataset
const productionUnit = "Thousand Tonnes"

// RainfallCompareParams are the structured parameters of a rainfall comparison
type RainfallCompareParams struct {
	StateX     string `json:"state_x" validate:"required"`
	StateY     string `json:"state_y" validate:"required"`
	LastNYears int    `json:"last_n_years" validate:"required,gt=0,lte=50"`
}

// TopCropsParams are the structured parameters of a crop ranking
type TopCropsParams struct {
	State      string `json:"state" validate:"required"`
	LastNYears int    `json:"last_n_years" validate:"required,gt=0,lte=50"`
	TopM       int    `json:"top_m" validate:"required,gt=0,lte=50"`
}

// ChartSeries is a label/value series ready for the charting layer
type ChartSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// RainfallComparisonResult is the full response of a rainfall comparison.
// PieChart is nil when the averages cannot form a meaningful proportion
// (missing side or non-positive sum).
type RainfallComparisonResult struct {
	Comparison *analytics.RainfallComparison `json:"comparison"`
	PieChart   *ChartSeries                  `json:"pie_chart,omitempty"`
	DataSource string                        `json:"data_source"`
}

// CropRankingResult is the full response of a top-crops ranking
type CropRankingResult struct {
	State      string                `json:"state"`
	LastNYears int                   `json:"last_n_years"`
	Crops      []analytics.CropTotal `json:"crops"`
	Unit       string                `json:"unit"`
	BarChart   *ChartSeries          `json:"bar_chart"`
	DataSource string                `json:"data_source"`
}

// QueryResult pairs a parsed question with the analysis it resolved to.
// Exactly one of Rainfall and Crops is set, matching the request intent.
type QueryResult struct {
	Request  *query.Request            `json:"request"`
	Rainfall *RainfallComparisonResult `json:"rainfall,omitempty"`
	Crops    *CropRankingResult        `json:"crops,omitempty"`
}

// InsightsService orchestrates dataset loading, aggregation and export
type InsightsService struct {
	cfg      *config.Config
	loader   *dataset.Loader
	validate *validator.Validate
	logger   *slog.Logger

	parserMu sync.Mutex
	parser   *query.Parser
}

// NewInsightsService creates the insights service
func NewInsightsService(cfg *config.Config, loader *dataset.Loader, logger *slog.Logger) *InsightsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InsightsService{
		cfg:      cfg,
		loader:   loader,
		validate: validator.New(),
		logger:   logger.With(slog.String("component", "insights_service")),
	}
}

// CompareRainfall computes the two-state average rainfall comparison
func (s *InsightsService) CompareRainfall(ctx context.Context, params RainfallCompareParams) (*RainfallComparisonResult, error) {
	if err := s.validateParams(params); err != nil {
		return nil, err
	}

	records, err := s.loader.LoadRainfall(ctx)
	if err != nil {
		return nil, apierrors.DataUnavailableError("rainfall", s.cfg.Datasets.RainfallManualURL, err)
	}

	comparison, err := analytics.CompareRainfall(records, params.StateX, params.StateY, params.LastNYears)
	if err != nil {
		return nil, s.mapAnalyticsError(err)
	}

	s.logger.InfoContext(ctx, "rainfall comparison computed",
		slog.String("state_x", params.StateX),
		slog.String("state_y", params.StateY),
		slog.Int("last_n_years", params.LastNYears),
	)

	return &RainfallComparisonResult{
		Comparison: comparison,
		PieChart:   rainfallPieChart(comparison),
		DataSource: rainfallCitation,
	}, nil
}

// TopCrops computes the ranked crop totals for a state
func (s *InsightsService) TopCrops(ctx context.Context, params TopCropsParams) (*CropRankingResult, error) {
	if err := s.validateParams(params); err != nil {
		return nil, err
	}

	records, err := s.loader.LoadCrops(ctx)
	if err != nil {
		return nil, apierrors.DataUnavailableError("crop production", s.cfg.Datasets.CropManualURL, err)
	}

	crops, err := analytics.TopCrops(records, params.State, params.LastNYears, params.TopM)
	if err != nil {
		return nil, s.mapAnalyticsError(err)
	}

	s.logger.InfoContext(ctx, "crop ranking computed",
		slog.String("state", params.State),
		slog.Int("last_n_years", params.LastNYears),
		slog.Int("top_m", params.TopM),
	)

	labels := make([]string, len(crops))
	values := make([]float64, len(crops))
	for i, c := range crops {
		labels[i] = c.Crop
		values[i] = c.TotalProduction
	}

	return &CropRankingResult{
		State:      params.State,
		LastNYears: params.LastNYears,
		Crops:      crops,
		Unit:       productionUnit,
		BarChart:   &ChartSeries{Labels: labels, Values: values},
		DataSource: cropCitation,
	}, nil
}

// Answer parses a free-text question and runs the analysis it asks for
func (s *InsightsService) Answer(ctx context.Context, question string) (*QueryResult, error) {
	parser, err := s.queryParser(ctx)
	if err != nil {
		return nil, err
	}

	req, err := parser.Parse(question)
	if err != nil {
		return nil, apierrors.InvalidParameterError("question", err.Error())
	}

	result := &QueryResult{Request: req}
	switch req.Intent {
	case query.IntentRainfallComparison:
		result.Rainfall, err = s.CompareRainfall(ctx, RainfallCompareParams{
			StateX:     req.States[0],
			StateY:     req.States[1],
			LastNYears: req.LastNYears,
		})
	case query.IntentCropRanking:
		result.Crops, err = s.TopCrops(ctx, TopCropsParams{
			State:      req.States[0],
			LastNYears: req.LastNYears,
			TopM:       req.TopM,
		})
	default:
		err = apierrors.InvalidParameterError("question", fmt.Sprintf("unsupported intent %q", req.Intent))
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// States returns the distinct states across both datasets
func (s *InsightsService) States(ctx context.Context) ([]string, error) {
	tables, err := s.tables(ctx)
	if err != nil {
		return nil, err
	}
	return tables.States(), nil
}

// CropNames returns the distinct crops in the crop dataset
func (s *InsightsService) CropNames(ctx context.Context) ([]string, error) {
	records, err := s.loader.LoadCrops(ctx)
	if err != nil {
		return nil, apierrors.DataUnavailableError("crop production", s.cfg.Datasets.CropManualURL, err)
	}
	tables := &dataset.Tables{Crops: records}
	return tables.CropNames(), nil
}

// ExportRainfall renders a rainfall comparison as an export document
func (s *InsightsService) ExportRainfall(ctx context.Context, params RainfallCompareParams) (*exporter.Document, error) {
	result, err := s.CompareRainfall(ctx, params)
	if err != nil {
		return nil, err
	}

	doc := &exporter.Document{
		Title:   "Rainfall Comparison",
		Headers: []string{"State", "Average Rainfall (mm)"},
	}
	for _, side := range []analytics.StateRainfall{result.Comparison.StateX, result.Comparison.StateY} {
		avg := "N/A"
		if side.AverageMM != nil {
			avg = strconv.FormatFloat(*side.AverageMM, 'f', 2, 64)
		}
		doc.Rows = append(doc.Rows, []string{side.State, avg})
	}
	return doc, nil
}

// ExportTopCrops renders a crop ranking as an export document
func (s *InsightsService) ExportTopCrops(ctx context.Context, params TopCropsParams) (*exporter.Document, error) {
	result, err := s.TopCrops(ctx, params)
	if err != nil {
		return nil, err
	}

	doc := &exporter.Document{
		Title:   fmt.Sprintf("Top Crops in %s", params.State),
		Headers: []string{"Crop", fmt.Sprintf("Total Production (%s)", productionUnit)},
	}
	for _, c := range result.Crops {
		doc.Rows = append(doc.Rows, []string{c.Crop, strconv.FormatFloat(c.TotalProduction, 'f', 2, 64)})
	}
	return doc, nil
}

// tables loads both datasets
func (s *InsightsService) tables(ctx context.Context) (*dataset.Tables, error) {
	rainfall, err := s.loader.LoadRainfall(ctx)
	if err != nil {
		return nil, apierrors.DataUnavailableError("rainfall", s.cfg.Datasets.RainfallManualURL, err)
	}
	crops, err := s.loader.LoadCrops(ctx)
	if err != nil {
		return nil, apierrors.DataUnavailableError("crop production", s.cfg.Datasets.CropManualURL, err)
	}
	return &dataset.Tables{Rainfall: rainfall, Crops: crops}, nil
}

// queryParser lazily builds the question parser from the loaded tables.
// Load failures are not cached so a later request can succeed once the
// datasets become reachable.
func (s *InsightsService) queryParser(ctx context.Context) (*query.Parser, error) {
	s.parserMu.Lock()
	defer s.parserMu.Unlock()
	if s.parser != nil {
		return s.parser, nil
	}

	tables, err := s.tables(ctx)
	if err != nil {
		return nil, err
	}
	s.parser = query.NewParser(tables.States())
	return s.parser, nil
}

// validateParams turns struct tag violations into invalid-parameter errors
func (s *InsightsService) validateParams(params interface{}) error {
	err := s.validate.Struct(params)
	if err == nil {
		return nil
	}

	var violations validator.ValidationErrors
	if errors.As(err, &violations) && len(violations) > 0 {
		v := violations[0]
		return apierrors.InvalidParameterError(v.Field(),
			fmt.Sprintf("parameter %s failed %s validation", v.Field(), v.Tag()))
	}
	return apierrors.ErrInvalidParameter
}

// mapAnalyticsError converts analytics sentinels into API errors
func (s *InsightsService) mapAnalyticsError(err error) error {
	switch {
	case errors.Is(err, analytics.ErrInvalidParameter):
		return apierrors.InvalidParameterError("parameters", err.Error())
	case errors.Is(err, analytics.ErrNoMatchingData):
		return apierrors.NoMatchingDataError(err.Error(), nil)
	default:
		return err
	}
}

// rainfallPieChart builds the proportional pie series when meaningful
func rainfallPieChart(c *analytics.RainfallComparison) *ChartSeries {
	if c.StateX.AverageMM == nil || c.StateY.AverageMM == nil {
		return nil
	}
	if *c.StateX.AverageMM+*c.StateY.AverageMM <= 0 {
		return nil
	}
	return &ChartSeries{
		Labels: []string{c.StateX.State, c.StateY.State},
		Values: []float64{*c.StateX.AverageMM, *c.StateY.AverageMM},
	}
}
