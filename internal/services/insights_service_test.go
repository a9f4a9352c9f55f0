package services

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"samarth/internal/config"
	"samarth/internal/dataset"
	apierrors "samarth/internal/errors"
)

const rainfallFixture = `State,Year,Annual Rainfall (mm)
Maharashtra,2018,900
Maharashtra,2019,1100
Maharashtra,2020,1200
Kerala,2019,3000
Kerala,2020,3200
`

const cropFixture = `State Name,Wheat-2013-14,Wheat-2014-15,Rice-2014-15,Cotton-2014-15
Punjab,16000,15000,11000,1200
Kerala,,,560,
`

func newTestService(t *testing.T) *InsightsService {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		Paths: config.PathsConfig{DataDir: dir},
		Datasets: config.DatasetsConfig{
			RainfallFile: "rainfall_data.csv",
			CropFile:     "crop_production.csv",
			FetchTimeout: 5 * time.Second,
		},
	}
	require.NoError(t, os.WriteFile(cfg.RainfallPath(), []byte(rainfallFixture), 0644))
	require.NoError(t, os.WriteFile(cfg.CropPath(), []byte(cropFixture), 0644))

	return NewInsightsService(cfg, dataset.NewLoader(cfg, nil), nil)
}

func apiErrorCode(t *testing.T, err error) string {
	t.Helper()
	apiErr, ok := err.(*apierrors.APIError)
	require.True(t, ok, "expected *APIError, got %T: %v", err, err)
	return apiErr.ErrorCode
}

func TestCompareRainfall(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	result, err := svc.CompareRainfall(ctx, RainfallCompareParams{
		StateX:     "Maharashtra",
		StateY:     "Kerala",
		LastNYears: 2,
	})
	require.NoError(t, err)

	require.NotNil(t, result.Comparison.StateX.AverageMM)
	require.NotNil(t, result.Comparison.StateY.AverageMM)
	assert.InDelta(t, 1150.0, *result.Comparison.StateX.AverageMM, 0.0001)
	assert.InDelta(t, 3100.0, *result.Comparison.StateY.AverageMM, 0.0001)

	require.NotNil(t, result.PieChart)
	assert.Equal(t, []string{"Maharashtra", "Kerala"}, result.PieChart.Labels)
	assert.Contains(t, result.DataSource, "IMD")
}

func TestCompareRainfallOneSideMissingOmitsPie(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.CompareRainfall(context.Background(), RainfallCompareParams{
		StateX:     "Maharashtra",
		StateY:     "Sikkim",
		LastNYears: 2,
	})
	require.NoError(t, err)
	assert.Nil(t, result.PieChart)
	assert.Nil(t, result.Comparison.StateY.AverageMM)
}

func TestCompareRainfallValidation(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name   string
		params RainfallCompareParams
	}{
		{"missing state", RainfallCompareParams{StateY: "Kerala", LastNYears: 5}},
		{"zero years", RainfallCompareParams{StateX: "Maharashtra", StateY: "Kerala"}},
		{"negative years", RainfallCompareParams{StateX: "Maharashtra", StateY: "Kerala", LastNYears: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CompareRainfall(context.Background(), tt.params)
			require.Error(t, err)
			assert.Equal(t, "INVALID_PARAMETER", apiErrorCode(t, err))
		})
	}
}

func TestCompareRainfallNoMatchingData(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CompareRainfall(context.Background(), RainfallCompareParams{
		StateX:     "Sikkim",
		StateY:     "Tripura",
		LastNYears: 5,
	})
	require.Error(t, err)
	assert.Equal(t, "NO_MATCHING_DATA", apiErrorCode(t, err))
}

func TestTopCrops(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.TopCrops(context.Background(), TopCropsParams{
		State:      "Punjab",
		LastNYears: 2,
		TopM:       2,
	})
	require.NoError(t, err)

	require.Len(t, result.Crops, 2)
	assert.Equal(t, "Wheat", result.Crops[0].Crop)
	assert.Equal(t, 31000.0, result.Crops[0].TotalProduction)
	assert.Equal(t, "Rice", result.Crops[1].Crop)
	assert.Equal(t, "Thousand Tonnes", result.Unit)

	require.NotNil(t, result.BarChart)
	assert.Equal(t, []string{"Wheat", "Rice"}, result.BarChart.Labels)
	assert.Equal(t, []float64{31000, 11000}, result.BarChart.Values)
}

func TestTopCropsValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.TopCrops(context.Background(), TopCropsParams{State: "Punjab", LastNYears: 5})
	require.Error(t, err)
	assert.Equal(t, "INVALID_PARAMETER", apiErrorCode(t, err))
}

func TestDataUnavailable(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Paths: config.PathsConfig{DataDir: dir},
		Datasets: config.DatasetsConfig{
			RainfallFile:      "rainfall_data.csv",
			CropFile:          "crop_production.csv",
			FetchTimeout:      time.Second,
			RainfallManualURL: "https://data.gov.in/resource/daily-district-wise-rainfall-data",
		},
	}
	svc := NewInsightsService(cfg, dataset.NewLoader(cfg, nil), nil)

	_, err := svc.CompareRainfall(context.Background(), RainfallCompareParams{
		StateX:     "Maharashtra",
		StateY:     "Kerala",
		LastNYears: 5,
	})
	require.Error(t, err)

	apiErr, ok := err.(*apierrors.APIError)
	require.True(t, ok)
	assert.Equal(t, "DATA_UNAVAILABLE", apiErr.ErrorCode)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestAnswerRainfallQuestion(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Answer(context.Background(), "compare rainfall in Maharashtra vs Kerala over the last 2 years")
	require.NoError(t, err)

	require.NotNil(t, result.Rainfall)
	assert.Nil(t, result.Crops)
	assert.Equal(t, []string{"Maharashtra", "Kerala"}, result.Request.States)
}

func TestAnswerCropQuestion(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Answer(context.Background(), "top 2 crops in Punjab over the last 2 years")
	require.NoError(t, err)

	require.NotNil(t, result.Crops)
	assert.Nil(t, result.Rainfall)
	assert.Equal(t, "Wheat", result.Crops.Crops[0].Crop)
}

func TestAnswerUnrecognizedQuestion(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Answer(context.Background(), "what is the meaning of life")
	require.Error(t, err)
	assert.Equal(t, "INVALID_PARAMETER", apiErrorCode(t, err))
}

func TestStatesAndCrops(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	states, err := svc.States(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kerala", "Maharashtra", "Punjab"}, states)

	crops, err := svc.CropNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cotton", "Rice", "Wheat"}, crops)
}

func TestExportTopCrops(t *testing.T) {
	svc := newTestService(t)

	doc, err := svc.ExportTopCrops(context.Background(), TopCropsParams{
		State:      "Punjab",
		LastNYears: 2,
		TopM:       3,
	})
	require.NoError(t, err)

	assert.Equal(t, "Top Crops in Punjab", doc.Title)
	require.NotEmpty(t, doc.Rows)
	assert.Equal(t, []string{"Wheat", "31000.00"}, doc.Rows[0])
}

func TestExportRainfall(t *testing.T) {
	svc := newTestService(t)

	doc, err := svc.ExportRainfall(context.Background(), RainfallCompareParams{
		StateX:     "Maharashtra",
		StateY:     "Sikkim",
		LastNYears: 2,
	})
	require.NoError(t, err)

	require.Len(t, doc.Rows, 2)
	assert.Equal(t, []string{"Maharashtra", "1150.00"}, doc.Rows[0])
	assert.Equal(t, []string{"Sikkim", "N/A"}, doc.Rows[1])
}

func TestHealthService(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Paths: config.PathsConfig{DataDir: dir},
		Datasets: config.DatasetsConfig{
			RainfallFile: "rainfall_data.csv",
			CropFile:     "crop_production.csv",
		},
	}
	loader := dataset.NewLoader(cfg, nil)
	health := NewHealthService(loader, nil)

	status := health.Status(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.False(t, status.DatasetsCached)

	require.NoError(t, os.WriteFile(cfg.RainfallPath(), []byte(rainfallFixture), 0644))
	require.NoError(t, os.WriteFile(cfg.CropPath(), []byte(cropFixture), 0644))

	status = health.Status(context.Background())
	assert.True(t, status.DatasetsCached)
}
