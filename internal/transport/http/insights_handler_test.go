package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "samarth/internal/errors"
	"samarth/internal/exporter"
	"samarth/internal/services"
)

// mockInsightsService lets each test stub only the methods it exercises
type mockInsightsService struct {
	compareRainfall func(ctx context.Context, params services.RainfallCompareParams) (*services.RainfallComparisonResult, error)
	topCrops        func(ctx context.Context, params services.TopCropsParams) (*services.CropRankingResult, error)
	answer          func(ctx context.Context, question string) (*services.QueryResult, error)
	states          func(ctx context.Context) ([]string, error)
	cropNames       func(ctx context.Context) ([]string, error)
	exportRainfall  func(ctx context.Context, params services.RainfallCompareParams) (*exporter.Document, error)
	exportTopCrops  func(ctx context.Context, params services.TopCropsParams) (*exporter.Document, error)
}

func (m *mockInsightsService) CompareRainfall(ctx context.Context, params services.RainfallCompareParams) (*services.RainfallComparisonResult, error) {
	return m.compareRainfall(ctx, params)
}

func (m *mockInsightsService) TopCrops(ctx context.Context, params services.TopCropsParams) (*services.CropRankingResult, error) {
	return m.topCrops(ctx, params)
}

func (m *mockInsightsService) Answer(ctx context.Context, question string) (*services.QueryResult, error) {
	return m.answer(ctx, question)
}

func (m *mockInsightsService) States(ctx context.Context) ([]string, error) {
	return m.states(ctx)
}

func (m *mockInsightsService) CropNames(ctx context.Context) ([]string, error) {
	return m.cropNames(ctx)
}

func (m *mockInsightsService) ExportRainfall(ctx context.Context, params services.RainfallCompareParams) (*exporter.Document, error) {
	return m.exportRainfall(ctx, params)
}

func (m *mockInsightsService) ExportTopCrops(ctx context.Context, params services.TopCropsParams) (*exporter.Document, error) {
	return m.exportTopCrops(ctx, params)
}

func newTestRouter(svc InsightsServiceInterface) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := apierrors.NewErrorHandler(logger, false)
	handler := NewInsightsHandler(svc, logger, errorHandler)

	r := chi.NewRouter()
	r.Mount("/api/insights", handler.Routes())
	return r
}

func TestTopCropsEndpoint(t *testing.T) {
	svc := &mockInsightsService{
		topCrops: func(ctx context.Context, params services.TopCropsParams) (*services.CropRankingResult, error) {
			assert.Equal(t, "Punjab", params.State)
			assert.Equal(t, 10, params.LastNYears)
			assert.Equal(t, 3, params.TopM)
			return &services.CropRankingResult{
				State:      params.State,
				LastNYears: params.LastNYears,
				Unit:       "Thousand Tonnes",
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/insights/crops/top?state=Punjab&years=10&limit=3", nil)
	newTestRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Punjab", body["state"])
}

func TestTopCropsEndpointDefaults(t *testing.T) {
	svc := &mockInsightsService{
		topCrops: func(ctx context.Context, params services.TopCropsParams) (*services.CropRankingResult, error) {
			assert.Equal(t, defaultLastNYears, params.LastNYears)
			assert.Equal(t, defaultTopM, params.TopM)
			return &services.CropRankingResult{}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/insights/crops/top?state=Punjab", nil)
	newTestRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTopCropsEndpointBadYears(t *testing.T) {
	svc := &mockInsightsService{
		topCrops: func(ctx context.Context, params services.TopCropsParams) (*services.CropRankingResult, error) {
			t.Fatal("service must not be called on parse failure")
			return nil, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/insights/crops/top?state=Punjab&years=soon", nil)
	newTestRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_PARAMETER")
}

func TestCompareRainfallEndpointNoData(t *testing.T) {
	svc := &mockInsightsService{
		compareRainfall: func(ctx context.Context, params services.RainfallCompareParams) (*services.RainfallComparisonResult, error) {
			return nil, apierrors.NoMatchingDataError("no rainfall rows for the requested states", nil)
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/insights/rainfall/compare?state_x=Atlantis&state_y=Lemuria", nil)
	newTestRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "/errors/data/no-matching", problem["type"])
	assert.Equal(t, "NO_MATCHING_DATA", problem["error_code"])
}

func TestQueryEndpoint(t *testing.T) {
	svc := &mockInsightsService{
		answer: func(ctx context.Context, question string) (*services.QueryResult, error) {
			assert.Equal(t, "top 3 crops in Punjab", question)
			return &services.QueryResult{}, nil
		},
	}

	payload, _ := json.Marshal(map[string]string{"question": "top 3 crops in Punjab"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/insights/query", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQueryEndpointEmptyQuestion(t *testing.T) {
	svc := &mockInsightsService{}

	payload, _ := json.Marshal(map[string]string{"question": "   "})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/insights/query", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportCSV(t *testing.T) {
	svc := &mockInsightsService{
		exportTopCrops: func(ctx context.Context, params services.TopCropsParams) (*exporter.Document, error) {
			return &exporter.Document{
				Title:   "Top Crops in Punjab",
				Headers: []string{"Crop", "Total Production (Thousand Tonnes)"},
				Rows:    [][]string{{"Wheat", "31000.00"}},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/insights/export/crops?state=Punjab&years=2&limit=5", nil)
	newTestRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "Wheat,31000.00")
}

func TestExportXLSX(t *testing.T) {
	svc := &mockInsightsService{
		exportRainfall: func(ctx context.Context, params services.RainfallCompareParams) (*exporter.Document, error) {
			return &exporter.Document{
				Title:   "Rainfall Comparison",
				Headers: []string{"State", "Average Rainfall (mm)"},
				Rows:    [][]string{{"Kerala", "3100.00"}},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/insights/export/rainfall?state_x=Kerala&state_y=Punjab&format=xlsx", nil)
	newTestRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.NotZero(t, rec.Body.Len())
}

func TestExportUnknownKind(t *testing.T) {
	svc := &mockInsightsService{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/insights/export/livestock", nil)
	newTestRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportUnknownFormat(t *testing.T) {
	svc := &mockInsightsService{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/insights/export/crops?format=pdf", nil)
	newTestRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReferenceEndpoints(t *testing.T) {
	svc := &mockInsightsService{
		states: func(ctx context.Context) ([]string, error) {
			return []string{"Kerala", "Punjab"}, nil
		},
		cropNames: func(ctx context.Context) ([]string, error) {
			return []string{"Rice", "Wheat"}, nil
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := apierrors.NewErrorHandler(logger, false)
	handler := NewReferenceHandler(svc, logger, errorHandler)

	r := chi.NewRouter()
	r.Mount("/api/reference", handler.Routes())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reference/states", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"Kerala", "Punjab"}, body["states"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reference/crops", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"Rice", "Wheat"}, body["crops"])
}
