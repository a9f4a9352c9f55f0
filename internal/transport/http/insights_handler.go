package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "samarth/internal/errors"
	"samarth/internal/exporter"
	"samarth/internal/services"
)

// Defaults applied when the optional window parameters are omitted
const (
	defaultLastNYears = 5
	defaultTopM       = 5
)

// InsightsHandler handles the analysis HTTP requests with RFC 7807 errors
type InsightsHandler struct {
	service      InsightsServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewInsightsHandler creates an insights handler
func NewInsightsHandler(service InsightsServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *InsightsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InsightsHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "insights_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the insights routes
func (h *InsightsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/rainfall/compare", h.CompareRainfall)
	r.Get("/crops/top", h.TopCrops)
	r.Post("/query", h.Query)
	r.Get("/export/{kind}", h.Export)

	return r
}

// CompareRainfall handles GET /api/insights/rainfall/compare
func (h *InsightsHandler) CompareRainfall(w http.ResponseWriter, r *http.Request) {
	params, err := rainfallParamsFromQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.CompareRainfall(r.Context(), params)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// TopCrops handles GET /api/insights/crops/top
func (h *InsightsHandler) TopCrops(w http.ResponseWriter, r *http.Request) {
	params, err := cropParamsFromQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.TopCrops(r.Context(), params)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// queryRequest is the POST /api/insights/query body
type queryRequest struct {
	Question string `json:"question"`
}

// Query handles POST /api/insights/query
func (h *InsightsHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameterError("body", "request body must be JSON with a question field"))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameterError("question", "question must not be empty"))
		return
	}

	result, err := h.service.Answer(r.Context(), req.Question)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// Export handles GET /api/insights/export/{kind}. Kind selects the analysis
// (rainfall or crops) and format selects csv or xlsx, defaulting to csv.
func (h *InsightsHandler) Export(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameterError("format", fmt.Sprintf("unsupported export format %q", format)))
		return
	}

	var (
		doc *exporter.Document
		err error
	)
	switch kind {
	case "rainfall":
		var params services.RainfallCompareParams
		params, err = rainfallParamsFromQuery(r)
		if err == nil {
			doc, err = h.service.ExportRainfall(r.Context(), params)
		}
	case "crops":
		var params services.TopCropsParams
		params, err = cropParamsFromQuery(r)
		if err == nil {
			doc, err = h.service.ExportTopCrops(r.Context(), params)
		}
	default:
		err = apierrors.InvalidParameterError("kind", fmt.Sprintf("unsupported export kind %q", kind))
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filename := fmt.Sprintf("%s_%s.%s", kind, time.Now().UTC().Format("20060102"), format)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if format == "xlsx" {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = exporter.WriteXLSX(w, *doc)
	} else {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		err = exporter.WriteCSV(w, *doc, exporter.WriteOptions{BOMPrefix: true})
	}
	if err != nil {
		// Headers are already sent; log instead of writing a problem body
		h.logger.ErrorContext(r.Context(), "export write failed",
			slog.String("kind", kind),
			slog.String("format", format),
			slog.String("error", err.Error()),
		)
	}
}

// rainfallParamsFromQuery reads state_x, state_y and years
func rainfallParamsFromQuery(r *http.Request) (services.RainfallCompareParams, error) {
	years, err := intQueryParam(r, "years", defaultLastNYears)
	if err != nil {
		return services.RainfallCompareParams{}, err
	}
	return services.RainfallCompareParams{
		StateX:     r.URL.Query().Get("state_x"),
		StateY:     r.URL.Query().Get("state_y"),
		LastNYears: years,
	}, nil
}

// cropParamsFromQuery reads state, years and limit
func cropParamsFromQuery(r *http.Request) (services.TopCropsParams, error) {
	years, err := intQueryParam(r, "years", defaultLastNYears)
	if err != nil {
		return services.TopCropsParams{}, err
	}
	limit, err := intQueryParam(r, "limit", defaultTopM)
	if err != nil {
		return services.TopCropsParams{}, err
	}
	return services.TopCropsParams{
		State:      r.URL.Query().Get("state"),
		LastNYears: years,
		TopM:       limit,
	}, nil
}

// intQueryParam parses an optional integer query parameter
func intQueryParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.InvalidParameterError(name, fmt.Sprintf("%s must be an integer, got %q", name, raw))
	}
	return value, nil
}
