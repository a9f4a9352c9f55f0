package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "samarth/internal/errors"
)

// ReferenceHandler serves the state and crop name lists the UI uses to
// populate its selectors
type ReferenceHandler struct {
	service      InsightsServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReferenceHandler creates a reference data handler
func NewReferenceHandler(service InsightsServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReferenceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReferenceHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "reference_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the reference data routes
func (h *ReferenceHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/states", h.States)
	r.Get("/crops", h.Crops)

	return r
}

// States handles GET /api/reference/states
func (h *ReferenceHandler) States(w http.ResponseWriter, r *http.Request) {
	states, err := h.service.States(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string][]string{"states": states})
}

// Crops handles GET /api/reference/crops
func (h *ReferenceHandler) Crops(w http.ResponseWriter, r *http.Request) {
	crops, err := h.service.CropNames(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string][]string{"crops": crops})
}
