package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "sharkclean/internal/errors"
	"sharkclean/internal/middleware"
	api "sharkclean/pkg/contracts/api/v1"
	"sharkclean/pkg/contracts/domain"
)

// Classifier buckets raw time values
type Classifier interface {
	Classify(ctx context.Context, values []domain.Value) ([]domain.TimeCategory, map[string]int, error)
}

// ClassifyHandler serves the time bucket classifier
type ClassifyHandler struct {
	classifier Classifier
	validator  *middleware.Validator
	errors     *apierrors.ErrorHandler
	logger     *slog.Logger
}

// NewClassifyHandler creates a new classify handler
func NewClassifyHandler(classifier Classifier, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *ClassifyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassifyHandler{
		classifier: classifier,
		validator:  validator,
		errors:     errorHandler,
		logger:     logger.With(slog.String("handler", "classify")),
	}
}

// Classify handles POST /api/v1/time/classify. The response holds one code
// per input value, in order.
func (h *ClassifyHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req api.ClassifyRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	categories, counts, err := h.classifier.Classify(r.Context(), req.Values)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "classify request served", slog.Int("values", len(req.Values)))
	render.JSON(w, r, api.ClassifyResponse{Categories: categories, Counts: counts})
}
