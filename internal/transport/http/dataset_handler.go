package http

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/render"

	apierrors "sharkclean/internal/errors"
	"sharkclean/internal/middleware"
	api "sharkclean/pkg/contracts/api/v1"
	"sharkclean/pkg/contracts/domain"
)

// DatasetService lists and profiles raw datasets
type DatasetService interface {
	List(ctx context.Context) ([]os.FileInfo, error)
	Profile(ctx context.Context, name, sheet string, threshold int) (domain.DatasetProfile, error)
}

// DatasetHandler handles dataset-related HTTP requests
type DatasetHandler struct {
	service   DatasetService
	validator *middleware.Validator
	errors    *apierrors.ErrorHandler
	logger    *slog.Logger
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service DatasetService, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *DatasetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetHandler{
		service:   service,
		validator: validator,
		errors:    errorHandler,
		logger:    logger.With(slog.String("handler", "dataset")),
	}
}

// List handles GET /api/v1/datasets
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.List(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	resp := api.DatasetListResponse{Datasets: make([]api.DatasetInfo, 0, len(files))}
	for _, f := range files {
		resp.Datasets = append(resp.Datasets, api.DatasetInfo{
			Name:     f.Name(),
			Size:     f.Size(),
			Modified: f.ModTime().UTC(),
		})
	}
	render.JSON(w, r, resp)
}

// Profile handles GET /api/v1/profile?input=GSAF5.xlsx
func (h *DatasetHandler) Profile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := api.ProfileRequest{Input: q.Get("input"), Sheet: q.Get("sheet")}
	if raw := q.Get("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.errors.HandleError(w, r, apierrors.ErrValidation("threshold", "threshold must be a number"))
			return
		}
		req.Threshold = n
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	profile, err := h.service.Profile(r.Context(), req.Input, req.Sheet, req.Threshold)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, profile)
}
