package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apierrors "sharkclean/internal/errors"
	"sharkclean/internal/infrastructure"
	"sharkclean/internal/middleware"
	"sharkclean/internal/operations"
	api "sharkclean/pkg/contracts/api/v1"
)

// JobService is the job queue as seen by the HTTP layer
type JobService interface {
	Enqueue(ctx context.Context, job *operations.Job) (*operations.Job, error)
	GetJob(id string) (*operations.Job, error)
	ListJobs(filter operations.JobFilter) ([]*operations.Job, error)
	CancelJob(id string) (*operations.Job, error)
	GetQueueStats() map[string]int
}

// DatasetChecker confirms a raw dataset exists before a job is queued
type DatasetChecker interface {
	Exists(name string) error
}

// JobsHandler handles cleaning job requests
type JobsHandler struct {
	jobs          JobService
	datasets      DatasetChecker
	validator     *middleware.Validator
	errors        *apierrors.ErrorHandler
	defaultImpute bool
	logger        *slog.Logger
}

// NewJobsHandler creates a new jobs handler. defaultImpute applies when a
// request leaves impute unset.
func NewJobsHandler(jobs JobService, datasets DatasetChecker, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, defaultImpute bool, logger *slog.Logger) *JobsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobsHandler{
		jobs:          jobs,
		datasets:      datasets,
		validator:     validator,
		errors:        errorHandler,
		defaultImpute: defaultImpute,
		logger:        logger.With(slog.String("handler", "jobs")),
	}
}

// Routes returns a chi router for job endpoints
func (h *JobsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(middleware.ContentTypeValidator(h.errors, "application/json")).Post("/", h.Submit)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Cancel)
	return r
}

// Submit handles POST /api/v1/jobs
func (h *JobsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(middleware.TracerName).Start(r.Context(), "jobs_handler.submit")
	defer span.End()

	var req api.CleanJobRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	if err := h.datasets.Exists(req.Input); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	impute := h.defaultImpute
	if req.Impute != nil {
		impute = *req.Impute
	}

	job, err := h.jobs.Enqueue(ctx, &operations.Job{
		Source: operations.SourceAPI,
		Input:  req.Input,
		Options: operations.JobOptions{
			Sheet:        req.Sheet,
			Output:       req.Output,
			Impute:       impute,
			Summary:      req.Summary,
			ExportCSV:    req.ExportCSV,
			PushToSheets: req.PushToSheets,
		},
	})
	if err != nil {
		span.RecordError(err)
		h.errors.HandleError(w, r, err)
		return
	}

	span.SetAttributes(attribute.String("job.id", job.ID), attribute.String("job.input", job.Input))
	h.logger.InfoContext(ctx, "cleaning job submitted",
		slog.String("job_id", job.ID),
		slog.String("input", job.Input),
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("trace_id", infrastructure.TraceIDFromContext(ctx)))

	w.Header().Set("Location", "/api/v1/jobs/"+job.ID)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, jobResponse(job))
}

// List handles GET /api/v1/jobs
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	req := api.JobListRequest{Status: r.URL.Query().Get("status")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			h.errors.HandleError(w, r, apierrors.ErrValidation("limit", "limit must be a number"))
			return
		}
		req.Limit = limit
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	jobs, err := h.jobs.ListJobs(operations.JobFilter{
		Status: operations.JobStatus(req.Status),
		Limit:  req.Limit,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	resp := api.JobListResponse{
		Jobs:  make([]api.JobResponse, 0, len(jobs)),
		Total: len(jobs),
		Queue: h.jobs.GetQueueStats(),
	}
	for _, job := range jobs {
		// Listings stay small; reports come with the single-job view.
		item := jobResponse(job)
		item.Report = nil
		resp.Jobs = append(resp.Jobs, item)
	}
	render.JSON(w, r, resp)
}

// Get handles GET /api/v1/jobs/{id}
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}
	job, err := h.jobs.GetJob(id)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, jobResponse(job))
}

// Cancel handles DELETE /api/v1/jobs/{id}
func (h *JobsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	trace.SpanFromContext(r.Context()).AddEvent("job.cancel", trace.WithAttributes(attribute.String("job.id", id)))
	job, err := h.jobs.CancelJob(id)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "cleaning job cancelled",
		slog.String("job_id", id),
		slog.String("status", string(job.Status)))
	render.JSON(w, r, jobResponse(job))
}

func (h *JobsHandler) jobID(w http.ResponseWriter, r *http.Request) (string, bool) {
	req := api.JobIDRequest{ID: chi.URLParam(r, "id")}
	if err := h.validator.Struct(&req); err != nil {
		h.errors.HandleError(w, r, err)
		return "", false
	}
	return req.ID, true
}

func jobResponse(job *operations.Job) api.JobResponse {
	return api.JobResponse{
		ID:          job.ID,
		Source:      string(job.Source),
		Input:       job.Input,
		Outputs:     job.Outputs,
		Status:      string(job.Status),
		Progress:    job.Progress,
		Message:     job.Message,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		Report:      job.Report,
	}
}
