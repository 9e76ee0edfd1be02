package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// RFC 7807 problem types
const (
	TypeValidation       = "/errors/validation"
	TypeNotFound         = "/errors/not-found"
	TypeRateLimit        = "/errors/rate-limit"
	TypeInternal         = "/errors/internal"
	TypeServiceDown      = "/errors/service-unavailable"
	TypeTimeout          = "/errors/timeout"
	TypePayloadTooLarge  = "/errors/payload-too-large"
	TypeMethodNotAllowed = "/errors/method-not-allowed"

	TypeJobNotFound       = "/errors/job/not-found"
	TypeJobConflict       = "/errors/job/conflict"
	TypeUnsupportedFormat = "/errors/data/unsupported-format"
	TypeDataCorrupted     = "/errors/data/corrupted"
	TypeStorage           = "/errors/data/storage"
	TypeUpstream          = "/errors/upstream"
)

var problemTypeForCode = map[string]string{
	CodeInvalidRequest:    TypeValidation,
	CodeValidationFailed:  TypeValidation,
	CodeNotFound:          TypeNotFound,
	CodeJobNotFound:       TypeJobNotFound,
	CodeUnsupportedFormat: TypeUnsupportedFormat,
	CodeUnsupportedMedia:  TypeUnsupportedFormat,
	CodeRateLimited:       TypeRateLimit,
	CodeQueueFull:         TypeServiceDown,
	CodeQueueStopped:      TypeServiceDown,
}

// appProblem is how one AppError type is exposed over HTTP. A non-empty
// detail replaces the error message, which may name server paths.
type appProblem struct {
	status      int
	problemType string
	detail      string
}

var appProblems = map[ErrorType]appProblem{
	ErrTypeValidation:  {status: http.StatusBadRequest, problemType: TypeValidation},
	ErrTypeNotFound:    {status: http.StatusNotFound, problemType: TypeNotFound},
	ErrTypeConflict:    {status: http.StatusConflict, problemType: TypeJobConflict},
	ErrTypeUnsupported: {status: http.StatusUnsupportedMediaType, problemType: TypeUnsupportedFormat},
	ErrTypeParsing:     {status: http.StatusUnprocessableEntity, problemType: TypeDataCorrupted},
	ErrTypeNetwork:     {status: http.StatusBadGateway, problemType: TypeUpstream},
	ErrTypeStorage:     {status: http.StatusInternalServerError, problemType: TypeStorage, detail: "A storage error occurred"},
}

const internalDetail = "An unexpected error occurred while processing your request"

// ErrorHandler turns errors into RFC 7807 responses
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler. includeStack adds the
// goroutine stack to every problem and is meant for development only.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError logs err and writes it as a problem response
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if h.includeStack {
		problem.WithExtension("stack", getStackTrace())
	}
	render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	var (
		maxBytes *http.MaxBytesError
		apiErr   *APIError
		appErr   *AppError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return h.problem(r, http.StatusGatewayTimeout, TypeTimeout,
			"The request took too long to process and was cancelled")

	case errors.As(err, &maxBytes):
		return h.problem(r, http.StatusRequestEntityTooLarge, TypePayloadTooLarge,
			fmt.Sprintf("The request body exceeds the limit of %d bytes", maxBytes.Limit))

	case errors.As(err, &apiErr):
		problemType, ok := problemTypeForCode[apiErr.ErrorCode]
		if !ok {
			problemType = TypeInternal
		}
		problem := h.problem(r, apiErr.StatusCode, problemType, apiErr.Message).
			WithExtension("error_code", apiErr.ErrorCode)
		if apiErr.Details != nil {
			problem.WithExtension("details", apiErr.Details)
		}
		return problem

	case errors.As(err, &appErr):
		return h.appErrorToProblem(appErr, r)
	}

	return h.problem(r, http.StatusInternalServerError, TypeInternal, internalDetail)
}

func (h *ErrorHandler) appErrorToProblem(appErr *AppError, r *http.Request) *ProblemDetails {
	mapping, ok := appProblems[appErr.Type]
	if !ok {
		mapping = appProblem{status: http.StatusInternalServerError, problemType: TypeInternal, detail: internalDetail}
	}
	if appErr.Type == ErrTypeNotFound && appErr.Context["resource"] == "job" {
		mapping.problemType = TypeJobNotFound
	}

	detail := mapping.detail
	if detail == "" {
		detail = appErr.Message
	}
	problem := h.problem(r, mapping.status, mapping.problemType, detail).
		WithExtension("error_type", string(appErr.Type))

	// context may carry file paths; only client errors expose it
	if mapping.status < http.StatusInternalServerError {
		for k, v := range appErr.Context {
			problem.WithExtension(k, v)
		}
	}
	return problem
}

// problem builds a problem for r carrying its request ID as trace_id
func (h *ErrorHandler) problem(r *http.Request, status int, problemType, detail string) *ProblemDetails {
	return NewProblemDetails(status, problemType, http.StatusText(status), detail, r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context()))
}

// HandlePanic logs a recovered panic and answers 500
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := h.problem(r, http.StatusInternalServerError, TypeInternal, "An unexpected error occurred")
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", getStackTrace())
	}
	render.Render(w, r, problem)
}

// NotFound is the router's 404 handler
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, h.problem(r, http.StatusNotFound, TypeNotFound, "The requested resource was not found"))
}

// MethodNotAllowed is the router's 405 handler
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, h.problem(r, http.StatusMethodNotAllowed, TypeMethodNotAllowed,
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method)))
}

func getStackTrace() string {
	buf := make([]byte, 8<<10)
	return string(buf[:runtime.Stack(buf, false)])
}
