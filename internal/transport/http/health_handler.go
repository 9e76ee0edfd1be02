package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"sharkclean/internal/services"
)

// readinessRetry is advertised to orchestrators when the service is not ready
const readinessRetry = 10 * time.Second

// HealthHandler serves the liveness, readiness, version and stats endpoints
type HealthHandler struct {
	service *services.HealthService
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service *services.HealthService, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	render.JSON(w, r, h.service.HealthCheck(r.Context()))
}

// ReadinessCheck handles GET /api/health/ready. A job queue with no free
// slot or an unusable data directory answers 503 with Retry-After.
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	status := h.service.ReadinessCheck(r.Context())
	if status.Status != "ready" {
		w.Header().Set("Retry-After", strconv.Itoa(int(readinessRetry.Seconds())))
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}

// LivenessCheck handles GET /api/health/live
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	render.JSON(w, r, h.service.LivenessCheck(r.Context()))
}

// Version handles GET /api/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Version())
}

// Stats handles GET /api/v1/stats: data directory counts, queue occupancy
// and connected websocket clients.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	render.JSON(w, r, h.service.SystemStats(r.Context()))
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}
