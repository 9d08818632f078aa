package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/taskforge/taskforge-api/internal/api/shared"
	"github.com/taskforge/taskforge-api/internal/domain"
	"github.com/taskforge/taskforge-api/internal/platform/logger"
	"github.com/taskforge/taskforge-api/internal/redact"
	"github.com/taskforge/taskforge-api/internal/service"
)

// MetricsResponse is the public projection of aggregate metrics.
type MetricsResponse struct {
	TotalUsers     int       `json:"total_users"`
	TotalTasks     int       `json:"total_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
	ActiveTasks    int       `json:"active_tasks"`
	ComputedAt     time.Time `json:"computed_at"`
}

// NewMetricsResponse builds a MetricsResponse from domain metrics.
func NewMetricsResponse(m *domain.Metrics) MetricsResponse {
	return MetricsResponse{
		TotalUsers:     m.TotalUsers,
		TotalTasks:     m.TotalTasks,
		CompletedTasks: m.CompletedTasks,
		ActiveTasks:    m.ActiveTasks,
		ComputedAt:     m.ComputedAt,
	}
}

// MetricsHandler handles the aggregate metrics endpoint.
type MetricsHandler struct {
	metrics *service.MetricsService
	logger  *slog.Logger
}

// NewMetricsHandler creates a new MetricsHandler with the given dependencies.
func NewMetricsHandler(metrics *service.MetricsService, log *slog.Logger) *MetricsHandler {
	if log == nil {
		log = slog.Default()
	}

	return &MetricsHandler{
		metrics: metrics,
		logger:  log.With(slog.String("component", "metrics_handler")),
	}
}

// GetMetrics handles GET /metrics. The service already degrades to the
// stored snapshot, so an error here means both paths failed.
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.metrics.Get(r.Context())
	if err != nil {
		log := logger.FromContextOrDefault(r.Context(), h.logger)
		log.Error("failed to load metrics", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to load metrics")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewMetricsResponse(metrics))
}
