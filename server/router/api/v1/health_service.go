package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/danya1a/Reminder-bot/internal/version"
	"github.com/danya1a/Reminder-bot/server/internal/observability"
)

// HealthResponse reports process health.
type HealthResponse struct {
	Healthy     bool                           `json:"healthy"`
	Version     string                         `json:"version"`
	PendingJobs int                            `json:"pending_jobs"`
	Metrics     *observability.MetricsSnapshot `json:"metrics,omitempty"`
	// DeliverySuccessRate is a percentage of delivery attempts.
	DeliverySuccessRate float64 `json:"delivery_success_rate,omitempty"`
}

// Healthz reports whether the scheduler is running.
// GET /healthz
func (s *APIV1Service) Healthz(c echo.Context) error {
	resp := HealthResponse{
		Healthy:     s.Scheduler.IsRunning(),
		Version:     version.Version,
		PendingJobs: s.Scheduler.Len(),
	}
	if s.Metrics != nil {
		snapshot := s.Metrics.Snapshot()
		resp.Metrics = &snapshot
		resp.DeliverySuccessRate = snapshot.DeliverySuccessRate()
	}
	if !resp.Healthy {
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
