package handlers

import (
	"net/http"

	"github.com/ramonehamilton/LoL-Companion/internal/api/response"
	"github.com/ramonehamilton/LoL-Companion/internal/metrics"
)

// MetricsService exposes engine counters.
type MetricsService interface {
	Stats() *metrics.Stats
}

// MetricsHandler handles metrics-related API requests.
type MetricsHandler struct {
	service MetricsService
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(service MetricsService) *MetricsHandler {
	return &MetricsHandler{service: service}
}

// GetMetrics returns a point-in-time copy of the engine metrics.
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.service.Stats())
}
