package driver

import (
	"net/http"
	"time"

	"github.com/alorle/iptv-selector/internal/application"
)

// HealthHTTPHandler handles HTTP requests for health checks.
type HealthHTTPHandler struct {
	service *application.HealthService
}

// NewHealthHTTPHandler creates a new HTTP handler for health checks.
func NewHealthHTTPHandler(service *application.HealthService) *HealthHTTPHandler {
	return &HealthHTTPHandler{service: service}
}

// healthResponse represents the JSON response for health check endpoint.
type healthResponse struct {
	Status     string `json:"status"`
	LastRun    string `json:"last_run"`
	Output     string `json:"output"`
	Error      string `json:"error,omitempty"`
	LastRunAt  string `json:"last_run_at,omitempty"`
	LastSource string `json:"last_source,omitempty"`
}

// ServeHTTP handles GET /health
func (h *HealthHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.service.Check(r.Context())

	resp := healthResponse{
		Status:     status.Status,
		LastRun:    status.LastRun.Status,
		Output:     status.Output.Status,
		LastSource: status.LastSource,
	}
	if status.LastRun.Error != "" {
		resp.Error = status.LastRun.Error
	} else if status.Output.Error != "" {
		resp.Error = status.Output.Error
	}
	if !status.LastRunAt.IsZero() {
		resp.LastRunAt = status.LastRunAt.Format(time.RFC3339)
	}

	httpStatus := http.StatusOK
	if status.Status != application.StatusOK {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, resp)
}
