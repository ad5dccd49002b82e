package driver

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alorle/iptv-selector/internal/application"
	"github.com/alorle/iptv-selector/logging"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) (application.RunReport, error)
}

// RunHTTPHandler triggers an immediate pipeline run.
type RunHTTPHandler struct {
	runner Runner
	logger logrus.FieldLogger
}

// NewRunHTTPHandler creates a new HTTP handler for manual runs.
func NewRunHTTPHandler(runner Runner, logger logrus.FieldLogger) *RunHTTPHandler {
	return &RunHTTPHandler{runner: runner, logger: logger}
}

// runResponse represents the outcome of a triggered run in JSON format.
type runResponse struct {
	RunID      string  `json:"run_id"`
	Status     string  `json:"status"`
	Source     string  `json:"source,omitempty"`
	Throughput float64 `json:"throughput,omitempty"`
	Channels   int     `json:"channels"`
	Duplicates int     `json:"duplicates"`
	DurationMS int64   `json:"duration_ms"`
}

// ServeHTTP handles POST /run
func (h *RunHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	report, err := h.runner.Run(r.Context())
	if err != nil {
		logging.WriteJSONError(w, h.logger, "run failed: "+err.Error(), http.StatusBadGateway, logrus.Fields{"run_id": report.RunID})
		return
	}

	logging.WriteJSONSuccess(w, h.logger, runResponse{
		RunID:      report.RunID,
		Status:     "completed",
		Source:     report.Source,
		Throughput: report.Throughput,
		Channels:   report.Summary.Counts.Total(),
		Duplicates: report.Summary.Duplicates,
		DurationMS: report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond).Milliseconds(),
	})
}
