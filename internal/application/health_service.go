package application

import (
	"context"
	"os"
	"time"
)

// Health status values.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusDegraded = "degraded"
	StatusPending  = "pending"
)

// RunInfo exposes the most recent pipeline run.
type RunInfo interface {
	LastRun() (RunReport, bool)
}

// HealthService reports whether the published playlist is fresh.
type HealthService struct {
	runs   RunInfo
	output string
}

// NewHealthService creates a new health check service.
func NewHealthService(runs RunInfo, output string) *HealthService {
	return &HealthService{
		runs:   runs,
		output: output,
	}
}

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	Status string // "ok", "pending" or "error"
	Error  string // empty unless status is "error"
}

// HealthStatus represents the overall health status of the application.
type HealthStatus struct {
	Status     string          // "ok" if all components are healthy, "degraded" otherwise
	LastRun    ComponentHealth // most recent pipeline run
	Output     ComponentHealth // published playlist file
	LastRunAt  time.Time
	LastSource string
}

// Check inspects the last run and the output file.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status: StatusOK,
	}

	// Last pipeline run
	if report, ok := s.runs.LastRun(); !ok {
		status.LastRun = ComponentHealth{Status: StatusPending}
	} else if report.Err != nil {
		status.LastRun = ComponentHealth{Status: StatusError, Error: report.Err.Error()}
		status.LastRunAt = report.FinishedAt
		status.Status = StatusDegraded
	} else {
		status.LastRun = ComponentHealth{Status: StatusOK}
		status.LastRunAt = report.FinishedAt
		status.LastSource = report.Source
	}

	// Output playlist
	if _, err := os.Stat(s.output); err != nil {
		status.Output = ComponentHealth{Status: StatusError, Error: err.Error()}
		status.Status = StatusDegraded
	} else {
		status.Output = ComponentHealth{Status: StatusOK}
	}

	return status
}
