package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunInfo struct {
	report RunReport
	ok     bool
}

func (s stubRunInfo) LastRun() (RunReport, bool) { return s.report, s.ok }

func TestHealthService_Check(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "CN.m3u")
	require.NoError(t, os.WriteFile(output, []byte("#EXTM3U\n"), 0o644))
	finished := time.Now()

	tests := []struct {
		name       string
		runs       RunInfo
		output     string
		wantStatus string
		wantRun    string
		wantOutput string
	}{
		{
			name:       "healthy",
			runs:       stubRunInfo{report: RunReport{FinishedAt: finished, Source: "http://a"}, ok: true},
			output:     output,
			wantStatus: StatusOK,
			wantRun:    StatusOK,
			wantOutput: StatusOK,
		},
		{
			name:       "no run yet but playlist from a previous process",
			runs:       stubRunInfo{},
			output:     output,
			wantStatus: StatusOK,
			wantRun:    StatusPending,
			wantOutput: StatusOK,
		},
		{
			name:       "last run failed",
			runs:       stubRunInfo{report: RunReport{FinishedAt: finished, Err: errors.New("exhausted")}, ok: true},
			output:     output,
			wantStatus: StatusDegraded,
			wantRun:    StatusError,
			wantOutput: StatusOK,
		},
		{
			name:       "missing output",
			runs:       stubRunInfo{report: RunReport{FinishedAt: finished}, ok: true},
			output:     filepath.Join(dir, "missing.m3u"),
			wantStatus: StatusDegraded,
			wantRun:    StatusOK,
			wantOutput: StatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewHealthService(tt.runs, tt.output).Check(context.Background())
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantRun, got.LastRun.Status)
			assert.Equal(t, tt.wantOutput, got.Output.Status)
		})
	}
}
