package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alorle/iptv-selector/internal/m3u"
)

func tsPayload(packets int) []byte {
	b := make([]byte, 188*packets)
	for i := 0; i < len(b); i += 188 {
		b[i] = 0x47
	}
	return b
}

// newCandidateServer serves a playlist at /list.m3u whose CCTV5 stream
// answers with status and body.
func newCandidateServer(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/list.m3u":
			fmt.Fprintf(w, "#EXTM3U\n"+
				"#EXTINF:-1 tvg-id=\"CCTV5\" group-title=\"央视\",CCTV-5 体育\n%[1]s/cctv5\n"+
				"#EXTINF:-1 tvg-id=\"湖南卫视\",湖南卫视高清\n%[1]s/hunan\n"+
				"#EXTINF:-1 tvg-id=\"CCTV-1高清\",CCTV-1 综合\n%[1]s/cctv1\n", srv.URL)
		case "/cctv5":
			w.WriteHeader(status)
			_, _ = w.Write(body)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(args, &stdout, &stderr)
	return code, stdout.String() + stderr.String()
}

func baseArgs(output string, candidates ...*httptest.Server) []string {
	args := []string{"--candidate-list", "none", "--output", output, "--log-level", "error"}
	for _, c := range candidates {
		args = append(args, "--candidate", c.URL+"/list.m3u")
	}
	return args
}

func TestRunSelectsWorkingCandidate(t *testing.T) {
	broken := newCandidateServer(t, http.StatusOK, nil)
	working := newCandidateServer(t, http.StatusOK, tsPayload(500))
	output := filepath.Join(t.TempDir(), "CN.m3u")

	code, out := runCLI(t, append([]string{"run"}, baseArgs(output, broken, working)...)...)
	require.Equal(t, exitOK, code, out)

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	pl, dropped := m3u.Parse(string(data))
	assert.Zero(t, dropped)
	require.Len(t, pl.Entries, 3)
	assert.Equal(t, "CCTV1", pl.Entries[0].RawID)
	assert.Equal(t, "CCTV5", pl.Entries[1].RawID)
	assert.Equal(t, working.URL+"/cctv5", pl.Entries[1].URL)
	assert.Equal(t, "湖南卫视", pl.Entries[2].RawID)
}

func TestRunWithoutWorkingCandidateWritesNothing(t *testing.T) {
	a := newCandidateServer(t, http.StatusNotFound, nil)
	b := newCandidateServer(t, http.StatusOK, nil)
	output := filepath.Join(t.TempDir(), "CN.m3u")

	code, _ := runCLI(t, baseArgs(output, a, b)...)
	assert.Equal(t, exitFailed, code)

	_, err := os.Stat(output)
	assert.True(t, os.IsNotExist(err))
}

func TestRunFallbackMode(t *testing.T) {
	working := newCandidateServer(t, http.StatusOK, tsPayload(50))
	output := filepath.Join(t.TempDir(), "CN.m3u")

	code, out := runCLI(t, append([]string{"run", "--mode", "fallback"}, baseArgs(output, working)...)...)
	require.Equal(t, exitOK, code, out)

	_, err := os.Stat(output)
	assert.NoError(t, err)
}

func TestNoCandidates(t *testing.T) {
	output := filepath.Join(t.TempDir(), "CN.m3u")

	code, _ := runCLI(t, baseArgs(output)...)
	assert.Equal(t, exitFailed, code)
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"invalid mode", []string{"run", "--mode", "turbo"}},
		{"missing config file", []string{"run", "--config", filepath.Join(t.TempDir(), "missing.yaml")}},
		{"history without database", []string{"history", "--db", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := runCLI(t, tt.args...)
			assert.Equal(t, exitConfig, code)
		})
	}
}

func TestHistoryAfterRun(t *testing.T) {
	working := newCandidateServer(t, http.StatusOK, tsPayload(200))
	dir := t.TempDir()
	output := filepath.Join(dir, "CN.m3u")
	db := filepath.Join(dir, "history.db")

	code, out := runCLI(t, append([]string{"run", "--db", db}, baseArgs(output, working)...)...)
	require.Equal(t, exitOK, code, out)

	code, out = runCLI(t, "history", "--db", db, "--log-level", "error")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, working.URL+"/list.m3u")
	assert.Contains(t, out, "100%")

	code, out = runCLI(t, "history", "--db", db, "--source", working.URL+"/list.m3u", "--log-level", "error")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "speed")
}

func TestConfigCommandPrintsOverrides(t *testing.T) {
	code, out := runCLI(t, "config", "--mode", "fallback", "--reference", "CCTV13")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "mode: fallback")
	assert.Contains(t, out, "referenceChannel: CCTV13")
}

func TestStartRefreshSharesScheduledJobGuard(t *testing.T) {
	var runs atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	id, err := scheduler.AddFunc("@every 1h", func() {
		if runs.Add(1) == 1 {
			close(started)
		}
		<-release
	})
	require.NoError(t, err)

	wait := startRefresh(scheduler, id)
	<-started

	// A tick while the startup run is in flight is skipped.
	scheduler.Entry(id).WrappedJob.Run()
	assert.Equal(t, int32(1), runs.Load())

	close(release)
	wait()
	assert.Equal(t, int32(1), runs.Load())
}
