package application

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alorle/iptv-selector/internal/candidate"
	"github.com/alorle/iptv-selector/internal/probe"
)

// mockPlaylistFetcher implements driven.PlaylistFetcher for testing.
type mockPlaylistFetcher struct {
	fetchTextFunc func(ctx context.Context, url string) (string, error)
	forgetFunc    func(url string)
	resetFunc     func()
}

func (m *mockPlaylistFetcher) FetchText(ctx context.Context, url string) (string, error) {
	if m.fetchTextFunc != nil {
		return m.fetchTextFunc(ctx, url)
	}
	return "", nil
}

func (m *mockPlaylistFetcher) Forget(url string) {
	if m.forgetFunc != nil {
		m.forgetFunc(url)
	}
}

func (m *mockPlaylistFetcher) Reset() {
	if m.resetFunc != nil {
		m.resetFunc()
	}
}

// mockStreamProber implements driven.StreamProber for testing.
type mockStreamProber struct {
	probeFunc func(ctx context.Context, url string, budget time.Duration) probe.Result
}

func (m *mockStreamProber) Probe(ctx context.Context, url string, budget time.Duration) probe.Result {
	if m.probeFunc != nil {
		return m.probeFunc(ctx, url, budget)
	}
	return probe.Failed("not configured")
}

// mockReachabilityChecker implements driven.ReachabilityChecker for testing.
type mockReachabilityChecker struct {
	checkFunc func(ctx context.Context, url string) (bool, error)
}

func (m *mockReachabilityChecker) Check(ctx context.Context, url string) (bool, error) {
	if m.checkFunc != nil {
		return m.checkFunc(ctx, url)
	}
	return false, nil
}

// mockTimedDownloader implements driven.TimedDownloader for testing.
type mockTimedDownloader struct {
	downloadFunc func(ctx context.Context, url string, d time.Duration) (int64, bool, error)
}

func (m *mockTimedDownloader) Download(ctx context.Context, url string, d time.Duration) (int64, bool, error) {
	if m.downloadFunc != nil {
		return m.downloadFunc(ctx, url, d)
	}
	return 0, false, nil
}

// mockCandidateDiscoverer implements driven.CandidateDiscoverer for testing.
type mockCandidateDiscoverer struct {
	discoverFunc func(ctx context.Context) ([]candidate.Source, error)
}

func (m *mockCandidateDiscoverer) Discover(ctx context.Context) ([]candidate.Source, error) {
	if m.discoverFunc != nil {
		return m.discoverFunc(ctx)
	}
	return nil, nil
}

// mockPlaylistWriter implements driven.PlaylistWriter for testing.
type mockPlaylistWriter struct {
	writeFunc func(ctx context.Context, path string, data []byte) error
}

func (m *mockPlaylistWriter) Write(ctx context.Context, path string, data []byte) error {
	if m.writeFunc != nil {
		return m.writeFunc(ctx, path, data)
	}
	return nil
}

// mockProbeRepository implements driven.ProbeRepository for testing.
type mockProbeRepository struct {
	saveFunc              func(ctx context.Context, r probe.Record) error
	findBySourceFunc      func(ctx context.Context, source string) ([]probe.Record, error)
	findBySourceSinceFunc func(ctx context.Context, source string, since time.Time) ([]probe.Record, error)
	sourcesFunc           func(ctx context.Context) ([]string, error)
	deleteBeforeFunc      func(ctx context.Context, before time.Time) error
}

func (m *mockProbeRepository) Save(ctx context.Context, r probe.Record) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, r)
	}
	return nil
}

func (m *mockProbeRepository) FindBySource(ctx context.Context, source string) ([]probe.Record, error) {
	if m.findBySourceFunc != nil {
		return m.findBySourceFunc(ctx, source)
	}
	return []probe.Record{}, nil
}

func (m *mockProbeRepository) FindBySourceSince(ctx context.Context, source string, since time.Time) ([]probe.Record, error) {
	if m.findBySourceSinceFunc != nil {
		return m.findBySourceSinceFunc(ctx, source, since)
	}
	return []probe.Record{}, nil
}

func (m *mockProbeRepository) Sources(ctx context.Context) ([]string, error) {
	if m.sourcesFunc != nil {
		return m.sourcesFunc(ctx)
	}
	return []string{}, nil
}

func (m *mockProbeRepository) DeleteBefore(ctx context.Context, before time.Time) error {
	if m.deleteBeforeFunc != nil {
		return m.deleteBeforeFunc(ctx, before)
	}
	return nil
}

// recordingRecorder captures Recorder calls.
type recordingRecorder struct {
	mu         sync.Mutex
	candidates []string
	skips      []string
	runs       []string
	channels   int
}

func (r *recordingRecorder) RecordCandidate(mode, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates = append(r.candidates, mode+":"+outcome)
}

func (r *recordingRecorder) RecordSkip(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skips = append(r.skips, reason)
}

func (r *recordingRecorder) SetThroughput(string, float64) {}

func (r *recordingRecorder) RecordLineup(channels, _ int, _ map[string]int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = channels
}

func (r *recordingRecorder) RecordRun(result string, _, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, result)
}

func newTestLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
