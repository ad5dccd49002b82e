package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alorle/iptv-selector/internal/candidate"
	"github.com/alorle/iptv-selector/internal/m3u"
	"github.com/alorle/iptv-selector/internal/probe"
)

type pipelineFixture struct {
	discoverer *mockCandidateDiscoverer
	fetcher    *mockPlaylistFetcher
	prober     *mockStreamProber
	writer     *mockPlaylistWriter
	recorder   *recordingRecorder
	written    map[string]string
}

func newPipelineFixture(t *testing.T, playlists map[string]string, urls ...string) *pipelineFixture {
	t.Helper()
	sources := newTestSources(t, urls...)
	f := &pipelineFixture{
		discoverer: &mockCandidateDiscoverer{
			discoverFunc: func(ctx context.Context) ([]candidate.Source, error) { return sources, nil },
		},
		fetcher:  staticFetcher(playlists),
		prober:   &mockStreamProber{},
		recorder: &recordingRecorder{},
		written:  map[string]string{},
	}
	f.writer = &mockPlaylistWriter{
		writeFunc: func(ctx context.Context, path string, data []byte) error {
			f.written[path] = string(data)
			return nil
		},
	}
	return f
}

func (f *pipelineFixture) service(t *testing.T, history *HistoryService) *PipelineService {
	t.Helper()
	selection := NewSelectionService(f.fetcher, f.prober, nil, nil, nil, newTestNormalizer(t), f.recorder,
		newTestLogger(), SelectionOptions{Mode: candidate.ModeSpeed, Budget: time.Second, ReferenceChannel: "CCTV5"})
	return NewPipelineService(f.discoverer, f.fetcher, selection, newTestPlaylistService(t), f.writer, history,
		f.recorder, newTestLogger(), PipelineOptions{OutputPath: "CN.m3u", PreviewSize: 3})
}

func TestPipelineService_Run(t *testing.T) {
	t.Run("writes the playlist of the selected candidate", func(t *testing.T) {
		f := newPipelineFixture(t, map[string]string{
			"http://list/a": playlistA,
			"http://list/b": playlistB,
		}, "http://list/a", "http://list/b")
		f.prober.probeFunc = func(ctx context.Context, url string, budget time.Duration) probe.Result {
			if strings.HasPrefix(url, "http://a/") {
				return probe.Failed("no bytes received")
			}
			return measured(50 * 1024)
		}

		svc := f.service(t, nil)
		report, err := svc.Run(context.Background())
		require.NoError(t, err)

		assert.NotEmpty(t, report.RunID)
		assert.True(t, report.Succeeded())
		assert.Equal(t, "http://list/b", report.Source)
		assert.Equal(t, 2, report.Summary.Counts.Total())

		out, ok := f.written["CN.m3u"]
		require.True(t, ok)
		parsed, dropped := m3u.Parse(out)
		assert.Zero(t, dropped)
		require.Len(t, parsed.Entries, 2)
		assert.Equal(t, "CCTV5", parsed.Entries[0].RawID)
		assert.Equal(t, "CCTV5+", parsed.Entries[1].RawID)

		assert.Equal(t, []string{"success"}, f.recorder.runs)
		assert.Equal(t, 2, f.recorder.channels)

		last, ok := svc.LastRun()
		require.True(t, ok)
		assert.Equal(t, report.RunID, last.RunID)
	})

	t.Run("nothing written when every candidate fails", func(t *testing.T) {
		f := newPipelineFixture(t, map[string]string{
			"http://list/a": playlistA,
			"http://list/b": playlistB,
		}, "http://list/a", "http://list/b")
		f.prober.probeFunc = func(ctx context.Context, url string, budget time.Duration) probe.Result {
			return probe.Failed("connection refused")
		}

		svc := f.service(t, nil)
		report, err := svc.Run(context.Background())
		assert.ErrorIs(t, err, candidate.ErrExhausted)
		assert.False(t, report.Succeeded())
		assert.Empty(t, f.written)
		assert.Equal(t, []string{"failure"}, f.recorder.runs)

		last, ok := svc.LastRun()
		require.True(t, ok)
		assert.ErrorIs(t, last.Err, candidate.ErrExhausted)
	})

	t.Run("no candidates discovered", func(t *testing.T) {
		f := newPipelineFixture(t, nil)

		_, err := f.service(t, nil).Run(context.Background())
		assert.ErrorIs(t, err, candidate.ErrNoCandidates)
		assert.Empty(t, f.written)
	})

	t.Run("discovery error", func(t *testing.T) {
		f := newPipelineFixture(t, nil)
		f.discoverer.discoverFunc = func(ctx context.Context) ([]candidate.Source, error) {
			return nil, errors.New("list unavailable")
		}

		_, err := f.service(t, nil).Run(context.Background())
		assert.ErrorContains(t, err, "list unavailable")
	})

	t.Run("selected playlist without entries", func(t *testing.T) {
		f := newPipelineFixture(t, map[string]string{
			"http://list/a": "#EXTM3U\n#EXTINF:-1 tvg-id=\"CCTV5\",CCTV5\n",
		}, "http://list/a")
		f.prober.probeFunc = func(ctx context.Context, url string, budget time.Duration) probe.Result {
			return measured(1024)
		}

		_, err := f.service(t, nil).Run(context.Background())
		assert.Error(t, err)
		assert.Empty(t, f.written)
	})

	t.Run("write failure", func(t *testing.T) {
		f := newPipelineFixture(t, map[string]string{"http://list/a": playlistA}, "http://list/a")
		f.prober.probeFunc = func(ctx context.Context, url string, budget time.Duration) probe.Result {
			return measured(1024)
		}
		f.writer.writeFunc = func(ctx context.Context, path string, data []byte) error {
			return errors.New("read-only file system")
		}

		_, err := f.service(t, nil).Run(context.Background())
		assert.ErrorContains(t, err, "write output")
	})

	t.Run("every run starts from an empty fetch memo", func(t *testing.T) {
		f := newPipelineFixture(t, nil, "http://list/a")
		served := []string{playlistA, playlistB}
		version := -1
		memo := map[string]string{}
		f.fetcher.resetFunc = func() {
			version++
			clear(memo)
		}
		f.fetcher.fetchTextFunc = func(ctx context.Context, url string) (string, error) {
			if text, ok := memo[url]; ok {
				return text, nil
			}
			memo[url] = served[version]
			return memo[url], nil
		}
		f.prober.probeFunc = func(ctx context.Context, url string, budget time.Duration) probe.Result {
			return measured(1024)
		}

		svc := f.service(t, nil)
		_, err := svc.Run(context.Background())
		require.NoError(t, err)
		first := f.written["CN.m3u"]

		_, err = svc.Run(context.Background())
		require.NoError(t, err)
		second := f.written["CN.m3u"]

		assert.Equal(t, 1, version)
		assert.Contains(t, first, "http://a/cctv5")
		assert.Contains(t, second, "http://b/cctv5")
		assert.NotEqual(t, first, second)
	})

	t.Run("selected playlist is read back through the fetcher", func(t *testing.T) {
		f := newPipelineFixture(t, nil, "http://list/a")
		calls := 0
		f.fetcher.fetchTextFunc = func(ctx context.Context, url string) (string, error) {
			calls++
			if calls > 1 {
				return "", &candidate.FetchError{URL: url, StatusCode: 503}
			}
			return playlistA, nil
		}
		f.prober.probeFunc = func(ctx context.Context, url string, budget time.Duration) probe.Result {
			return measured(1024)
		}

		_, err := f.service(t, nil).Run(context.Background())
		assert.ErrorContains(t, err, "fetch selected playlist")
		assert.Equal(t, 2, calls)
		assert.Empty(t, f.written)
	})

	t.Run("history cleanup runs after each run", func(t *testing.T) {
		f := newPipelineFixture(t, map[string]string{"http://list/a": playlistA}, "http://list/a")
		f.prober.probeFunc = func(ctx context.Context, url string, budget time.Duration) probe.Result {
			return measured(1024)
		}
		cleaned := false
		repo := &mockProbeRepository{
			deleteBeforeFunc: func(ctx context.Context, before time.Time) error {
				cleaned = true
				return nil
			},
		}

		_, err := f.service(t, NewHistoryService(repo, time.Hour)).Run(context.Background())
		require.NoError(t, err)
		assert.True(t, cleaned)
	})
}

func TestPipelineService_LastRunBeforeFirstRun(t *testing.T) {
	f := newPipelineFixture(t, nil)
	_, ok := f.service(t, nil).LastRun()
	assert.False(t, ok)
}
