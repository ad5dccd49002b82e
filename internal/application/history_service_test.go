package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alorle/iptv-selector/internal/probe"
)

func historyRecord(source string, throughput float64, success bool) probe.Record {
	return probe.ReconstructRecord(source, "run", "speed", time.Now(),
		probe.ReconstructResult(success, throughput, success, 0, time.Second, ""))
}

func TestHistoryService_Summaries(t *testing.T) {
	repo := &mockProbeRepository{
		sourcesFunc: func(ctx context.Context) ([]string, error) {
			return []string{"http://slow", "http://fast", "http://empty"}, nil
		},
		findBySourceSinceFunc: func(ctx context.Context, source string, since time.Time) ([]probe.Record, error) {
			switch source {
			case "http://slow":
				return []probe.Record{historyRecord(source, 100, true), historyRecord(source, 0, false)}, nil
			case "http://fast":
				return []probe.Record{historyRecord(source, 900, true)}, nil
			}
			return nil, nil
		},
	}

	summaries, err := NewHistoryService(repo, 0).Summaries(context.Background(), time.Time{})
	require.NoError(t, err)

	require.Len(t, summaries, 2)
	assert.Equal(t, "http://fast", summaries[0].Source())
	assert.Equal(t, "http://slow", summaries[1].Source())
	assert.InDelta(t, 0.5, summaries[1].SuccessRatio(), 0.0001)
}

func TestHistoryService_SummariesError(t *testing.T) {
	repo := &mockProbeRepository{
		sourcesFunc: func(ctx context.Context) ([]string, error) {
			return nil, errors.New("bucket missing")
		},
	}

	_, err := NewHistoryService(repo, 0).Summaries(context.Background(), time.Time{})
	assert.ErrorContains(t, err, "bucket missing")
}

func TestHistoryService_Recent(t *testing.T) {
	repo := &mockProbeRepository{
		findBySourceFunc: func(ctx context.Context, source string) ([]probe.Record, error) {
			return []probe.Record{
				historyRecord(source, 3, true),
				historyRecord(source, 2, true),
				historyRecord(source, 1, true),
			}, nil
		},
	}
	svc := NewHistoryService(repo, 0)

	records, err := svc.Recent(context.Background(), "http://a", 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = svc.Recent(context.Background(), "http://a", 0)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestHistoryService_Cleanup(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("deletes records older than retention", func(t *testing.T) {
		var cutoff time.Time
		repo := &mockProbeRepository{
			deleteBeforeFunc: func(ctx context.Context, before time.Time) error {
				cutoff = before
				return nil
			},
		}
		svc := NewHistoryService(repo, 24*time.Hour)
		svc.now = func() time.Time { return now }

		require.NoError(t, svc.Cleanup(context.Background()))
		assert.Equal(t, now.Add(-24*time.Hour), cutoff)
	})

	t.Run("zero retention keeps everything", func(t *testing.T) {
		repo := &mockProbeRepository{
			deleteBeforeFunc: func(ctx context.Context, before time.Time) error {
				t.Fatal("DeleteBefore should not be called")
				return nil
			},
		}
		require.NoError(t, NewHistoryService(repo, 0).Cleanup(context.Background()))
	})
}
