package application

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/alorle/iptv-selector/internal/port/driven"
	"github.com/alorle/iptv-selector/internal/probe"
)

// HistoryService reads and prunes stored probe outcomes.
type HistoryService struct {
	repo      driven.ProbeRepository
	retention time.Duration
	now       func() time.Time
}

// NewHistoryService creates a new HistoryService. A zero retention keeps
// records forever.
func NewHistoryService(repo driven.ProbeRepository, retention time.Duration) *HistoryService {
	return &HistoryService{
		repo:      repo,
		retention: retention,
		now:       time.Now,
	}
}

// Summaries aggregates the records stored since the given time for every
// known source, ordered by average throughput descending.
func (s *HistoryService) Summaries(ctx context.Context, since time.Time) ([]probe.Summary, error) {
	sources, err := s.repo.Sources(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	summaries := make([]probe.Summary, 0, len(sources))
	for _, src := range sources {
		records, err := s.repo.FindBySourceSince(ctx, src, since)
		if err != nil {
			return nil, fmt.Errorf("find records for %s: %w", src, err)
		}

		sum, err := probe.NewSummary(src, records)
		if errors.Is(err, probe.ErrNoProbeData) {
			continue
		}
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}

	slices.SortStableFunc(summaries, func(a, b probe.Summary) int {
		if c := cmp.Compare(b.AvgThroughput(), a.AvgThroughput()); c != 0 {
			return c
		}
		return cmp.Compare(a.Source(), b.Source())
	})
	return summaries, nil
}

// Recent returns up to limit records of a source, most recent first.
func (s *HistoryService) Recent(ctx context.Context, source string, limit int) ([]probe.Record, error) {
	records, err := s.repo.FindBySource(ctx, source)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Cleanup removes records older than the retention period.
func (s *HistoryService) Cleanup(ctx context.Context) error {
	if s.retention <= 0 {
		return nil
	}
	return s.repo.DeleteBefore(ctx, s.now().Add(-s.retention))
}
