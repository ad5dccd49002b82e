package driven

import (
	"context"
	"time"

	"github.com/alorle/iptv-selector/internal/probe"
)

// ProbeRepository defines the interface for probe history persistence.
// This is a driven port implemented by concrete adapters (e.g., BoltDB).
type ProbeRepository interface {
	// Save persists the outcome of one candidate evaluation.
	Save(ctx context.Context, r probe.Record) error

	// FindBySource retrieves all records for a candidate source,
	// ordered by timestamp descending (most recent first).
	FindBySource(ctx context.Context, source string) ([]probe.Record, error)

	// FindBySourceSince retrieves records for a source since the given
	// time, ordered by timestamp descending.
	FindBySourceSince(ctx context.Context, source string, since time.Time) ([]probe.Record, error)

	// Sources lists every source with at least one stored record.
	Sources(ctx context.Context) ([]string, error)

	// DeleteBefore removes all records older than the given time.
	// This is used for retention/cleanup.
	DeleteBefore(ctx context.Context, before time.Time) error
}
