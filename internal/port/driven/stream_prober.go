package driven

import (
	"context"
	"time"

	"github.com/alorle/iptv-selector/internal/probe"
)

// StreamProber measures the throughput of a live stream.
type StreamProber interface {
	// Probe pulls from url for at most budget and returns the measured
	// result. Transport problems are reported as a failed result, not as
	// an error.
	Probe(ctx context.Context, url string, budget time.Duration) probe.Result
}

// ReachabilityChecker performs the socket-level validity check used in
// fallback mode.
type ReachabilityChecker interface {
	// Check reports whether url answers with a transport stream.
	Check(ctx context.Context, url string) (bool, error)
}

// TimedDownloader downloads a stream into scratch storage for a fixed time.
type TimedDownloader interface {
	// Download pulls url for d and returns the number of bytes written and
	// whether the data starts like a transport stream. Scratch storage is
	// released before Download returns.
	Download(ctx context.Context, url string, d time.Duration) (int64, bool, error)
}
