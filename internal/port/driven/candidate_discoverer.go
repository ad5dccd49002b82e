package driven

import (
	"context"

	"github.com/alorle/iptv-selector/internal/candidate"
)

// CandidateDiscoverer supplies the candidate playlist sources of a run.
type CandidateDiscoverer interface {
	// Discover returns the candidates in evaluation order, without
	// duplicates. An empty result is not an error; callers decide.
	Discover(ctx context.Context) ([]candidate.Source, error)
}
