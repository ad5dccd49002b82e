package candidate

import (
	"cmp"
	"slices"

	"github.com/alorle/iptv-selector/internal/probe"
)

// Mode selects how candidates compete.
type Mode string

const (
	// ModeSpeed probes every candidate and picks the highest throughput.
	ModeSpeed Mode = "speed"
	// ModeFallback accepts the first candidate whose reference channel validates.
	ModeFallback Mode = "fallback"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeSpeed || m == ModeFallback
}

// Evaluation is the recorded outcome for one candidate.
type Evaluation struct {
	Source   Source
	Index    int
	ProbeURL string
	Result   probe.Result
	Err      error
}

// Accepted reports whether the candidate produced a usable result.
func (e Evaluation) Accepted() bool {
	return e.Err == nil && e.Result.Success()
}

// Rank returns the accepted evaluations ordered by throughput descending.
// Ties keep input order.
func Rank(evals []Evaluation) []Evaluation {
	ranked := make([]Evaluation, 0, len(evals))
	for _, e := range evals {
		if e.Accepted() {
			ranked = append(ranked, e)
		}
	}

	slices.SortStableFunc(ranked, func(a, b Evaluation) int {
		if c := cmp.Compare(b.Result.Throughput(), a.Result.Throughput()); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	return ranked
}
