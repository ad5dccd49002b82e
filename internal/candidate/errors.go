package candidate

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrEmptyURL         = errors.New("candidate url cannot be empty")
	ErrNoCandidates     = errors.New("no candidate sources discovered")
	ErrReferenceMissing = errors.New("reference channel not found in playlist")
	ErrNoProbeChannel   = errors.New("playlist has no channel to probe")
	ErrProbeFailed      = errors.New("stream probe failed")
	ErrValidationFailed = errors.New("stream validation failed")
	ErrExhausted        = errors.New("no candidate source passed evaluation")
)

// FetchError reports that a playlist or stream could not be retrieved.
// It is recoverable at the candidate level.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
