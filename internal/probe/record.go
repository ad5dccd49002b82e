package probe

import (
	"strings"
	"time"
)

// Record is one evaluated candidate as kept in the probe history.
// It is an immutable value object.
type Record struct {
	source    string
	runID     string
	mode      string
	timestamp time.Time
	result    Result
}

// NewRecord creates a new history record with validation.
func NewRecord(source, runID, mode string, timestamp time.Time, result Result) (Record, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Record{}, ErrEmptySource
	}
	if timestamp.IsZero() {
		return Record{}, ErrInvalidTimestamp
	}
	return Record{
		source:    source,
		runID:     runID,
		mode:      mode,
		timestamp: timestamp,
		result:    result,
	}, nil
}

// ReconstructRecord rebuilds a Record from persisted state.
// Intended for repository adapters only; it bypasses validation.
func ReconstructRecord(source, runID, mode string, timestamp time.Time, result Result) Record {
	return Record{
		source:    source,
		runID:     runID,
		mode:      mode,
		timestamp: timestamp,
		result:    result,
	}
}

func (r Record) Source() string       { return r.source }
func (r Record) RunID() string        { return r.runID }
func (r Record) Mode() string         { return r.mode }
func (r Record) Timestamp() time.Time { return r.timestamp }
func (r Record) Result() Result       { return r.result }
