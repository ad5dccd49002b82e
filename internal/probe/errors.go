package probe

import "errors"

var (
	ErrEmptySource      = errors.New("probe source cannot be empty")
	ErrInvalidTimestamp = errors.New("probe timestamp must not be zero")
	ErrInvalidElapsed   = errors.New("probe elapsed time must be positive")
	ErrNoData           = errors.New("no data received")
	ErrNoProbeData      = errors.New("no probe data available")
)
