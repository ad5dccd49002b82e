package probe

import "time"

const (
	// SyncByte is the first byte of every MPEG transport stream packet.
	SyncByte = 0x47
	// PacketSize is the length of one transport stream packet.
	PacketSize = 188
	// UnrecognizedPenalty scales the throughput of downloads that are not
	// recognizable as a transport stream.
	UnrecognizedPenalty = 0.5
)

// Result is the outcome of a single time-boxed stream pull.
// It is an immutable value object; Throughput is only meaningful when
// Success reports true.
type Result struct {
	success    bool
	throughput float64
	recognized bool
	bytes      int64
	elapsed    time.Duration
	reason     string
}

// Measure builds a Result from the number of bytes pulled in elapsed time
// and the leading bytes of the payload.
//
// Throughput is bytes per second. A payload that does not start with a
// transport stream packet is still a success but its throughput is halved.
// Returns ErrNoData when nothing was received.
func Measure(bytes int64, elapsed time.Duration, head []byte) (Result, error) {
	if bytes <= 0 {
		return Result{}, ErrNoData
	}
	if elapsed <= 0 {
		return Result{}, ErrInvalidElapsed
	}

	recognized := IsTransportStream(head)
	throughput := float64(bytes) / elapsed.Seconds()
	if !recognized {
		throughput *= UnrecognizedPenalty
	}

	return Result{
		success:    true,
		throughput: throughput,
		recognized: recognized,
		bytes:      bytes,
		elapsed:    elapsed,
	}, nil
}

// Validated builds the Result of a pass/fail validity check. The check
// succeeds only when the data was recognized as a transport stream.
func Validated(recognized bool, bytes int64, elapsed time.Duration, reason string) Result {
	r := Result{
		success:    recognized,
		recognized: recognized,
		bytes:      bytes,
		elapsed:    elapsed,
		reason:     reason,
	}
	if bytes > 0 && elapsed > 0 {
		r.throughput = float64(bytes) / elapsed.Seconds()
	}
	return r
}

// Failed returns an unsuccessful Result carrying the failure reason.
func Failed(reason string) Result {
	return Result{reason: reason}
}

// ReconstructResult rebuilds a Result from persisted state.
// Intended for repository adapters only; it bypasses validation.
func ReconstructResult(success bool, throughput float64, recognized bool, bytes int64, elapsed time.Duration, reason string) Result {
	return Result{
		success:    success,
		throughput: throughput,
		recognized: recognized,
		bytes:      bytes,
		elapsed:    elapsed,
		reason:     reason,
	}
}

// IsTransportStream reports whether head holds at least one full transport
// stream packet starting with the sync byte.
func IsTransportStream(head []byte) bool {
	return len(head) >= PacketSize && head[0] == SyncByte
}

func (r Result) Success() bool          { return r.success }
func (r Result) Throughput() float64    { return r.throughput }
func (r Result) Recognized() bool       { return r.recognized }
func (r Result) Bytes() int64           { return r.bytes }
func (r Result) Elapsed() time.Duration { return r.elapsed }
func (r Result) Reason() string         { return r.reason }
