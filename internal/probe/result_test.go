package probe

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tsPayload(packets int) []byte {
	buf := make([]byte, packets*PacketSize)
	for i := 0; i < packets; i++ {
		buf[i*PacketSize] = SyncByte
	}
	return buf
}

func TestMeasure(t *testing.T) {
	tests := []struct {
		name           string
		bytes          int64
		elapsed        time.Duration
		head           []byte
		wantRecognized bool
		wantThroughput float64
	}{
		{
			name:           "recognized transport stream",
			bytes:          150 * 1024,
			elapsed:        3 * time.Second,
			head:           tsPayload(1),
			wantRecognized: true,
			wantThroughput: 50 * 1024,
		},
		{
			name:           "unrecognized payload is halved",
			bytes:          100000,
			elapsed:        2 * time.Second,
			head:           bytes.Repeat([]byte("<"), PacketSize),
			wantRecognized: false,
			wantThroughput: 0.5 * 100000 / 2,
		},
		{
			name:           "short head is not recognized even with sync byte",
			bytes:          100,
			elapsed:        time.Second,
			head:           append([]byte{SyncByte}, make([]byte, 99)...),
			wantRecognized: false,
			wantThroughput: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Measure(tt.bytes, tt.elapsed, tt.head)
			require.NoError(t, err)

			assert.True(t, r.Success())
			assert.Equal(t, tt.wantRecognized, r.Recognized())
			assert.InDelta(t, tt.wantThroughput, r.Throughput(), 1e-9)
			assert.Equal(t, tt.bytes, r.Bytes())
			assert.Equal(t, tt.elapsed, r.Elapsed())
		})
	}
}

func TestMeasure_Errors(t *testing.T) {
	_, err := Measure(0, time.Second, nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Measure(10, 0, tsPayload(1))
	assert.ErrorIs(t, err, ErrInvalidElapsed)
}

func TestFailed(t *testing.T) {
	r := Failed("connection refused")

	assert.False(t, r.Success())
	assert.Equal(t, "connection refused", r.Reason())
	assert.Zero(t, r.Throughput())
}

func TestIsTransportStream(t *testing.T) {
	assert.True(t, IsTransportStream(tsPayload(2)))
	assert.False(t, IsTransportStream(nil))
	assert.False(t, IsTransportStream(tsPayload(1)[:PacketSize-1]))

	notTS := tsPayload(1)
	notTS[0] = 'H'
	assert.False(t, IsTransportStream(notTS))
}

func TestSampler(t *testing.T) {
	s := NewSampler()
	payload := tsPayload(3)

	// Write in uneven chunks to cover the head boundary.
	for _, chunk := range [][]byte{payload[:100], payload[100:300], payload[300:]} {
		n, err := s.Write(chunk)
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}

	assert.Equal(t, int64(len(payload)), s.Count())
	assert.Equal(t, payload[:PacketSize], s.Head())
}

func TestNewRecord(t *testing.T) {
	now := time.Now()

	rec, err := NewRecord("  http://a/list.m3u  ", "run-1", "speed", now, Failed("x"))
	require.NoError(t, err)
	assert.Equal(t, "http://a/list.m3u", rec.Source())
	assert.Equal(t, "run-1", rec.RunID())
	assert.Equal(t, "speed", rec.Mode())
	assert.True(t, rec.Timestamp().Equal(now))

	_, err = NewRecord(" ", "run-1", "speed", now, Failed("x"))
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = NewRecord("http://a", "run-1", "speed", time.Time{}, Failed("x"))
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestValidated(t *testing.T) {
	passed := Validated(true, 3000, 3*time.Second, "socket")
	assert.True(t, passed.Success())
	assert.True(t, passed.Recognized())
	assert.InDelta(t, 1000.0, passed.Throughput(), 0.001)
	assert.Equal(t, "socket", passed.Reason())

	rejected := Validated(false, 0, 0, "no transport stream")
	assert.False(t, rejected.Success())
	assert.Zero(t, rejected.Throughput())
}
