package probe

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSummary_Empty(t *testing.T) {
	_, err := NewSummary("src", nil)
	assert.ErrorIs(t, err, ErrNoProbeData)
}

func TestNewSummary_Mixed(t *testing.T) {
	now := time.Now()
	records := []Record{
		ReconstructRecord("src", "r1", "speed", now, ReconstructResult(true, 100000, true, 300000, 3*time.Second, "")),
		ReconstructRecord("src", "r2", "speed", now.Add(-time.Hour), Failed("timeout")),
		ReconstructRecord("src", "r3", "speed", now.Add(-2*time.Hour), ReconstructResult(true, 200000, false, 1200000, 3*time.Second, "")),
		ReconstructRecord("src", "r4", "speed", now.Add(-3*time.Hour), Failed("no data received")),
	}

	s, err := NewSummary("src", records)
	require.NoError(t, err)

	assert.Equal(t, "src", s.Source())
	assert.Equal(t, 4, s.TotalProbes())
	assert.Equal(t, 2, s.SuccessfulProbes())
	assert.Equal(t, 1, s.RecognizedProbes())
	assert.Equal(t, 0.5, s.SuccessRatio())
	assert.Equal(t, 150000.0, s.AvgThroughput())
	// diffs: -50000, 50000 → variance 2.5e9
	assert.InDelta(t, math.Sqrt(2.5e9), s.ThroughputStdDev(), 0.01)
}

func TestNewSummary_AllFailed(t *testing.T) {
	records := []Record{
		ReconstructRecord("src", "r1", "fallback", time.Now(), Failed("refused")),
	}

	s, err := NewSummary("src", records)
	require.NoError(t, err)
	assert.Zero(t, s.SuccessRatio())
	assert.Zero(t, s.AvgThroughput())
	assert.Zero(t, s.ThroughputStdDev())
}
