package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run results
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Candidate outcomes
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
)

var (
	// CandidatesEvaluated counts evaluated candidates by mode and outcome
	CandidatesEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_candidates_evaluated_total",
		Help: "Total number of evaluated candidate sources",
	}, []string{"mode", "outcome"})

	// CandidatesSkipped counts skipped candidates by reason
	CandidatesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_candidates_skipped_total",
		Help: "Total number of candidate sources skipped before probing",
	}, []string{"reason"})

	// CandidateThroughput tracks the last measured throughput per source
	CandidateThroughput = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "iptv_candidate_throughput_bytes_per_second",
		Help: "Last measured probe throughput of a candidate source",
	}, []string{"source"})

	// ChannelsEmitted tracks the channel count of the last written playlist
	ChannelsEmitted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "iptv_channels_emitted",
		Help: "Number of channels in the last written playlist",
	})

	// ChannelsByCategory tracks the last playlist's channels per lineup category
	ChannelsByCategory = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "iptv_channels_by_category",
		Help: "Number of channels per lineup category in the last written playlist",
	}, []string{"category"})

	// DuplicatesRemoved tracks the duplicates collapsed in the last run
	DuplicatesRemoved = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "iptv_duplicates_removed",
		Help: "Number of duplicate channel identities collapsed in the last run",
	})

	// Runs counts pipeline runs by result
	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_runs_total",
		Help: "Total number of pipeline runs",
	}, []string{"result"})

	// RunDuration observes how long pipeline runs take
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "iptv_run_duration_seconds",
		Help:    "Duration of pipeline runs",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	// LastSuccess records when a playlist was last written
	LastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "iptv_last_success_timestamp_seconds",
		Help: "Unix time of the last successful pipeline run",
	})
)

// RecordCandidate increments the evaluation counter for a mode and outcome
func RecordCandidate(mode, outcome string) {
	CandidatesEvaluated.WithLabelValues(mode, outcome).Inc()
}

// RecordSkip increments the skip counter for a reason
func RecordSkip(reason string) {
	CandidatesSkipped.WithLabelValues(reason).Inc()
}

// SetThroughput records the measured throughput of a source
func SetThroughput(source string, bytesPerSecond float64) {
	CandidateThroughput.WithLabelValues(source).Set(bytesPerSecond)
}

// RecordLineup updates the playlist gauges after a successful run
func RecordLineup(channels, duplicates int, byCategory map[string]int) {
	ChannelsEmitted.Set(float64(channels))
	DuplicatesRemoved.Set(float64(duplicates))
	for category, n := range byCategory {
		ChannelsByCategory.WithLabelValues(category).Set(float64(n))
	}
}

// RecordRun records the result and duration of a pipeline run
func RecordRun(result string, seconds float64, finishedUnix float64) {
	Runs.WithLabelValues(result).Inc()
	RunDuration.Observe(seconds)
	if result == ResultSuccess {
		LastSuccess.Set(finishedUnix)
	}
}

// WriteTextfile writes every registered metric to path in the text
// exposition format, for the node exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// Prometheus reports pipeline events to the package collectors.
type Prometheus struct{}

func (Prometheus) RecordCandidate(mode, outcome string) {
	RecordCandidate(mode, outcome)
}

func (Prometheus) RecordSkip(reason string) {
	RecordSkip(reason)
}

func (Prometheus) SetThroughput(source string, bytesPerSecond float64) {
	SetThroughput(source, bytesPerSecond)
}

func (Prometheus) RecordLineup(channels, duplicates int, byCategory map[string]int) {
	RecordLineup(channels, duplicates, byCategory)
}

func (Prometheus) RecordRun(result string, seconds, finishedUnix float64) {
	RecordRun(result, seconds, finishedUnix)
}
