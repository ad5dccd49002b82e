package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/alorle/iptv-selector/internal/probe"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseLogLevel converts a string to a logrus level, defaulting to info.
func ParseLogLevel(s string) logrus.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return logrus.DebugLevel
	case "INFO":
		return logrus.InfoLevel
	case "WARN", "WARNING":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// New creates a logger writing to stderr.
func New(level logrus.Level, format string) *logrus.Logger {
	return NewWithWriter(level, format, os.Stderr)
}

// NewWithWriter creates a logger with a custom output writer.
func NewWithWriter(level logrus.Level, format string, w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)

	if strings.EqualFold(format, FormatJSON) {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}

	return l
}

// Event identifies a selection or pipeline event in structured logs.
type Event string

// Event constants
const (
	EventCandidateProbed   Event = "candidate_probed"
	EventCandidateSkipped  Event = "candidate_skipped"
	EventCandidateAccepted Event = "candidate_accepted"
	EventRunCompleted      Event = "run_completed"
	EventRunFailed         Event = "run_failed"
)

// SpeedString renders a throughput in bytes per second.
func SpeedString(bytesPerSecond float64) string {
	if bytesPerSecond < 0 {
		bytesPerSecond = 0
	}
	return humanize.Bytes(uint64(bytesPerSecond)) + "/s"
}

// LogCandidateProbed logs the probe result of a candidate (INFO level).
func LogCandidateProbed(l logrus.FieldLogger, source string, r probe.Result) {
	fields := logrus.Fields{
		"event":  EventCandidateProbed,
		"source": source,
	}
	if !r.Success() {
		fields["reason"] = r.Reason()
		l.WithFields(fields).Info("Candidate probe failed")
		return
	}

	fields["throughput"] = SpeedString(r.Throughput())
	fields["bytes"] = humanize.Bytes(uint64(r.Bytes()))
	fields["recognized"] = r.Recognized()
	l.WithFields(fields).Info("Candidate probed")
}

// LogCandidateSkipped logs a candidate that could not be evaluated (WARN level).
func LogCandidateSkipped(l logrus.FieldLogger, source string, err error) {
	l.WithFields(logrus.Fields{
		"event":  EventCandidateSkipped,
		"source": source,
	}).WithError(err).Warn("Candidate skipped")
}

// LogCandidateAccepted logs the selected candidate (INFO level).
func LogCandidateAccepted(l logrus.FieldLogger, source string, throughput float64) {
	fields := logrus.Fields{
		"event":  EventCandidateAccepted,
		"source": source,
	}
	if throughput > 0 {
		fields["throughput"] = SpeedString(throughput)
	}
	l.WithFields(fields).Info("Candidate selected")
}

// LogRunCompleted logs a successful pipeline run (INFO level).
func LogRunCompleted(l logrus.FieldLogger, output string, channels, duplicates int, took time.Duration) {
	l.WithFields(logrus.Fields{
		"event":      EventRunCompleted,
		"output":     output,
		"channels":   channels,
		"duplicates": duplicates,
		"took":       took.Round(time.Millisecond).String(),
	}).Info("Playlist written")
}

// LogRunFailed logs a failed pipeline run (ERROR level).
func LogRunFailed(l logrus.FieldLogger, err error, took time.Duration) {
	l.WithFields(logrus.Fields{
		"event": EventRunFailed,
		"took":  took.Round(time.Millisecond).String(),
	}).WithError(err).Error("Pipeline run failed")
}
