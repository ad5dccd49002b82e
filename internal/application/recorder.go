package application

// Recorder receives run statistics for monitoring.
type Recorder interface {
	RecordCandidate(mode, outcome string)
	RecordSkip(reason string)
	SetThroughput(source string, bytesPerSecond float64)
	RecordLineup(channels, duplicates int, byCategory map[string]int)
	RecordRun(result string, seconds, finishedUnix float64)
}

// NopRecorder discards all statistics.
type NopRecorder struct{}

func (NopRecorder) RecordCandidate(string, string)        {}
func (NopRecorder) RecordSkip(string)                     {}
func (NopRecorder) SetThroughput(string, float64)         {}
func (NopRecorder) RecordLineup(int, int, map[string]int) {}
func (NopRecorder) RecordRun(string, float64, float64)    {}
