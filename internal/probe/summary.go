package probe

import "math"

// Summary holds aggregated figures derived from a source's probe history.
type Summary struct {
	source           string
	totalProbes      int
	successfulProbes int
	recognizedProbes int
	successRatio     float64
	avgThroughput    float64
	throughputStdDev float64
}

// NewSummary computes aggregated figures from a slice of records.
// Returns ErrNoProbeData if records is empty.
func NewSummary(source string, records []Record) (Summary, error) {
	if len(records) == 0 {
		return Summary{}, ErrNoProbeData
	}

	total := len(records)
	var successful, recognized int
	var totalThroughput float64
	var throughputs []float64

	for _, rec := range records {
		r := rec.Result()
		if !r.Success() {
			continue
		}
		successful++
		if r.Recognized() {
			recognized++
		}
		totalThroughput += r.Throughput()
		throughputs = append(throughputs, r.Throughput())
	}

	var avg, stdDev float64
	if successful > 0 {
		avg = totalThroughput / float64(successful)

		var sumSquaredDiff float64
		for _, v := range throughputs {
			diff := v - avg
			sumSquaredDiff += diff * diff
		}
		stdDev = math.Sqrt(sumSquaredDiff / float64(len(throughputs)))
	}

	return Summary{
		source:           source,
		totalProbes:      total,
		successfulProbes: successful,
		recognizedProbes: recognized,
		successRatio:     float64(successful) / float64(total),
		avgThroughput:    avg,
		throughputStdDev: stdDev,
	}, nil
}

func (s Summary) Source() string            { return s.source }
func (s Summary) TotalProbes() int          { return s.totalProbes }
func (s Summary) SuccessfulProbes() int     { return s.successfulProbes }
func (s Summary) RecognizedProbes() int     { return s.recognizedProbes }
func (s Summary) SuccessRatio() float64     { return s.successRatio }
func (s Summary) AvgThroughput() float64    { return s.avgThroughput }
func (s Summary) ThroughputStdDev() float64 { return s.throughputStdDev }
