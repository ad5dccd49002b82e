package driver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alorle/iptv-selector/internal/application"
	"github.com/alorle/iptv-selector/internal/probe"
	"github.com/alorle/iptv-selector/logging"
)

const defaultHistoryWindow = 7 * 24 * time.Hour

// HistoryHTTPHandler exposes stored probe outcomes.
type HistoryHTTPHandler struct {
	service *application.HistoryService
	logger  logrus.FieldLogger
}

// NewHistoryHTTPHandler creates a new HTTP handler for probe history.
func NewHistoryHTTPHandler(service *application.HistoryService, logger logrus.FieldLogger) *HistoryHTTPHandler {
	return &HistoryHTTPHandler{service: service, logger: logger}
}

// probeRecordResponse represents a probe record in JSON format.
type probeRecordResponse struct {
	Source     string  `json:"source"`
	RunID      string  `json:"run_id"`
	Mode       string  `json:"mode"`
	Timestamp  string  `json:"timestamp"`
	Success    bool    `json:"success"`
	Recognized bool    `json:"recognized"`
	Throughput float64 `json:"throughput"`
	Bytes      int64   `json:"bytes"`
	ElapsedMS  int64   `json:"elapsed_ms"`
	Reason     string  `json:"reason,omitempty"`
}

// summaryResponse represents aggregated figures of one source in JSON format.
type summaryResponse struct {
	Source           string  `json:"source"`
	TotalProbes      int     `json:"total_probes"`
	SuccessfulProbes int     `json:"successful_probes"`
	RecognizedProbes int     `json:"recognized_probes"`
	SuccessRatio     float64 `json:"success_ratio"`
	AvgThroughput    float64 `json:"avg_throughput"`
	ThroughputStdDev float64 `json:"throughput_std_dev"`
}

// HandleSummaries handles GET /history?window=168h
func (h *HistoryHTTPHandler) HandleSummaries(w http.ResponseWriter, r *http.Request) {
	window := defaultHistoryWindow
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			logging.WriteJSONError(w, h.logger, "invalid window", http.StatusBadRequest, logrus.Fields{"window": v})
			return
		}
		window = d
	}

	summaries, err := h.service.Summaries(r.Context(), time.Now().Add(-window))
	if err != nil {
		logging.WriteJSONError(w, h.logger, "internal server error", http.StatusInternalServerError, logrus.Fields{"error": err.Error()})
		return
	}

	response := make([]summaryResponse, len(summaries))
	for i, s := range summaries {
		response[i] = toSummaryResponse(s)
	}

	logging.WriteJSONSuccess(w, h.logger, response)
}

// HandleRecords handles GET /history/records?source=URL&limit=N
func (h *HistoryHTTPHandler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		logging.WriteJSONError(w, h.logger, "source is required", http.StatusBadRequest, nil)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			logging.WriteJSONError(w, h.logger, "invalid limit", http.StatusBadRequest, logrus.Fields{"limit": v})
			return
		}
		limit = n
	}

	records, err := h.service.Recent(r.Context(), source, limit)
	if err != nil {
		logging.WriteJSONError(w, h.logger, "internal server error", http.StatusInternalServerError, logrus.Fields{"error": err.Error()})
		return
	}

	response := make([]probeRecordResponse, len(records))
	for i, rec := range records {
		response[i] = toProbeRecordResponse(rec)
	}

	logging.WriteJSONSuccess(w, h.logger, response)
}

func toProbeRecordResponse(r probe.Record) probeRecordResponse {
	res := r.Result()
	return probeRecordResponse{
		Source:     r.Source(),
		RunID:      r.RunID(),
		Mode:       r.Mode(),
		Timestamp:  r.Timestamp().Format(time.RFC3339),
		Success:    res.Success(),
		Recognized: res.Recognized(),
		Throughput: res.Throughput(),
		Bytes:      res.Bytes(),
		ElapsedMS:  res.Elapsed().Milliseconds(),
		Reason:     res.Reason(),
	}
}

func toSummaryResponse(s probe.Summary) summaryResponse {
	return summaryResponse{
		Source:           s.Source(),
		TotalProbes:      s.TotalProbes(),
		SuccessfulProbes: s.SuccessfulProbes(),
		RecognizedProbes: s.RecognizedProbes(),
		SuccessRatio:     s.SuccessRatio(),
		AvgThroughput:    s.AvgThroughput(),
		ThroughputStdDev: s.ThroughputStdDev(),
	}
}
