package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/alorle/iptv-selector/internal/candidate"
	"github.com/alorle/iptv-selector/internal/lineup"
	"github.com/alorle/iptv-selector/internal/port/driven"
	"github.com/alorle/iptv-selector/logging"
	"github.com/alorle/iptv-selector/metrics"
)

// PipelineOptions configures a PipelineService.
// PreviewSize is the number of emitted channels logged after a run; zero
// disables the preview.
type PipelineOptions struct {
	OutputPath  string
	PreviewSize int
}

// RunReport describes one pipeline execution.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Source     string
	Throughput float64
	Output     string
	Summary    lineup.Summary
	Err        error
}

// Succeeded reports whether the run wrote an output playlist.
func (r RunReport) Succeeded() bool {
	return r.Err == nil && !r.FinishedAt.IsZero()
}

// PipelineService runs discovery, selection, lineup processing and output in
// sequence. Run is safe for concurrent use but executions do not overlap.
type PipelineService struct {
	discoverer driven.CandidateDiscoverer
	fetcher    driven.PlaylistFetcher
	selection  *SelectionService
	playlists  *PlaylistService
	writer     driven.PlaylistWriter
	history    *HistoryService
	recorder   Recorder
	logger     logrus.FieldLogger
	opts       PipelineOptions

	runMu sync.Mutex
	mu    sync.RWMutex
	last  *RunReport
}

// NewPipelineService creates a new PipelineService. fetcher should be the
// one the discoverer and selection read through, so the winning playlist is
// served from the run's memo. history may be nil.
func NewPipelineService(
	discoverer driven.CandidateDiscoverer,
	fetcher driven.PlaylistFetcher,
	selection *SelectionService,
	playlists *PlaylistService,
	writer driven.PlaylistWriter,
	history *HistoryService,
	recorder Recorder,
	logger logrus.FieldLogger,
	opts PipelineOptions,
) *PipelineService {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &PipelineService{
		discoverer: discoverer,
		fetcher:    fetcher,
		selection:  selection,
		playlists:  playlists,
		writer:     writer,
		history:    history,
		recorder:   recorder,
		logger:     logger,
		opts:       opts,
	}
}

// Run executes the pipeline once. Every run starts from an empty fetch memo.
// Nothing is written when an error is returned.
func (s *PipelineService) Run(ctx context.Context) (RunReport, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.fetcher.Reset()

	report := RunReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		Output:    s.opts.OutputPath,
	}
	log := s.logger.WithField("run_id", report.RunID)

	err := s.run(ctx, log, &report)
	report.FinishedAt = time.Now()
	report.Err = err
	took := report.FinishedAt.Sub(report.StartedAt)

	if err != nil {
		logging.LogRunFailed(log, err, took)
		s.recorder.RecordRun(metrics.ResultFailure, took.Seconds(), float64(report.FinishedAt.Unix()))
	} else {
		logging.LogRunCompleted(log, report.Output, report.Summary.Counts.Total(), report.Summary.Duplicates, took)
		s.recorder.RecordLineup(report.Summary.Counts.Total(), report.Summary.Duplicates, ByCategory(report.Summary.Counts))
		s.recorder.RecordRun(metrics.ResultSuccess, took.Seconds(), float64(report.FinishedAt.Unix()))
	}

	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()

	if s.history != nil {
		if cerr := s.history.Cleanup(ctx); cerr != nil {
			log.WithError(cerr).Warn("Failed to clean up probe history")
		}
	}

	return report, err
}

func (s *PipelineService) run(ctx context.Context, log logrus.FieldLogger, report *RunReport) error {
	sources, err := s.discoverer.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover candidates: %w", err)
	}
	if len(sources) == 0 {
		return candidate.ErrNoCandidates
	}
	log.WithField("candidates", len(sources)).Info("Candidates discovered")

	sel, err := s.selection.Select(ctx, report.RunID, sources)
	if err != nil {
		return err
	}
	report.Source = sel.Winner.Source.URL()
	report.Throughput = sel.Winner.Result.Throughput()

	text, err := s.fetcher.FetchText(ctx, report.Source)
	if err != nil {
		return fmt.Errorf("fetch selected playlist: %w", err)
	}

	pl, summary, err := s.playlists.Process(text)
	if err != nil {
		return fmt.Errorf("process playlist from %s: %w", report.Source, err)
	}
	report.Summary = summary

	if err := s.writer.Write(ctx, s.opts.OutputPath, []byte(pl.String())); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	s.logPreview(log, s.playlists.Preview(pl, s.opts.PreviewSize))
	return nil
}

func (s *PipelineService) logPreview(log logrus.FieldLogger, preview string) {
	if s.opts.PreviewSize <= 0 {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(preview, "\n"), "\n") {
		if line != "" {
			log.Info(line)
		}
	}
}

// LastRun returns the report of the most recent run, if any.
func (s *PipelineService) LastRun() (RunReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return RunReport{}, false
	}
	return *s.last, true
}

