package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alorle/iptv-selector/internal/candidate"
	"github.com/alorle/iptv-selector/internal/m3u"
	"github.com/alorle/iptv-selector/internal/normalize"
	"github.com/alorle/iptv-selector/internal/port/driven"
	"github.com/alorle/iptv-selector/internal/probe"
	"github.com/alorle/iptv-selector/logging"
	"github.com/alorle/iptv-selector/metrics"
)

// Skip reasons reported to the Recorder.
const (
	skipFetchFailed      = "fetch_failed"
	skipNoProbeChannel   = "no_probe_channel"
	skipReferenceMissing = "reference_missing"
)

// SelectionOptions configures candidate evaluation.
type SelectionOptions struct {
	Mode             candidate.Mode
	Budget           time.Duration
	ReferenceChannel string
}

// Selection is the outcome of evaluating a candidate list.
type Selection struct {
	Winner      candidate.Evaluation
	Evaluations []candidate.Evaluation
}

// SelectionService evaluates candidate sources and picks the one whose
// playlist is published. Candidates are evaluated strictly one after the
// other, in input order.
type SelectionService struct {
	fetcher    driven.PlaylistFetcher
	prober     driven.StreamProber
	checker    driven.ReachabilityChecker
	downloader driven.TimedDownloader
	history    driven.ProbeRepository
	normalizer *normalize.Normalizer
	recorder   Recorder
	logger     logrus.FieldLogger
	opts       SelectionOptions
	references map[string]bool
}

// NewSelectionService creates a new SelectionService. history may be nil to
// disable probe history; checker and downloader are only used in fallback
// mode.
func NewSelectionService(
	fetcher driven.PlaylistFetcher,
	prober driven.StreamProber,
	checker driven.ReachabilityChecker,
	downloader driven.TimedDownloader,
	history driven.ProbeRepository,
	normalizer *normalize.Normalizer,
	recorder Recorder,
	logger logrus.FieldLogger,
	opts SelectionOptions,
) *SelectionService {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &SelectionService{
		fetcher:    fetcher,
		prober:     prober,
		checker:    checker,
		downloader: downloader,
		history:    history,
		normalizer: normalizer,
		recorder:   recorder,
		logger:     logger,
		opts:       opts,
		references: referenceIdentities(normalizer, opts.ReferenceChannel),
	}
}

// referenceIdentities returns the canonical identities that count as the
// reference channel: the channel itself and its preserved-suffix variants.
// Plus variants stay distinct channels.
func referenceIdentities(normalizer *normalize.Normalizer, channel string) map[string]bool {
	ref := normalizer.Identity(channel)
	if ref == "" {
		return nil
	}

	ids := map[string]bool{ref: true}
	for _, suffix := range normalizer.Rules().PreservedSuffixes {
		ids[ref+"-"+suffix] = true
	}
	return ids
}

// Select evaluates sources in the configured mode. It fails with
// candidate.ErrNoCandidates on an empty list and candidate.ErrExhausted when
// no candidate passes.
func (s *SelectionService) Select(ctx context.Context, runID string, sources []candidate.Source) (Selection, error) {
	if len(sources) == 0 {
		return Selection{}, candidate.ErrNoCandidates
	}

	s.logger.WithFields(logrus.Fields{
		"mode":       s.opts.Mode,
		"candidates": len(sources),
	}).Info("Evaluating candidates")

	if s.opts.Mode == candidate.ModeFallback {
		return s.selectFallback(ctx, runID, sources)
	}
	return s.selectSpeed(ctx, runID, sources)
}

func (s *SelectionService) selectSpeed(ctx context.Context, runID string, sources []candidate.Source) (Selection, error) {
	evals := make([]candidate.Evaluation, 0, len(sources))

	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return Selection{Evaluations: evals}, err
		}

		eval := candidate.Evaluation{Source: src, Index: i}

		probeURL, err := s.prepare(ctx, src, false)
		if err != nil {
			eval.Err = err
			eval.Result = probe.Failed(err.Error())
			s.skip(ctx, runID, eval)
			evals = append(evals, eval)
			continue
		}
		eval.ProbeURL = probeURL

		eval.Result = s.prober.Probe(ctx, probeURL, s.opts.Budget)
		if !eval.Result.Success() {
			eval.Err = fmt.Errorf("%w: %s", candidate.ErrProbeFailed, eval.Result.Reason())
		}

		s.report(ctx, runID, eval)
		evals = append(evals, eval)
	}

	ranked := candidate.Rank(evals)
	if len(ranked) == 0 {
		return Selection{Evaluations: evals}, candidate.ErrExhausted
	}

	winner := ranked[0]
	logging.LogCandidateAccepted(s.logger, winner.Source.URL(), winner.Result.Throughput())

	return Selection{Winner: winner, Evaluations: evals}, nil
}

func (s *SelectionService) selectFallback(ctx context.Context, runID string, sources []candidate.Source) (Selection, error) {
	evals := make([]candidate.Evaluation, 0, len(sources))

	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return Selection{Evaluations: evals}, err
		}

		eval := candidate.Evaluation{Source: src, Index: i}

		probeURL, err := s.prepare(ctx, src, true)
		if err != nil {
			eval.Err = err
			eval.Result = probe.Failed(err.Error())
			s.skip(ctx, runID, eval)
			evals = append(evals, eval)
			continue
		}
		eval.ProbeURL = probeURL

		eval.Result = s.validate(ctx, probeURL)
		if !eval.Result.Success() {
			eval.Err = fmt.Errorf("%w: %s", candidate.ErrValidationFailed, eval.Result.Reason())
		}

		s.report(ctx, runID, eval)
		evals = append(evals, eval)

		if eval.Accepted() {
			logging.LogCandidateAccepted(s.logger, src.URL(), eval.Result.Throughput())
			return Selection{Winner: eval, Evaluations: evals}, nil
		}
	}

	return Selection{Evaluations: evals}, candidate.ErrExhausted
}

// validate runs the socket check and, when it does not pass, the timed
// download. Either signal is sufficient.
func (s *SelectionService) validate(ctx context.Context, streamURL string) probe.Result {
	log := s.logger.WithField("url", streamURL)

	ok, err := s.checker.Check(ctx, streamURL)
	if err != nil {
		log.WithError(err).Debug("Socket check failed")
	}
	if ok {
		return probe.Validated(true, 0, 0, "socket check passed")
	}

	start := time.Now()
	n, recognized, err := s.downloader.Download(ctx, streamURL, s.opts.Budget)
	elapsed := time.Since(start)
	if err != nil {
		log.WithError(err).Debug("Timed download failed")
		return probe.Failed(fmt.Sprintf("both signals failed: %v", err))
	}
	if n == 0 {
		return probe.Failed("both signals failed: no data downloaded")
	}
	if !recognized {
		return probe.Validated(false, n, elapsed, "both signals failed: not a transport stream")
	}

	return probe.Validated(true, n, elapsed, "timed download passed")
}

// prepare fetches the candidate playlist and locates the channel to probe.
// The fetched text stays memoized in the fetcher for the rest of the run.
func (s *SelectionService) prepare(ctx context.Context, src candidate.Source, referenceOnly bool) (string, error) {
	text, err := s.fetcher.FetchText(ctx, src.URL())
	if err != nil {
		return "", err
	}
	return s.probeURL(text, referenceOnly)
}

// probeURL returns the stream URL of the reference channel, matched by
// canonical identity or canonical display name. Unless referenceOnly is set
// the first entry is used when the reference channel is absent.
func (s *SelectionService) probeURL(text string, referenceOnly bool) (string, error) {
	pl, _ := m3u.Parse(text)

	for _, e := range pl.Entries {
		if s.isReference(e) {
			return e.URL, nil
		}
	}

	if referenceOnly {
		return "", candidate.ErrReferenceMissing
	}
	if len(pl.Entries) == 0 {
		return "", candidate.ErrNoProbeChannel
	}

	s.logger.WithField("url", pl.Entries[0].URL).Debug("Reference channel not found, probing first entry")
	return pl.Entries[0].URL, nil
}

func (s *SelectionService) isReference(e m3u.Entry) bool {
	if len(s.references) == 0 {
		return false
	}
	if e.RawID != "" && s.references[s.normalizer.Identity(e.RawID)] {
		return true
	}
	return e.RawName != "" && s.references[s.normalizer.Identity(e.RawName)]
}

func (s *SelectionService) skip(ctx context.Context, runID string, eval candidate.Evaluation) {
	reason := skipFetchFailed
	switch {
	case errors.Is(eval.Err, candidate.ErrReferenceMissing):
		reason = skipReferenceMissing
	case errors.Is(eval.Err, candidate.ErrNoProbeChannel):
		reason = skipNoProbeChannel
	}

	logging.LogCandidateSkipped(s.logger, eval.Source.URL(), eval.Err)
	s.fetcher.Forget(eval.Source.URL())
	s.recorder.RecordSkip(reason)
	s.recorder.RecordCandidate(string(s.opts.Mode), metrics.OutcomeSkipped)
	s.save(ctx, runID, eval)
}

func (s *SelectionService) report(ctx context.Context, runID string, eval candidate.Evaluation) {
	logging.LogCandidateProbed(s.logger, eval.Source.URL(), eval.Result)

	outcome := metrics.OutcomeRejected
	if eval.Accepted() {
		outcome = metrics.OutcomeAccepted
		s.recorder.SetThroughput(eval.Source.URL(), eval.Result.Throughput())
	} else {
		s.fetcher.Forget(eval.Source.URL())
	}
	s.recorder.RecordCandidate(string(s.opts.Mode), outcome)
	s.save(ctx, runID, eval)
}

func (s *SelectionService) save(ctx context.Context, runID string, eval candidate.Evaluation) {
	if s.history == nil {
		return
	}

	rec, err := probe.NewRecord(eval.Source.URL(), runID, string(s.opts.Mode), time.Now(), eval.Result)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to build probe record")
		return
	}
	if err := s.history.Save(ctx, rec); err != nil {
		s.logger.WithError(err).WithField("source", eval.Source.URL()).Warn("Failed to save probe record")
	}
}
