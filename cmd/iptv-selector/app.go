package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"

	"github.com/alorle/iptv-selector/config"
	"github.com/alorle/iptv-selector/fetcher"
	"github.com/alorle/iptv-selector/internal/adapter/driven"
	"github.com/alorle/iptv-selector/internal/application"
	"github.com/alorle/iptv-selector/internal/candidate"
	"github.com/alorle/iptv-selector/internal/lineup"
	"github.com/alorle/iptv-selector/internal/normalize"
	port "github.com/alorle/iptv-selector/internal/port/driven"
	"github.com/alorle/iptv-selector/logging"
	"github.com/alorle/iptv-selector/metrics"
)

// app holds the wired components of one process.
type app struct {
	cfg      *config.Config
	logger   *logrus.Logger
	db       *bbolt.DB
	pipeline *application.PipelineService
	history  *application.HistoryService
}

func newLogger(cfg *config.Config) *logrus.Logger {
	return logging.New(logging.ParseLogLevel(cfg.LogLevel), cfg.LogFormat)
}

// openHistory opens the probe history database. It returns nil values when
// storage is disabled.
func openHistory(cfg *config.Config) (*bbolt.DB, *driven.ProbeBoltDBRepository, error) {
	if cfg.Storage.DBPath == "" {
		return nil, nil, nil
	}

	db, err := bbolt.Open(cfg.Storage.DBPath, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo, err := driven.NewProbeBoltDBRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create probe repository: %w", err)
	}
	return db, repo, nil
}

func newApp(cfg *config.Config, logger *logrus.Logger) (*app, error) {
	normalizer, err := normalize.New(cfg.Rules, logging.NewNormalizeObserver(logger))
	if err != nil {
		return nil, &configError{err: err}
	}

	db, repo, err := openHistory(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, db: db}

	// Driven adapters
	playlistFetcher := fetcher.New(fetcher.Options{
		Timeout:        cfg.Fetch.Timeout,
		ConnectTimeout: cfg.Fetch.ConnectTimeout,
		UserAgent:      cfg.Fetch.UserAgent,
		Referer:        cfg.Fetch.Referer,
		MemoTTL:        cfg.Fetch.MemoTTL,
	}, logger)
	discoverer := driven.NewCandidateListSource(cfg.Candidates, cfg.CandidateList.URL, cfg.CandidateList.LocalCopy, playlistFetcher, logger)
	prober := driven.NewStreamHTTPProber(cfg.Probe.ConnectTimeout, cfg.Fetch.UserAgent, logger)
	checker := driven.NewSocketChecker(cfg.Probe.ConnectTimeout, cfg.Fetch.UserAgent, logger)
	downloader := driven.NewTimedDownloader(cfg.Probe.ConnectTimeout, cfg.Probe.ScratchDir, cfg.Fetch.UserAgent, logger)
	writer := driven.NewPlaylistFileWriter()

	// Application services
	var probeRepo port.ProbeRepository
	if repo != nil {
		probeRepo = repo
		a.history = application.NewHistoryService(repo, cfg.Storage.Retention)
	}

	recorder := metrics.Prometheus{}
	selection := application.NewSelectionService(
		playlistFetcher, prober, checker, downloader, probeRepo, normalizer, recorder, logger,
		application.SelectionOptions{
			Mode:             candidate.Mode(cfg.Mode),
			Budget:           cfg.Probe.Duration,
			ReferenceChannel: cfg.Probe.ReferenceChannel,
		},
	)
	playlists := application.NewPlaylistService(normalizer, lineup.FromRules(normalizer.Rules()), logger)
	a.pipeline = application.NewPipelineService(discoverer, playlistFetcher, selection, playlists, writer, a.history, recorder, logger,
		application.PipelineOptions{
			OutputPath:  cfg.Output.Path,
			PreviewSize: cfg.Output.Preview,
		},
	)

	return a, nil
}

// writeTextfile exports metrics for the node exporter when configured.
func (a *app) writeTextfile() {
	if a.cfg.Metrics.Textfile == "" {
		return
	}
	if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.WithError(err).WithField("path", a.cfg.Metrics.Textfile).Warn("Failed to write metrics textfile")
	}
}

func (a *app) close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database")
	}
}
