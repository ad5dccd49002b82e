package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alorle/iptv-selector/internal/adapter/driver"
	"github.com/alorle/iptv-selector/internal/application"
	"github.com/alorle/iptv-selector/logging"
)

// runOnce executes a single pipeline run.
func runOnce(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err = a.pipeline.Run(ctx)
	a.writeTextfile()
	return err
}

// runServe publishes the playlist over HTTP and refreshes it on the
// configured schedule.
func runServe(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	refresh := func() {
		_, _ = a.pipeline.Run(ctx)
		a.writeTextfile()
	}

	scheduler := cron.New(cron.WithChain(
		cron.Recover(cronLogger{logger}),
		cron.SkipIfStillRunning(cronLogger{logger}),
	))
	refreshID, err := scheduler.AddFunc(cfg.Serve.Schedule, refresh)
	if err != nil {
		return &configError{err: fmt.Errorf("invalid schedule %q: %w", cfg.Serve.Schedule, err)}
	}

	handlers := driver.Handlers{
		Playlist: driver.NewPlaylistHTTPHandler(cfg.Output.Path, logger),
		Health:   driver.NewHealthHTTPHandler(application.NewHealthService(a.pipeline, cfg.Output.Path)),
		Run:      driver.NewRunHTTPHandler(a.pipeline, logger),
	}
	if a.history != nil {
		handlers.History = driver.NewHistoryHTTPHandler(a.history, logger)
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Serve.Address, cfg.Serve.Port),
		Handler:      driver.NewRouter(handlers, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", server.Addr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	waitStartup := startRefresh(scheduler, refreshID)
	scheduler.Start()
	logger.WithField("schedule", cfg.Serve.Schedule).Info("Scheduler started")

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, shutting down gracefully")
	case err := <-serverErr:
		stop()
		<-scheduler.Stop().Done()
		waitStartup()
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown error")
	}
	<-scheduler.Stop().Done()
	waitStartup()

	logger.Info("Server stopped")
	return nil
}

// startRefresh runs the job id once right away through its wrapped chain, so
// a scheduled tick is skipped while it is still running. The returned func
// blocks until that run is done.
func startRefresh(scheduler *cron.Cron, id cron.EntryID) (wait func()) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Entry(id).WrappedJob.Run()
	}()
	return wg.Wait
}

// runHistory prints stored probe outcomes.
func runHistory(cmd *cobra.Command, opts *options, out io.Writer) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	if cfg.Storage.DBPath == "" {
		return &configError{err: errors.New("storage.db_path is required for history")}
	}
	if _, err := os.Stat(cfg.Storage.DBPath); err != nil {
		return fmt.Errorf("probe history: %w", err)
	}

	a, err := newApp(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer a.close()

	window, _ := cmd.Flags().GetDuration("window")
	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() { _ = tw.Flush() }()

	if source != "" {
		records, err := a.history.Recent(cmd.Context(), source, limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "TIME\tMODE\tSUCCESS\tSPEED\tREASON")
		for _, r := range records {
			res := r.Result()
			fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n",
				humanize.Time(r.Timestamp()), r.Mode(), res.Success(), logging.SpeedString(res.Throughput()), res.Reason())
		}
		return nil
	}

	var since time.Time
	if window > 0 {
		since = time.Now().Add(-window)
	}
	summaries, err := a.history.Summaries(cmd.Context(), since)
	if err != nil {
		return err
	}

	fmt.Fprintln(tw, "SOURCE\tPROBES\tSUCCESS\tAVG SPEED\tSTDDEV")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%.0f%%\t%s\t%s\n",
			s.Source(), s.TotalProbes(), s.SuccessRatio()*100,
			logging.SpeedString(s.AvgThroughput()), logging.SpeedString(s.ThroughputStdDev()))
	}
	return nil
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	logger logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.WithError(err).WithFields(kvFields(keysAndValues)).Error(msg)
}

func kvFields(keysAndValues []any) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
