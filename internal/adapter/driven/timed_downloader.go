package driven

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alorle/iptv-selector/fetcher"
	"github.com/alorle/iptv-selector/internal/probe"
)

// TimedDownloader implements the TimedDownloader port by saving a stream
// into a scratch file for a fixed duration.
type TimedDownloader struct {
	httpClient *http.Client
	scratchDir string
	userAgent  string
	logger     logrus.FieldLogger
}

// NewTimedDownloader creates a downloader writing scratch files to dir, or
// to the system temp directory when dir is empty.
func NewTimedDownloader(connectTimeout time.Duration, dir, userAgent string, logger logrus.FieldLogger) *TimedDownloader {
	if userAgent == "" {
		userAgent = fetcher.DefaultUserAgent
	}
	return &TimedDownloader{
		httpClient: newStreamClient(connectTimeout),
		scratchDir: dir,
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Download pulls url for d and reports the bytes written and whether the
// file starts with a transport stream packet. The scratch file is removed
// before returning.
func (t *TimedDownloader) Download(ctx context.Context, url string, d time.Duration) (int64, bool, error) {
	scratch, err := os.CreateTemp(t.scratchDir, "probe-*.ts")
	if err != nil {
		return 0, false, fmt.Errorf("create scratch file: %w", err)
	}
	defer func() {
		scratch.Close()
		if err := os.Remove(scratch.Name()); err != nil {
			t.logger.WithError(err).WithField("path", scratch.Name()).Warn("failed to remove scratch file")
		}
	}()

	pullCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	req, err := http.NewRequestWithContext(pullCtx, http.MethodGet, url, nil)
	if err != nil {
		return 0, false, fmt.Errorf("invalid stream url: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, false, fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode)
	}

	written, err := io.Copy(scratch, resp.Body)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		t.logger.WithError(err).WithField("url", url).Debug("download ended early")
	}
	if ctx.Err() != nil {
		return written, false, ctx.Err()
	}

	head := make([]byte, probe.PacketSize)
	n, _ := scratch.ReadAt(head, 0)

	return written, probe.IsTransportStream(head[:n]), nil
}
