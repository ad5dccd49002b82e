package driven

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/alorle/iptv-selector/fetcher"
	"github.com/alorle/iptv-selector/internal/probe"
)

// StreamHTTPProber implements the StreamProber port with a deadline-bound
// HTTP GET that counts bytes as they arrive.
type StreamHTTPProber struct {
	httpClient *http.Client
	userAgent  string
	logger     logrus.FieldLogger
}

// NewStreamHTTPProber creates a prober. connectTimeout bounds dialing, the
// TLS handshake and the wait for response headers.
func NewStreamHTTPProber(connectTimeout time.Duration, userAgent string, logger logrus.FieldLogger) *StreamHTTPProber {
	if userAgent == "" {
		userAgent = fetcher.DefaultUserAgent
	}
	return &StreamHTTPProber{
		httpClient: newStreamClient(connectTimeout),
		userAgent:  userAgent,
		logger:     logger,
	}
}

// newStreamClient returns a client without an overall timeout; callers
// bound each pull with a context deadline.
func newStreamClient(connectTimeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
			TLSHandshakeTimeout:   connectTimeout,
			ResponseHeaderTimeout: connectTimeout,
			DisableKeepAlives:     true,
		},
	}
}

// Probe pulls url until budget elapses or the server closes the stream.
// Reaching the deadline is the normal end of a probe. Throughput is always
// taken over the full budget, so a body that ends early is not rewarded.
func (p *StreamHTTPProber) Probe(ctx context.Context, url string, budget time.Duration) probe.Result {
	pullCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(pullCtx, http.MethodGet, url, nil)
	if err != nil {
		return probe.Failed(fmt.Sprintf("invalid stream url: %v", err))
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.WithError(err).WithField("url", url).Debug("stream unreachable")
		return probe.Failed(fmt.Sprintf("unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return probe.Failed(fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	sampler := probe.NewSampler()
	_, err = io.Copy(sampler, resp.Body)
	elapsed := time.Since(start)
	if elapsed < budget {
		elapsed = budget
	}

	if ctx.Err() != nil {
		return probe.Failed(fmt.Sprintf("probe canceled: %v", ctx.Err()))
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		p.logger.WithError(err).WithField("url", url).Debug("stream pull ended early")
	}

	result, err := probe.Measure(sampler.Count(), elapsed, sampler.Head())
	if err != nil {
		return probe.Failed(err.Error())
	}

	p.logger.WithFields(logrus.Fields{
		"url":        url,
		"bytes":      humanize.Bytes(uint64(result.Bytes())),
		"speed":      humanize.Bytes(uint64(result.Throughput())) + "/s",
		"recognized": result.Recognized(),
	}).Debug("stream probed")

	return result
}
