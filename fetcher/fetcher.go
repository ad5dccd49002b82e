package fetcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/alorle/iptv-selector/internal/candidate"
)

// DefaultUserAgent is sent when fetching playlists and streams.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options configures a Fetcher.
type Options struct {
	Timeout        time.Duration
	ConnectTimeout time.Duration
	UserAgent      string
	Referer        string
	// MemoTTL is how long a fetched body is reused for the same URL.
	// Zero disables the memo.
	MemoTTL time.Duration
}

// Fetcher retrieves playlist text over HTTP and memoizes successful
// responses, so a playlist read during evaluation is not downloaded again
// when it is processed.
type Fetcher struct {
	client    *http.Client
	memo      *gocache.Cache
	memoTTL   time.Duration
	userAgent string
	referer   string
	logger    logrus.FieldLogger
}

// New creates a Fetcher. An empty UserAgent falls back to DefaultUserAgent.
func New(opts Options, logger logrus.FieldLogger) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	f := &Fetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: opts.ConnectTimeout}).DialContext,
				TLSHandshakeTimeout:   opts.ConnectTimeout,
				ResponseHeaderTimeout: opts.Timeout,
			},
		},
		memoTTL:   opts.MemoTTL,
		userAgent: opts.UserAgent,
		referer:   opts.Referer,
		logger:    logger,
	}
	if opts.MemoTTL > 0 {
		f.memo = gocache.New(opts.MemoTTL, 2*opts.MemoTTL)
	}
	return f
}

// FetchText returns the body of url. Non-2xx statuses and transport
// failures are reported as *candidate.FetchError.
func (f *Fetcher) FetchText(ctx context.Context, url string) (string, error) {
	if f.memo != nil {
		if v, ok := f.memo.Get(url); ok {
			f.logger.WithField("url", url).Debug("serving memoized playlist")
			return v.(string), nil
		}
	}

	body, err := f.fetch(ctx, url)
	if err != nil {
		return "", err
	}

	if f.memo != nil {
		f.memo.Set(url, body, gocache.DefaultExpiration)
	}
	return body, nil
}

// Forget drops the memoized body of url.
func (f *Fetcher) Forget(url string) {
	if f.memo != nil {
		f.memo.Delete(url)
	}
}

// Reset drops every memoized body. It is called between pipeline runs.
func (f *Fetcher) Reset() {
	if f.memo != nil {
		f.memo.Flush()
	}
}

func (f *Fetcher) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &candidate.FetchError{URL: url, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if f.referer != "" {
		req.Header.Set("Referer", f.referer)
	}
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &candidate.FetchError{URL: url, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.logger.WithError(closeErr).Warn("failed to close response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &candidate.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &candidate.FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	f.logger.WithFields(logrus.Fields{
		"url":  url,
		"size": humanize.Bytes(uint64(len(content))),
	}).Debug("fetched playlist")

	return string(content), nil
}
