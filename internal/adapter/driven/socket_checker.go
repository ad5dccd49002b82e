package driven

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alorle/iptv-selector/fetcher"
	"github.com/alorle/iptv-selector/internal/probe"
)

// SocketChecker implements the ReachabilityChecker port. It dials the
// stream host directly, issues a minimal GET and checks that the first
// packet of the body carries the transport stream sync byte.
type SocketChecker struct {
	timeout   time.Duration
	userAgent string
	logger    logrus.FieldLogger
}

// NewSocketChecker creates a checker whose dial, write and read operations
// share timeout.
func NewSocketChecker(timeout time.Duration, userAgent string, logger logrus.FieldLogger) *SocketChecker {
	if userAgent == "" {
		userAgent = fetcher.DefaultUserAgent
	}
	return &SocketChecker{timeout: timeout, userAgent: userAgent, logger: logger}
}

// Check reports whether rawURL answers with a transport stream. Network
// failures are returned as errors; a reachable non-stream yields false.
func (c *SocketChecker) Check(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("invalid stream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	conn, err := c.dial(ctx, u)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return false, err
	}

	request := fmt.Sprintf("GET %s HTTP/1.1\r\nHost: %s\r\nUser-Agent: %s\r\nAccept: */*\r\nConnection: close\r\n\r\n",
		u.RequestURI(), u.Host, c.userAgent)
	if _, err := io.WriteString(conn, request); err != nil {
		return false, fmt.Errorf("write request: %w", err)
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WithFields(logrus.Fields{"url": rawURL, "status": resp.StatusCode}).Debug("socket check rejected")
		return false, nil
	}

	head := make([]byte, probe.PacketSize)
	n, err := io.ReadFull(resp.Body, head)
	if err != nil && n == 0 {
		return false, fmt.Errorf("read body: %w", err)
	}

	return probe.IsTransportStream(head[:n]), nil
}

func (c *SocketChecker) dial(ctx context.Context, u *url.URL) (net.Conn, error) {
	addr := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		addr = net.JoinHostPort(u.Hostname(), port)
	}

	dialer := &net.Dialer{Timeout: c.timeout}

	if u.Scheme == "https" {
		td := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: u.Hostname()}}
		conn, err := td.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		return conn, nil
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, nil
}
