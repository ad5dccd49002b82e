package driven

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/alorle/iptv-selector/internal/candidate"
	"github.com/alorle/iptv-selector/internal/port/driven"
)

// CandidateListSource implements the CandidateDiscoverer port. It combines
// statically configured playlist URLs with a remote URL list. A successful
// download of the list is mirrored to a local copy, which is read instead
// when the download fails.
type CandidateListSource struct {
	static    []string
	listURL   string
	localCopy string
	fetcher   driven.PlaylistFetcher
	logger    logrus.FieldLogger
}

// NewCandidateListSource creates a discoverer. listURL and localCopy may be
// empty to disable the remote list or its mirror.
func NewCandidateListSource(static []string, listURL, localCopy string, fetcher driven.PlaylistFetcher, logger logrus.FieldLogger) *CandidateListSource {
	return &CandidateListSource{
		static:    static,
		listURL:   listURL,
		localCopy: localCopy,
		fetcher:   fetcher,
		logger:    logger,
	}
}

// Discover returns static candidates first, then the listed ones, without
// duplicates.
func (s *CandidateListSource) Discover(ctx context.Context) ([]candidate.Source, error) {
	urls := append([]string(nil), s.static...)

	if s.listURL != "" {
		listed, err := s.listed(ctx)
		if err != nil {
			s.logger.WithError(err).WithField("list_url", s.listURL).Warn("candidate list unavailable")
		}
		urls = append(urls, listed...)
	}

	sources := make([]candidate.Source, 0, len(urls))
	for _, raw := range urls {
		src, err := candidate.NewSource(raw, "", endpointOf(raw))
		if err != nil {
			continue
		}
		sources = append(sources, src)
	}

	return candidate.Unique(sources), nil
}

func (s *CandidateListSource) listed(ctx context.Context) ([]string, error) {
	text, fetchErr := s.fetcher.FetchText(ctx, s.listURL)
	if fetchErr == nil {
		if s.localCopy != "" {
			if err := os.WriteFile(s.localCopy, []byte(text), 0644); err != nil {
				s.logger.WithError(err).WithField("path", s.localCopy).Warn("failed to save candidate list copy")
			}
		}
		return ParseURLList(text), nil
	}

	if s.localCopy == "" {
		return nil, fetchErr
	}

	data, err := os.ReadFile(s.localCopy)
	if err != nil {
		return nil, errors.Join(fetchErr, fmt.Errorf("read local copy: %w", err))
	}

	s.logger.WithError(fetchErr).WithField("path", s.localCopy).Warn("using local copy of candidate list")
	return ParseURLList(string(data)), nil
}

// ParseURLList returns the trimmed lines of text that start with "http".
func ParseURLList(text string) []string {
	var urls []string
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "http") {
			urls = append(urls, line)
		}
	}
	return urls
}

func endpointOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return u.Host
}
