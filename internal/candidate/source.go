package candidate

import (
	"net/url"
	"strings"
)

// Source is a playlist endpoint that competes to become the published
// playlist. It is created by discovery and read-only afterwards.
type Source struct {
	url      string
	name     string
	endpoint string
}

// NewSource creates a Source for the given playlist URL.
// The name defaults to the URL host; endpoint carries optional discovery
// details such as the upstream "ip:port" a list entry was derived from.
// Returns ErrEmptyURL if rawURL is empty or contains only whitespace.
func NewSource(rawURL, name, endpoint string) (Source, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Source{}, ErrEmptyURL
	}

	name = strings.TrimSpace(name)
	if name == "" {
		if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
			name = u.Host
		} else {
			name = rawURL
		}
	}

	return Source{
		url:      rawURL,
		name:     name,
		endpoint: strings.TrimSpace(endpoint),
	}, nil
}

func (s Source) URL() string      { return s.url }
func (s Source) Name() string     { return s.name }
func (s Source) Endpoint() string { return s.endpoint }

// Unique drops sources whose URL was already seen, keeping input order.
func Unique(sources []Source) []Source {
	seen := make(map[string]bool, len(sources))
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		if seen[s.url] {
			continue
		}
		seen[s.url] = true
		out = append(out, s)
	}
	return out
}
