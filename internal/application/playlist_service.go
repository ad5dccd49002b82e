package application

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/alorle/iptv-selector/internal/lineup"
	"github.com/alorle/iptv-selector/internal/m3u"
	"github.com/alorle/iptv-selector/internal/normalize"
)

// PlaylistService turns a raw candidate playlist into the published lineup.
type PlaylistService struct {
	normalizer *normalize.Normalizer
	order      lineup.Order
	logger     logrus.FieldLogger
}

// NewPlaylistService creates a new PlaylistService.
func NewPlaylistService(normalizer *normalize.Normalizer, order lineup.Order, logger logrus.FieldLogger) *PlaylistService {
	return &PlaylistService{
		normalizer: normalizer,
		order:      order,
		logger:     logger,
	}
}

// Process parses text, normalizes every entry, removes duplicates and sorts
// the result into lineup order. The source header line is kept. It returns
// m3u.ErrNoEntries when nothing survives parsing.
func (p *PlaylistService) Process(text string) (m3u.Playlist, lineup.Summary, error) {
	parsed, dropped := m3u.Parse(text)
	if dropped > 0 {
		p.logger.WithField("dropped", dropped).Warn("Dropped malformed playlist entries")
	}
	if len(parsed.Entries) == 0 {
		return m3u.Playlist{}, lineup.Summary{}, m3u.ErrNoEntries
	}

	normalized := p.normalizer.Entries(parsed.Entries)
	arranged, summary := p.order.Arrange(normalized)

	p.logger.WithFields(logrus.Fields{
		"parsed":      summary.Parsed,
		"duplicates":  summary.Duplicates,
		"numbered":    summary.Counts.Numbered,
		"satellite":   summary.Counts.Satellite,
		"prefix_only": summary.Counts.PrefixOnly,
		"other":       summary.Counts.Other,
	}).Info("Lineup arranged")

	return m3u.Playlist{Header: parsed.Header, Entries: arranged}, summary, nil
}

// Preview renders the first n entries of pl, one per line, as
// "position. name [id]".
func (p *PlaylistService) Preview(pl m3u.Playlist, n int) string {
	if n <= 0 || n > len(pl.Entries) {
		n = len(pl.Entries)
	}

	var b strings.Builder
	for i, e := range pl.Entries[:n] {
		fmt.Fprintf(&b, "%d. %s [%s]\n", i+1, e.Name, e.ID)
	}
	return b.String()
}

// ByCategory returns the summary counts keyed by category name.
func ByCategory(c lineup.Counts) map[string]int {
	return map[string]int{
		lineup.CategoryNumbered.String():   c.Numbered,
		lineup.CategorySatellite.String():  c.Satellite,
		lineup.CategoryPrefixOnly.String(): c.PrefixOnly,
		lineup.CategoryOther.String():      c.Other,
	}
}
