package lineup

import "github.com/alorle/iptv-selector/internal/m3u"

// Counts holds the number of entries per category.
type Counts struct {
	Numbered   int
	Satellite  int
	PrefixOnly int
	Other      int
}

// Total returns the number of counted entries.
func (c Counts) Total() int {
	return c.Numbered + c.Satellite + c.PrefixOnly + c.Other
}

// Summary describes the outcome of Arrange.
type Summary struct {
	Parsed     int
	Duplicates int
	Counts     Counts
}

// Dedup keeps one entry per canonical identity. When identities collide the
// later entry replaces the earlier one at the earlier one's position. The
// number of replaced entries is returned.
func Dedup(entries []m3u.Entry) ([]m3u.Entry, int) {
	out := make([]m3u.Entry, 0, len(entries))
	index := make(map[string]int, len(entries))
	duplicates := 0

	for _, e := range entries {
		if i, ok := index[e.ID]; ok {
			out[i] = e
			duplicates++
			continue
		}
		index[e.ID] = len(out)
		out = append(out, e)
	}

	return out, duplicates
}

// Count tallies entries per category.
func (o Order) Count(entries []m3u.Entry) Counts {
	var c Counts
	for _, e := range entries {
		switch o.Classify(e.ID) {
		case CategoryNumbered:
			c.Numbered++
		case CategorySatellite:
			c.Satellite++
		case CategoryPrefixOnly:
			c.PrefixOnly++
		default:
			c.Other++
		}
	}
	return c
}

// Arrange deduplicates normalized entries and sorts them into lineup order.
func (o Order) Arrange(entries []m3u.Entry) ([]m3u.Entry, Summary) {
	unique, duplicates := Dedup(entries)
	sorted := o.Sort(unique)

	return sorted, Summary{
		Parsed:     len(entries),
		Duplicates: duplicates,
		Counts:     o.Count(sorted),
	}
}
