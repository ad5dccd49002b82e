package lineup

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/alorle/iptv-selector/internal/m3u"
	"github.com/alorle/iptv-selector/internal/normalize"
)

// MissingOrdinal is the ordinal of family identities without a channel
// number; it places them after every numbered channel.
const MissingOrdinal = math.MaxInt

// Category is the coarse position of a channel in the lineup.
type Category int

const (
	CategoryNumbered Category = iota
	CategorySatellite
	CategoryPrefixOnly
	CategoryOther
)

func (c Category) String() string {
	switch c {
	case CategoryNumbered:
		return "numbered"
	case CategorySatellite:
		return "satellite"
	case CategoryPrefixOnly:
		return "prefix_only"
	default:
		return "other"
	}
}

// Key is the sort key of a canonical identity.
type Key struct {
	Rank    int
	Ordinal int
	ID      string
}

// Less orders keys by rank, then ordinal, then byte-wise identity.
func (k Key) Less(o Key) bool {
	if k.Rank != o.Rank {
		return k.Rank < o.Rank
	}
	if k.Ordinal != o.Ordinal {
		return k.Ordinal < o.Ordinal
	}
	return k.ID < o.ID
}

// Order classifies and sorts canonical identities.
type Order struct {
	prefix     string
	satellites []string
	policy     string
}

// NewOrder creates an Order. An unknown policy behaves as
// normalize.PrefixOnlyAfterSatellite.
func NewOrder(prefix string, satellites []string, policy string) Order {
	return Order{prefix: prefix, satellites: satellites, policy: policy}
}

// FromRules creates the Order described by a rule table.
func FromRules(r normalize.RuleSet) Order {
	r = r.WithDefaults()
	return NewOrder(r.FamilyPrefix, r.SatelliteSuffixes, r.PrefixOnlyPolicy)
}

// Classify returns the category of a canonical identity.
func (o Order) Classify(id string) Category {
	if o.prefix != "" && strings.HasPrefix(id, o.prefix) {
		if strings.IndexFunc(id[len(o.prefix):], unicode.IsDigit) != -1 {
			return CategoryNumbered
		}
	}

	for _, s := range o.satellites {
		if s != "" && strings.HasSuffix(id, s) {
			return CategorySatellite
		}
	}

	if o.prefix != "" && strings.HasPrefix(id, o.prefix) {
		return CategoryPrefixOnly
	}

	return CategoryOther
}

// Ordinal returns the channel number directly following the family prefix,
// or MissingOrdinal.
func (o Order) Ordinal(id string) int {
	if !strings.HasPrefix(id, o.prefix) {
		return MissingOrdinal
	}

	rest := strings.TrimLeft(id[len(o.prefix):], "- ")
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return MissingOrdinal
	}

	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return MissingOrdinal
	}
	return n
}

// Key returns the sort key of a canonical identity.
func (o Order) Key(id string) Key {
	switch o.Classify(id) {
	case CategoryNumbered:
		return Key{Rank: 0, Ordinal: o.Ordinal(id), ID: id}
	case CategorySatellite:
		return Key{Rank: 1, ID: id}
	case CategoryPrefixOnly:
		if o.policy == normalize.PrefixOnlyFamily {
			return Key{Rank: 0, Ordinal: MissingOrdinal, ID: id}
		}
		return Key{Rank: 2, ID: id}
	default:
		if o.policy == normalize.PrefixOnlyFamily {
			return Key{Rank: 2, ID: id}
		}
		return Key{Rank: 3, ID: id}
	}
}

// Sort returns the entries ordered by the key of their canonical identity.
// The input slice is not modified.
func (o Order) Sort(entries []m3u.Entry) []m3u.Entry {
	keys := make([]Key, len(entries))
	for i, e := range entries {
		keys[i] = o.Key(e.ID)
	}

	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]].Less(keys[idx[b]])
	})

	out := make([]m3u.Entry, len(entries))
	for i, j := range idx {
		out[i] = entries[j]
	}
	return out
}
