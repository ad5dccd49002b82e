package normalize

import (
	"errors"
	"fmt"
	"strings"
)

// Placement policies for identities that carry the family prefix but no
// channel number.
const (
	PrefixOnlyAfterSatellite = "after_satellite"
	PrefixOnlyFamily         = "family"
)

// DefaultLogoBaseURL is the icon repository canonical logos point to.
const DefaultLogoBaseURL = "https://gcore.jsdelivr.net/gh/taksssss/tv/icon/"

var (
	ErrEmptyFamilyPrefix = errors.New("family prefix cannot be empty")
	ErrInvalidPolicy     = errors.New("invalid prefix-only policy")
)

// RuleSet is the canonicalization rule table. It is loaded from the rules
// section of the configuration file; zero-valued lists fall back to Default.
type RuleSet struct {
	FamilyPrefix      string            `yaml:"family_prefix"`
	HDMarker          string            `yaml:"hd_marker"`
	Typos             map[string]string `yaml:"typos"`
	PlusMarkers       []string          `yaml:"plus_markers"`
	TierMarkers       []string          `yaml:"tier_markers"`
	TierInIdentity    bool              `yaml:"tier_in_identity"`
	PreservedSuffixes []string          `yaml:"preserved_suffixes"`
	GenericTokens     []string          `yaml:"generic_tokens"`
	SatelliteSuffixes []string          `yaml:"satellite_suffixes"`
	LogoBaseURL       string            `yaml:"logo_base_url"`
	PrefixOnlyPolicy  string            `yaml:"prefix_only_policy"`
	IdentityFromName  bool              `yaml:"identity_from_name"`
}

// Default returns the rule table used for mainland China playlists.
func Default() RuleSet {
	return RuleSet{
		FamilyPrefix:      "CCTV",
		HDMarker:          "高清",
		Typos:             map[string]string{"CCVT": "CCTV"},
		PlusMarkers:       []string{"+", "＋"},
		TierMarkers:       []string{"4K", "8K"},
		PreservedSuffixes: []string{"新闻", "体育", "综艺", "电影", "少儿", "音乐", "戏曲", "农业", "科教"},
		GenericTokens:     []string{"-综合", "综合", "HD", "UHD", "FHD", "超清", "标清", " "},
		SatelliteSuffixes: []string{"卫视", "卫視"},
		LogoBaseURL:       DefaultLogoBaseURL,
		PrefixOnlyPolicy:  PrefixOnlyAfterSatellite,
		IdentityFromName:  true,
	}
}

// WithDefaults fills empty fields from Default.
func (r RuleSet) WithDefaults() RuleSet {
	d := Default()
	if r.FamilyPrefix == "" {
		r.FamilyPrefix = d.FamilyPrefix
	}
	if r.HDMarker == "" {
		r.HDMarker = d.HDMarker
	}
	if r.Typos == nil {
		r.Typos = d.Typos
	}
	if len(r.PlusMarkers) == 0 {
		r.PlusMarkers = d.PlusMarkers
	}
	if len(r.TierMarkers) == 0 {
		r.TierMarkers = d.TierMarkers
	}
	if len(r.PreservedSuffixes) == 0 {
		r.PreservedSuffixes = d.PreservedSuffixes
	}
	if len(r.GenericTokens) == 0 {
		r.GenericTokens = d.GenericTokens
	}
	if len(r.SatelliteSuffixes) == 0 {
		r.SatelliteSuffixes = d.SatelliteSuffixes
	}
	if r.LogoBaseURL == "" {
		r.LogoBaseURL = d.LogoBaseURL
	}
	if r.PrefixOnlyPolicy == "" {
		r.PrefixOnlyPolicy = d.PrefixOnlyPolicy
	}
	return r
}

// Validate checks the rule table for values the normalizer cannot work with.
func (r RuleSet) Validate() error {
	if strings.TrimSpace(r.FamilyPrefix) == "" {
		return ErrEmptyFamilyPrefix
	}
	switch r.PrefixOnlyPolicy {
	case PrefixOnlyAfterSatellite, PrefixOnlyFamily:
	default:
		return fmt.Errorf("%w: %q (must be %s or %s)", ErrInvalidPolicy, r.PrefixOnlyPolicy, PrefixOnlyAfterSatellite, PrefixOnlyFamily)
	}
	return nil
}
