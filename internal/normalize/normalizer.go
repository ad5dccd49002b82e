package normalize

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/width"

	"github.com/alorle/iptv-selector/internal/m3u"
)

var (
	spaceRun        = regexp.MustCompile(`\s+`)
	hyphenRun       = regexp.MustCompile(`-{2,}`)
	unsafeFileChars = regexp.MustCompile(`[<>:"/\\|?*]`)
)

type target int

const (
	targetIdentity target = iota
	targetDisplayName
)

type typo struct {
	re *regexp.Regexp
	to string
}

// Normalizer canonicalizes channel entries according to a RuleSet.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	rules    RuleSet
	family   *regexp.Regexp
	typos    []typo
	tokens   []string
	observer Observer
}

// New compiles rules into a Normalizer. A nil observer discards diagnostics.
func New(rules RuleSet, observer Observer) (*Normalizer, error) {
	rules = rules.WithDefaults()
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if observer == nil {
		observer = NopObserver{}
	}

	family := regexp.MustCompile(`^(?i:` + regexp.QuoteMeta(rules.FamilyPrefix) + `)[-\s]?(\d+)(.*)$`)

	froms := make([]string, 0, len(rules.Typos))
	for from := range rules.Typos {
		froms = append(froms, from)
	}
	sort.Strings(froms)

	typos := make([]typo, 0, len(froms))
	for _, from := range froms {
		if from == "" {
			continue
		}
		typos = append(typos, typo{
			re: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(from)),
			to: rules.Typos[from],
		})
	}

	// Longer tokens first so HD does not eat into UHD.
	tokens := append([]string(nil), rules.GenericTokens...)
	sort.SliceStable(tokens, func(i, j int) bool { return len(tokens[i]) > len(tokens[j]) })

	return &Normalizer{rules: rules, family: family, typos: typos, tokens: tokens, observer: observer}, nil
}

// Rules returns the effective rule table.
func (n *Normalizer) Rules() RuleSet {
	return n.rules
}

// Identity returns the canonical identity used as the dedup key.
func (n *Normalizer) Identity(raw string) string {
	return n.canonical(raw, targetIdentity)
}

// DisplayName returns the canonical display name. Repeated whitespace and
// hyphens are collapsed.
func (n *Normalizer) DisplayName(raw string) string {
	return n.canonical(raw, targetDisplayName)
}

// Group strips the HD marker from a group label.
func (n *Normalizer) Group(raw string) string {
	return strings.ReplaceAll(raw, n.rules.HDMarker, "")
}

// Logo returns the canonical logo reference. With a canonical identity the
// logo points at the icon repository; otherwise the basename of the current
// logo is canonicalized, and the logo is returned unchanged when that has no
// effect.
func (n *Normalizer) Logo(logo, identity string) string {
	if identity != "" {
		return n.rules.LogoBaseURL + sanitize(identity) + ".png"
	}
	if logo == "" {
		return logo
	}

	dir, file := "", logo
	if idx := strings.LastIndex(logo, "/"); idx != -1 {
		dir, file = logo[:idx+1], logo[idx+1:]
	}
	ext := path.Ext(file)
	stem := strings.TrimSuffix(file, ext)

	canonical := n.Identity(stem)
	if canonical == stem {
		return logo
	}
	return dir + sanitize(canonical) + ext
}

// Entry returns a copy of e with canonical identity, name, logo and group.
// Only the raw fields of e are read, so normalizing twice gives the same result.
func (n *Normalizer) Entry(e m3u.Entry) m3u.Entry {
	out := e
	id := n.Identity(e.RawID)
	out.Name = n.DisplayName(e.RawName)
	out.Group = n.Group(e.Group)

	if id == "" && n.rules.IdentityFromName && out.Name != "" {
		id = out.Name
		n.observer.IdentityFromName(e.RawName, id)
	}
	out.ID = id
	out.Logo = n.Logo(e.Logo, id)

	return out
}

// Entries normalizes every entry, preserving order.
func (n *Normalizer) Entries(entries []m3u.Entry) []m3u.Entry {
	out := make([]m3u.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, n.Entry(e))
	}
	return out
}

func (n *Normalizer) canonical(raw string, t target) string {
	if raw == "" {
		return raw
	}

	s := width.Fold.String(raw)
	s = strings.ReplaceAll(s, n.rules.HDMarker, "")

	for _, ty := range n.typos {
		if fixed := ty.re.ReplaceAllString(s, ty.to); fixed != s {
			n.observer.TypoCorrected(s, fixed)
			s = fixed
		}
	}
	if t == targetDisplayName {
		s = spaceRun.ReplaceAllString(s, " ")
		s = hyphenRun.ReplaceAllString(s, "-")
	}
	s = strings.TrimSpace(s)

	m := n.family.FindStringSubmatch(s)
	if m == nil {
		return s
	}

	prefix, num, suffix := n.rules.FamilyPrefix, m[1], strings.TrimSpace(m[2])

	if hasAffix(suffix, n.rules.PlusMarkers) {
		return prefix + num + "+"
	}

	if t == targetDisplayName || n.rules.TierInIdentity {
		if tier, ok := n.tier(num, suffix); ok {
			return prefix + tier
		}
	}

	for _, ps := range n.rules.PreservedSuffixes {
		if strings.HasSuffix(suffix, ps) || strings.Contains(suffix, "-"+ps) {
			return prefix + num + "-" + ps
		}
	}

	leftover := suffix
	for _, token := range n.tokens {
		leftover = strings.ReplaceAll(leftover, token, "")
	}
	if leftover = strings.Trim(leftover, "- "); leftover != "" {
		n.observer.UnknownSuffix(raw, leftover)
	}

	return prefix + num
}

// tier matches a resolution tier either formed by the channel number itself
// (CCTV4K) or following it (CCTV16 4K).
func (n *Normalizer) tier(num, suffix string) (string, bool) {
	joined := strings.ToUpper(num + suffix)
	upper := strings.ToUpper(suffix)
	for _, marker := range n.rules.TierMarkers {
		m := strings.ToUpper(marker)
		if len(m) > len(num) && strings.HasPrefix(joined, m) {
			return m, true
		}
	}
	for _, marker := range n.rules.TierMarkers {
		m := strings.ToUpper(marker)
		if strings.Contains(upper, m) {
			return num + "-" + m, true
		}
	}
	return "", false
}

func hasAffix(s string, markers []string) bool {
	for _, m := range markers {
		if m != "" && (strings.HasPrefix(s, m) || strings.HasSuffix(s, m)) {
			return true
		}
	}
	return false
}

func sanitize(s string) string {
	return unsafeFileChars.ReplaceAllString(s, "")
}
