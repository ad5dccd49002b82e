package m3u

import (
	"regexp"
	"strings"
)

const (
	startDirective = "#EXTM3U"
	infoDirective  = "#EXTINF:"
)

var (
	tvgIDRegex      = regexp.MustCompile(`tvg-id="([^"]*)"`)
	tvgLogoRegex    = regexp.MustCompile(`tvg-logo="([^"]*)"`)
	groupTitleRegex = regexp.MustCompile(`group-title="([^"]*)"`)
)

func extract(re *regexp.Regexp, line string) string {
	if m := re.FindStringSubmatch(line); len(m) > 1 {
		return m[1]
	}
	return ""
}

// displayName returns the text after the last comma of an EXTINF line,
// trimmed, or "" when the line has no comma.
func displayName(extinf string) string {
	idx := strings.LastIndex(extinf, ",")
	if idx == -1 {
		return ""
	}
	return strings.TrimSpace(extinf[idx+1:])
}

// entryFromInfo builds a raw Entry from an EXTINF line and its stream URL.
func entryFromInfo(extinf, url string) Entry {
	id := extract(tvgIDRegex, extinf)
	name := displayName(extinf)
	return Entry{
		RawID:   id,
		ID:      id,
		RawName: name,
		Name:    name,
		Logo:    extract(tvgLogoRegex, extinf),
		Group:   extract(groupTitleRegex, extinf),
		URL:     strings.TrimSpace(url),
	}
}
