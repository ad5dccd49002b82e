package m3u

import "strings"

// Parse converts playlist text into its header and entries.
//
// The first line is kept as the header when it is a start directive. Each
// EXTINF line paired with the next non-blank, non-directive line becomes an
// entry, in parse order. An EXTINF line without such a line is dropped; the
// number of dropped entries is returned alongside the playlist.
func Parse(text string) (Playlist, int) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}

	var pl Playlist
	if len(lines) > 0 && strings.HasPrefix(lines[0], startDirective) {
		pl.Header = lines[0]
		lines = lines[1:]
	}

	dropped := 0
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if !strings.HasPrefix(line, infoDirective) {
			continue
		}

		next := i + 1
		for next < len(lines) && strings.TrimSpace(lines[next]) == "" {
			next++
		}
		if next >= len(lines) || strings.HasPrefix(strings.TrimSpace(lines[next]), "#") {
			// The following directive is examined on its own.
			dropped++
			continue
		}

		pl.Entries = append(pl.Entries, entryFromInfo(line, lines[next]))
		i = next
	}

	return pl, dropped
}
