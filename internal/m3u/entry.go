package m3u

import "errors"

// DefaultHeader is emitted when the source playlist carried no start directive.
const DefaultHeader = "#EXTM3U"

// ErrNoEntries is returned when a playlist holds no usable channel entry.
var ErrNoEntries = errors.New("playlist contains no channel entries")

// Entry is one channel of a playlist.
//
// The parser fills the raw fields and copies them into their canonical
// counterparts; normalization returns a new Entry with canonical ID, Name,
// Logo and Group. Entries are passed by value and never modified in place.
type Entry struct {
	RawID   string
	ID      string
	RawName string
	Name    string
	Logo    string
	Group   string
	URL     string
}

// Playlist is a header line plus the ordered entries that follow it.
type Playlist struct {
	Header  string
	Entries []Entry
}
