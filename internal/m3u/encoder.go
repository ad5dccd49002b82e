package m3u

import (
	"fmt"
	"io"
	"strings"
)

type encoder struct {
	header string
	items  []Entry
}

// NewEncoder returns an encoder that writes header first, or DefaultHeader
// when header is empty.
func NewEncoder(header string) *encoder {
	if strings.TrimSpace(header) == "" {
		header = DefaultHeader
	}
	return &encoder{header: header, items: []Entry{}}
}

func (p *encoder) AddEntry(e Entry) {
	p.items = append(p.items, e)
}

// Encode writes the header followed by two lines per entry.
func (p *encoder) Encode(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s\n", p.header); err != nil {
		return err
	}

	for _, e := range p.items {
		if err := encodeEntry(w, e); err != nil {
			return err
		}
	}

	return nil
}

func encodeEntry(w io.Writer, e Entry) error {
	if _, err := fmt.Fprintf(w, "%s-1 tvg-id=\"%s\"", infoDirective, e.ID); err != nil {
		return err
	}

	if e.Logo != "" {
		if _, err := fmt.Fprintf(w, " tvg-logo=\"%s\"", e.Logo); err != nil {
			return err
		}
	}

	if e.Group != "" {
		if _, err := fmt.Fprintf(w, " group-title=\"%s\"", e.Group); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, ",%s\n%s\n", e.Name, e.URL); err != nil {
		return err
	}

	return nil
}

// Encode writes the playlist in the standard two-lines-per-channel layout.
func (pl Playlist) Encode(w io.Writer) error {
	enc := NewEncoder(pl.Header)
	for _, e := range pl.Entries {
		enc.AddEntry(e)
	}
	return enc.Encode(w)
}

// String returns the encoded playlist.
func (pl Playlist) String() string {
	var b strings.Builder
	_ = pl.Encode(&b)
	return b.String()
}
