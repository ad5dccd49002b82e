package driven

import "context"

// PlaylistWriter persists the produced playlist.
type PlaylistWriter interface {
	// Write stores data at path. Either the whole content is visible at
	// path afterwards or nothing changed.
	Write(ctx context.Context, path string, data []byte) error
}
