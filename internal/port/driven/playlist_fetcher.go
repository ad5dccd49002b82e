package driven

import "context"

// PlaylistFetcher retrieves playlist text over HTTP. Implementations may
// memoize successful bodies.
type PlaylistFetcher interface {
	// FetchText returns the response body of url. A non-2xx status or a
	// timeout yields a *candidate.FetchError.
	FetchText(ctx context.Context, url string) (string, error)

	// Forget drops the memoized body of url, if any.
	Forget(url string)

	// Reset drops every memoized body, so the next fetch of any url goes
	// to the network.
	Reset()
}
