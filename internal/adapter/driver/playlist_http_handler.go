package driver

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/alorle/iptv-selector/logging"
)

// PlaylistHTTPHandler serves the most recently written output playlist.
type PlaylistHTTPHandler struct {
	path   string
	logger logrus.FieldLogger
}

// NewPlaylistHTTPHandler creates a new HTTP handler for the output playlist.
func NewPlaylistHTTPHandler(path string, logger logrus.FieldLogger) *PlaylistHTTPHandler {
	return &PlaylistHTTPHandler{path: path, logger: logger}
}

// ServeHTTP handles GET /playlist.m3u
func (h *PlaylistHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.WriteJSONError(w, h.logger, "playlist not generated yet", http.StatusServiceUnavailable, logrus.Fields{"path": h.path})
		return
	}
	if err != nil {
		logging.WriteJSONError(w, h.logger, "internal server error", http.StatusInternalServerError, logrus.Fields{"path": h.path, "error": err.Error()})
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		logging.WriteJSONError(w, h.logger, "internal server error", http.StatusInternalServerError, logrus.Fields{"path": h.path, "error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "audio/mpegurl")
	http.ServeContent(w, r, filepath.Base(h.path), info.ModTime(), f)
}
