package driver

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Handlers groups the HTTP handlers mounted by NewRouter. History and Run
// are optional.
type Handlers struct {
	Playlist *PlaylistHTTPHandler
	Health   *HealthHTTPHandler
	History  *HistoryHTTPHandler
	Run      *RunHTTPHandler
}

// NewRouter configures all HTTP routes.
func NewRouter(h Handlers, logger logrus.FieldLogger) *mux.Router {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware(logger))

	r.Handle("/playlist.m3u", h.Playlist).Methods(http.MethodGet, http.MethodHead)
	r.Handle("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	if h.History != nil {
		r.HandleFunc("/history", h.History.HandleSummaries).Methods(http.MethodGet)
		r.HandleFunc("/history/records", h.History.HandleRecords).Methods(http.MethodGet)
	}
	if h.Run != nil {
		r.Handle("/run", h.Run).Methods(http.MethodPost)
	}

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})

	return r
}
