package logging

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// HTTPErrorResponse represents a standard JSON error response
type HTTPErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSONError writes a JSON error response and logs it
func WriteJSONError(w http.ResponseWriter, logger logrus.FieldLogger, message string, statusCode int, fields logrus.Fields) {
	logger.WithFields(fields).WithFields(logrus.Fields{
		"status_code": statusCode,
		"message":     message,
	}).Error("HTTP error response")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(HTTPErrorResponse{Error: message}); err != nil {
		logger.WithError(err).Warn("Failed to encode error response")
	}
}

// WriteJSONSuccess writes a JSON success response
func WriteJSONSuccess(w http.ResponseWriter, logger logrus.FieldLogger, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.WithError(err).Warn("Failed to encode success response")
	}
}
