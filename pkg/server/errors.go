// Package server binds the core streaming/merging pipeline to HTTP routes.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bascanada/tentacle/pkg/apperr"
)

// APIError is the standardized error response body.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

const (
	ErrCodeSourceNotFound      = "SOURCE_NOT_FOUND"
	ErrCodeFailedToReadSource  = "FAILED_TO_READ_SOURCE"
	ErrCodeNotAcceptable       = "NOT_ACCEPTABLE"
	ErrCodeValidationError     = "VALIDATION_ERROR"
	ErrCodeInternalServerError = "INTERNAL_SERVER_ERROR"
)

// writeJSON writes a JSON response with a given status code.
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to write json response", "err", err)
	}
}

// writeError writes a standardized APIError response.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, code, message string) {
	s.writeJSON(w, statusCode, APIError{Code: code, Message: message})
}

// writeSourceErr maps the core's sentinel errors to their HTTP status and
// error code, per the error mapping table: SourceNotFound -> 404,
// FailedToReadSource -> 500.
func (s *Server) writeSourceErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrSourceNotFound):
		s.writeError(w, http.StatusNotFound, ErrCodeSourceNotFound, err.Error())
	case errors.Is(err, apperr.ErrFailedToReadSource):
		s.writeError(w, http.StatusInternalServerError, ErrCodeFailedToReadSource, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, ErrCodeInternalServerError, err.Error())
	}
}
