package server

import (
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/peteski22/hubgraph/internal/graph"
	"github.com/peteski22/hubgraph/internal/hubspot"
	"github.com/peteski22/hubgraph/internal/jobs"
)

// envelope is the uniform body of every API response.
type envelope struct {
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
	Success bool   `json:"success"`
}

// statusFor maps an error to the HTTP status reported to the caller.
func statusFor(err error) int {
	var validationErrs validation.Errors
	switch {
	case errors.As(err, &validationErrs), errors.Is(err, hubspot.ErrUnknownObjectType):
		return http.StatusBadRequest
	case errors.Is(err, graph.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, jobs.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, jobs.ErrQueueFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes body as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{
		Data:    data,
		Message: message,
		Success: true,
	})
}

// writeError logs err and writes a failure envelope with a status derived from it.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(message, "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Warn(message, "path", r.URL.Path, "status", status, "error", err)
	}

	writeJSON(w, status, envelope{
		Error:   err.Error(),
		Message: message,
		Success: false,
	})
}
