package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrAuthentication is returned when an access token cannot be acquired.
var ErrAuthentication = errors.New("graph authentication failed")

// APIError is a non-success response from Microsoft Graph.
type APIError struct {
	// Code is the Graph error code (e.g., Request_BadRequest).
	Code string

	// Message is the error message returned by Graph.
	Message string

	// StatusCode is the HTTP status of the response.
	StatusCode int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("graph API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("graph API error %d: %s", e.StatusCode, e.Message)
}

// IsAlreadyExists reports whether err indicates the resource already exists.
func IsAlreadyExists(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == http.StatusConflict {
		return true
	}
	return apiErr.StatusCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(apiErr.Message), "already exists")
}

// IsNotFound reports whether err is a 404 from Graph.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// parseAPIError builds an APIError from a response status and body.
// Bodies that are not Graph error documents are used verbatim as the message.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var resp graphErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error.Code != "" {
		apiErr.Code = resp.Error.Code
		apiErr.Message = resp.Error.Message
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}
