// Package response renders JSON responses for the filter server.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/conduit-lang/drest/internal/filter"
	"github.com/conduit-lang/drest/internal/schema"
)

const contentType = "application/json; charset=utf-8"

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Keys    []string `json:"keys,omitempty"`
}

// RenderJSON writes v as a JSON body with the given status
func RenderJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		RenderInternalError(w)
		return
	}
	RenderRaw(w, statusCode, data)
}

// RenderRaw writes an already encoded JSON body
func RenderRaw(w http.ResponseWriter, statusCode int, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)
	w.Write(data)
}

// RenderError renders an error body with an explicit error code
func RenderError(w http.ResponseWriter, statusCode int, code, message string) {
	RenderJSON(w, statusCode, &ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// RenderBadRequest renders a 400 Bad Request error
func RenderBadRequest(w http.ResponseWriter, message string) {
	RenderError(w, http.StatusBadRequest, "bad_request", message)
}

// RenderNotFound renders a 404 Not Found error
func RenderNotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RenderError(w, http.StatusNotFound, "not_found", message)
}

// RenderInternalError renders a 500 without exposing details
func RenderInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(`{"error":"internal_error","message":"Internal server error"}`))
}

// FilterError maps a translation failure to a status and body: 404 for an
// unknown resource, 400 listing every invalid key for filter errors, and
// 500 for anything else
func FilterError(err error) (int, *ErrorResponse) {
	switch {
	case errors.Is(err, schema.ErrSchemaNotFound):
		return http.StatusNotFound, &ErrorResponse{Error: "not_found", Message: err.Error()}
	case IsFilterError(err):
		return http.StatusBadRequest, &ErrorResponse{
			Error:   "invalid_filter",
			Message: err.Error(),
			Keys:    filter.InvalidKeys(err),
		}
	default:
		return http.StatusInternalServerError, &ErrorResponse{Error: "internal_error", Message: "Internal server error"}
	}
}

// RenderFilterError renders a translation failure as mapped by FilterError
func RenderFilterError(w http.ResponseWriter, err error) {
	status, body := FilterError(err)
	RenderJSON(w, status, body)
}

// IsFilterError reports whether err holds a filter validation error
func IsFilterError(err error) bool {
	var fe *filter.Error
	return errors.As(err, &fe)
}
