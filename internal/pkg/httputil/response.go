// Package httputil provides HTTP response helpers and middleware shared
// by all modules.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrorDetail describes a single invalid field in a validation error.
type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// apiError is the machine-readable error body returned by every
// endpoint. Code is a fixed string per status, stable across releases.
type apiError struct {
	Timestamp     time.Time     `json:"timestamp"`
	Status        int           `json:"status"`
	Error         string        `json:"error"`
	Code          string        `json:"code"`
	Message       string        `json:"message"`
	Path          string        `json:"path"`
	CorrelationID string        `json:"correlationId,omitempty"`
	Details       []ErrorDetail `json:"details,omitempty"`
}

var statusCatalog = map[int]struct{ phrase, code string }{
	http.StatusBadRequest:          {"Bad Request", "ERR_VALIDATION"},
	http.StatusUnauthorized:        {"Unauthorized", "ERR_UNAUTHORIZED"},
	http.StatusForbidden:           {"Forbidden", "ERR_FORBIDDEN"},
	http.StatusNotFound:            {"Not Found", "ERR_NOT_FOUND"},
	http.StatusConflict:            {"Conflict", "ERR_CONFLICT"},
	http.StatusInternalServerError: {"Internal Server Error", "ERR_INTERNAL"},
}

// JSON writes a JSON response body.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// Text writes a plain text response.
func Text(w http.ResponseWriter, statusCode int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Error writes the standard error body for the given status.
func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	errorWithDetails(w, r, status, message, nil)
}

// ValidationError writes a 400 with per-field details when err is a
// validator.ValidationErrors; otherwise the error text becomes the message.
func ValidationError(w http.ResponseWriter, r *http.Request, err error) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	details := make([]ErrorDetail, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, ErrorDetail{
			Field:   e.Field(),
			Message: e.Tag(),
		})
	}
	errorWithDetails(w, r, http.StatusBadRequest, "validation error", details)
}

func errorWithDetails(w http.ResponseWriter, r *http.Request, status int, message string, details []ErrorDetail) {
	entry, ok := statusCatalog[status]
	if !ok {
		entry = struct{ phrase, code string }{http.StatusText(status), "ERR_GENERIC"}
	}

	body := apiError{
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Error:         entry.phrase,
		Code:          entry.code,
		Message:       message,
		Path:          r.URL.Path,
		CorrelationID: GetCorrelationID(r.Context()),
		Details:       details,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
