// Package handler contains the development backend's HTTP handlers. Handlers
// decode requests, call a service and encode the result; status codes come
// from the apperror sentinel carried by the error.
//
// RESPONSE HELPERS (this file):
// Every handler answers through writeJSON or writeError, so the client sees one
// shape for success and one for failure:
//
//	200 {"token": "...", "user": {...}}
//	400 {"error": "validation_error", "message": "...", "fields": {"email": "enter a valid email"}}
//	409 {"error": "conflict", "message": "This appointment is already booked.", "fields": {"date": "..."}}
//
// THE fields MAP:
// The gateway client turns a validation_error into apperror.ErrValidation
// and uses the first field in sorted order. Screens then show that message
// next to the matching input. Keys are the JSON names of the form fields,
// the same keys validation.Errors uses.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/gobarber/internal/apperror"
	"github.com/sakif/gobarber/internal/validation"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string            `json:"error"`   // machine-readable type, e.g. "not_found"
	Message string            `json:"message"` // human-readable description
	Fields  map[string]string `json:"fields,omitempty"`
}

// writeJSON sends data as JSON with the given status.
//
// ORDER MATTERS:
// Headers, then WriteHeader, then the body. After the first Write the status
// line and headers are on the wire; a late Header().Set is silently dropped.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// the status is already sent; all we can do is log
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps err onto a status and an ErrorResponse. Errors that are not
// part of the apperror taxonomy are logged and reported as 500 without detail.
//
// ERROR MAPPING:
//
//	validation.Errors          → 400 validation_error (every field)
//	apperror.ErrValidation     → 400 validation_error (AppError.Field)
//	apperror.ErrUnauthorized   → 401 unauthorized
//	apperror.ErrForbidden      → 403 forbidden
//	apperror.ErrNotFound       → 404 not_found
//	apperror.ErrConflict       → 409 conflict
//	anything else              → 500 internal_error, message hidden
//
// WHY HERE AND NOT IN THE SERVICE?
// Services return domain errors and never see HTTP. Keeping the translation
// in one function means a new sentinel needs one new case, not a change in
// every handler.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var fields validation.Errors
	if errors.As(err, &fields) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Validation fails",
			Fields:  fields,
		})
		return
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		logger.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Internal server error",
		})
		return
	}

	status, errorType := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, errorType = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		status, errorType = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status, errorType = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status, errorType = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status, errorType = http.StatusConflict, "conflict"
	}

	resp := ErrorResponse{Error: errorType, Message: appErr.Message}
	if status == http.StatusInternalServerError {
		logger.Error("request failed", slog.String("error", err.Error()))
		resp.Message = "Internal server error"
	}
	if appErr.Field != "" && status != http.StatusInternalServerError {
		resp.Fields = map[string]string{appErr.Field: appErr.Message}
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a JSON body into dst; a malformed body is a validation error.
//
// MaxBytesReader caps the body at maxBodyBytes. A client streaming more gets
// a decode error instead of tying up memory.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}
