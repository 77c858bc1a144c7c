package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/employee-contacts/internal/model"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

const internalErrorMessage = "An unexpected error occurred"

// classify maps err to a status, a short title and a client-safe message.
// Domain errors keep their own message; anything else is hidden behind a
// generic 500.
func classify(err error) (int, string, string) {
	if de, ok := find[*model.DuplicateEmailError](err); ok {
		return http.StatusConflict, "Conflict", de.Error()
	}
	if fe, ok := find[*model.FormatError](err); ok {
		return http.StatusBadRequest, "Bad Request", fe.Error()
	}
	if fe, ok := find[*model.FieldError](err); ok {
		return http.StatusBadRequest, "Validation Error", fe.Error()
	}
	if ue, ok := find[*model.UnsupportedFormatError](err); ok {
		return http.StatusBadRequest, "Bad Request", ue.Error()
	}
	if ae, ok := find[*model.InvalidArgumentError](err); ok {
		return http.StatusBadRequest, "Bad Request", ae.Error()
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, "Payload Too Large", "Request body exceeds the upload limit"
	}
	return http.StatusInternalServerError, "Internal Server Error", internalErrorMessage
}

func find[T error](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}

// writeError logs err and writes its ErrorResponse. Server faults log at
// error level with the full chain; client faults at warn.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status, title, msg := classify(err)
	fields := []zap.Field{
		zap.String("request_id", RequestIDFrom(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", append(fields, zap.Error(err))...)
	} else {
		log.Warn("request rejected", append(fields, zap.String("reason", msg))...)
	}
	writeStatus(w, r, status, title, msg)
}

func writeStatus(w http.ResponseWriter, r *http.Request, status int, title, msg string) {
	writeJSON(w, status, ErrorResponse{
		Status:  status,
		Error:   title,
		Message: msg,
		Path:    r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
