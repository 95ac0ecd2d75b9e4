package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	apperrors "talent-shortlist/internal/common/errors"

	"github.com/go-chi/chi/v5/middleware"
)

// writeError renders the JSON error envelope shared by every endpoint.
func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	payload := map[string]any{
		"error":   code,
		"message": sanitize(message, 512),
		"status":  status,
	}
	if id := middleware.GetReqID(ctx); id != "" {
		payload["request_id"] = id
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeStandardError maps the shared error taxonomy onto HTTP statuses.
func writeStandardError(ctx context.Context, w http.ResponseWriter, err *apperrors.StandardError) {
	msg := err.Message
	if err.Details != "" {
		msg += ": " + err.Details
	}
	writeError(ctx, w, statusFor(err.Code), string(err.Code), msg)
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeParseError:
		return http.StatusBadRequest
	case apperrors.ErrCodeMissingIdentity, apperrors.ErrCodeInvalidRecord:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeEntryNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeStoreConflict:
		return http.StatusConflict
	case apperrors.ErrCodeStoreReadFailed, apperrors.ErrCodeStoreWriteFailed, apperrors.ErrCodeIndexUpdateFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func sanitize(value string, limit int) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
