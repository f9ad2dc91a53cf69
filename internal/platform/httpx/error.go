package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/platefeed/api/internal/domain"
	"github.com/platefeed/api/internal/platform/requestctx"
)

// Error represents the canonical JSON error envelope returned by the API.
type Error struct {
	Code      string
	Message   string
	Status    int
	RequestID string
	TraceID   string
}

// NewError constructs a new Error with the provided parameters.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    sanitize(code, 80),
		Message: sanitize(message, 512),
		Status:  status,
	}
}

// WriteError writes the structured error as JSON to the provided response writer.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	requestID := err.RequestID
	if requestID == "" {
		requestID = sanitize(middleware.GetReqID(ctx), 80)
	}
	traceID := err.TraceID
	if traceID == "" {
		traceID = sanitize(requestctx.TraceID(ctx), 64)
	}

	payload := map[string]any{
		"error":   err.Code,
		"message": err.Message,
		"status":  status,
	}
	if requestID != "" {
		payload["request_id"] = requestID
	}
	if traceID != "" {
		payload["trace_id"] = traceID
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// unavailabler matches repository errors describing transient backend outages.
type unavailabler interface {
	IsUnavailable() bool
}

// WriteDomainError maps the business error taxonomy onto HTTP statuses.
// Repository outages become 503 so clients can tell a retryable failure from
// a problem with their input; anything unclassified is an opaque 500.
func WriteDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		WriteError(ctx, w, NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, domain.ErrNotFound):
		WriteError(ctx, w, NewError("not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, domain.ErrForbidden):
		WriteError(ctx, w, NewError("forbidden", err.Error(), http.StatusForbidden))
	case errors.Is(err, domain.ErrConflict):
		WriteError(ctx, w, NewError("conflict", err.Error(), http.StatusConflict))
	default:
		var outage unavailabler
		if errors.As(err, &outage) && outage.IsUnavailable() {
			WriteError(ctx, w, NewError("storage_unavailable", "storage temporarily unavailable", http.StatusServiceUnavailable))
			return
		}
		WriteError(ctx, w, NewError("internal", "internal server error", http.StatusInternalServerError))
	}
}

func sanitize(value string, limit int) string {
	if limit <= 0 {
		limit = 256
	}
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
