package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/deepworx/coffeeshop/internal/drink"
	"github.com/deepworx/coffeeshop/pkg/ctxutil"
	"github.com/deepworx/coffeeshop/pkg/slogutil"
)

// errorResponse is the body of every non-auth error.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

var defaultMessages = map[int]string{
	http.StatusBadRequest:          "bad request",
	http.StatusNotFound:            "resource not found",
	http.StatusUnprocessableEntity: "unprocessable",
	http.StatusInternalServerError: "internal server error",
}

// respondJSON marshals data before writing headers so that encoding failures
// still produce a clean 500.
func respondJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// respondError writes the error envelope. An empty message uses the default for status.
func respondError(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = defaultMessages[status]
	}
	payload, _ := json.Marshal(errorResponse{Success: false, Error: status, Message: message})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// handleStoreError maps drink store errors to HTTP responses.
//
// Mapping:
//  1. drink.ErrNotFound → 404
//  2. drink.ErrInvalid, drink.ErrDuplicateTitle → 422
//  3. context.DeadlineExceeded → 503
//  4. anything else → 500 with a sanitized message
func handleStoreError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, drink.ErrNotFound):
		respondError(w, http.StatusNotFound, "")
	case errors.Is(err, drink.ErrInvalid), errors.Is(err, drink.ErrDuplicateTitle):
		respondError(w, http.StatusUnprocessableEntity, "")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		slog.ErrorContext(ctx, "drink store failed", append(callerAttrs(ctx), slogutil.Err(err))...)
		respondError(w, http.StatusInternalServerError, "")
	}
}

// callerAttrs returns log attributes identifying the request and caller.
func callerAttrs(ctx context.Context) []any {
	var attrs []any
	if reqID, ok := ctxutil.RequestID(ctx); ok {
		attrs = append(attrs, slog.String("request_id", reqID))
	}
	if userID, ok := ctxutil.UserID(ctx); ok {
		attrs = append(attrs, slog.String("user_id", userID))
	}
	return attrs
}
