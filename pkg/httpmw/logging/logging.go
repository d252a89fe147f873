// Package logging writes one structured log line per HTTP request.
package logging

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/deepworx/coffeeshop/pkg/ctxutil"
)

// New returns middleware that logs each request after it completes.
// Responses below 400 are logged at Info level, 4xx at Warn, 5xx at Error.
func New() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
		})
	}
}

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func logRequest(ctx context.Context, method, path string, status int, elapsed time.Duration) {
	attrs := []any{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Duration("duration", elapsed),
	}
	if reqID, ok := ctxutil.RequestID(ctx); ok {
		attrs = append(attrs, slog.String("request_id", reqID))
	}

	switch {
	case status >= http.StatusInternalServerError:
		slog.ErrorContext(ctx, "request failed", attrs...)
	case status >= http.StatusBadRequest:
		slog.WarnContext(ctx, "request rejected", attrs...)
	default:
		slog.InfoContext(ctx, "request completed", attrs...)
	}
}
