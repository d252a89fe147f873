// Package recovery turns handler panics into 500 responses.
package recovery

import (
	"log/slog"
	"net/http"
	"runtime"

	"github.com/deepworx/coffeeshop/pkg/ctxutil"
)

const body = `{"success":false,"error":500,"message":"internal server error"}`

// New returns middleware that recovers from panics, logs them with a stack
// trace and answers with a JSON 500 error. http.ErrAbortHandler is re-panicked.
func New() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logPanic(r, rec)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(body))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func logPanic(r *http.Request, rec any) {
	const stackSize = 4096
	stack := make([]byte, stackSize)
	n := runtime.Stack(stack, false)

	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("panic", rec),
		slog.String("stack", string(stack[:n])),
	}
	if reqID, ok := ctxutil.RequestID(r.Context()); ok {
		attrs = append(attrs, slog.String("request_id", reqID))
	}
	slog.ErrorContext(r.Context(), "panic recovered", attrs...)
}
