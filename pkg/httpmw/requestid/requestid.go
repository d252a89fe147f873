// Package requestid propagates or generates a request ID for each HTTP request.
package requestid

import (
	"encoding/hex"
	"net/http"

	"github.com/google/uuid"

	"github.com/deepworx/coffeeshop/pkg/ctxutil"
)

// Config holds configuration for the request ID middleware.
type Config struct {
	// HeaderName is the HTTP header to read request IDs from and echo them in.
	HeaderName string `koanf:"header_name"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		HeaderName: "X-Request-ID",
	}
}

// maxIDLength bounds a client supplied request ID.
const maxIDLength = 128

// New returns middleware that reads the request ID from the configured header,
// or generates a UUID v4 if it is missing or not a valid ID. The ID is stored via ctxutil.WithRequestID
// and echoed in the response header.
func New(cfg Config) func(http.Handler) http.Handler {
	headerName := cfg.HeaderName
	if headerName == "" {
		headerName = "X-Request-ID"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerName)
			if !validID(id) {
				id = generateID()
			}
			w.Header().Set(headerName, id)
			next.ServeHTTP(w, r.WithContext(ctxutil.WithRequestID(r.Context(), id)))
		})
	}
}

func generateID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// validID reports whether id is 1 to maxIDLength characters of [A-Za-z0-9._-].
// Anything else is replaced so it cannot inject content into logs or headers.
func validID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
