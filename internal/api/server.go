// Package api exposes the drink REST API.
package api

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/deepworx/coffeeshop/internal/auth"
	"github.com/deepworx/coffeeshop/internal/drink"
)

// Permissions required by the protected routes.
const (
	PermGetDrinksDetail = "get:drinks-detail"
	PermPostDrinks      = "post:drinks"
	PermPatchDrinks     = "patch:drinks"
	PermDeleteDrinks    = "delete:drinks"
)

// CORSConfig configures cross-origin access.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// DefaultCORSConfig allows any origin.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{AllowedOrigins: []string{"*"}}
}

// Server serves the drink endpoints.
type Server struct {
	store drink.Store
	guard *auth.Guard
}

// NewServer creates a Server backed by store. Protected routes are gated by guard.
func NewServer(store drink.Store, guard *auth.Guard) *Server {
	return &Server{store: store, guard: guard}
}

// Register mounts the drink routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /drinks", s.listDrinks)
	mux.Handle("GET /drinks-detail", s.guard.Require(PermGetDrinksDetail)(s.listDrinksDetail))
	mux.Handle("POST /drinks", s.guard.Require(PermPostDrinks)(s.createDrink))
	mux.Handle("PATCH /drinks/{id}", s.guard.Require(PermPatchDrinks)(s.updateDrink))
	mux.Handle("DELETE /drinks/{id}", s.guard.Require(PermDeleteDrinks)(s.deleteDrink))
}

// Handler returns the drink routes wrapped in CORS handling.
func (s *Server) Handler(cfg CORSConfig) http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return WithCORS(mux, cfg)
}

// WithCORS wraps next with the CORS policy of the API. Callers authenticate
// with bearer tokens, so credentialed (cookie) requests are not allowed.
func WithCORS(next http.Handler, cfg CORSConfig) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(next)
}
