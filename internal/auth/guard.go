package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/deepworx/coffeeshop/pkg/ctxutil"
	"github.com/deepworx/coffeeshop/pkg/slogutil"
)

// TokenVerifier validates a raw bearer token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// ClaimsHandler is an HTTP handler that receives the verified claims of the caller.
type ClaimsHandler func(claims Claims, w http.ResponseWriter, r *http.Request)

// Gate wraps a ClaimsHandler into an http.Handler that only runs it for
// authorized requests.
type Gate func(next ClaimsHandler) http.Handler

// Guard builds gates for individual permissions.
type Guard struct {
	verifier TokenVerifier
	policy   string
}

// NewGuard creates a Guard. An empty policy means StatusPolicyCollapse.
func NewGuard(verifier TokenVerifier, policy string) *Guard {
	if policy == "" {
		policy = StatusPolicyCollapse
	}
	return &Guard{verifier: verifier, policy: policy}
}

// Require returns a Gate admitting only callers whose token grants permission.
func (g *Guard) Require(permission string) Gate {
	return func(next ClaimsHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := g.Authorize(r, permission)
			if err != nil {
				g.reject(w, r, permission, err)
				return
			}

			ctx := ctxutil.WithClaims(r.Context(), ctxutil.Claims{
				UserID:      claims.Subject(),
				Permissions: grantedPermissions(claims),
			})
			next(claims, w, r.WithContext(ctx))
		})
	}
}

// Authorize runs token extraction, verification and the permission check for r.
// Extraction failures return before any key set is fetched.
func (g *Guard) Authorize(r *http.Request, permission string) (Claims, error) {
	token, err := ExtractToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}

	claims, err := g.verifier.Verify(r.Context(), token)
	if err != nil {
		return nil, err
	}

	if err := CheckPermission(permission, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (g *Guard) reject(w http.ResponseWriter, r *http.Request, permission string, err error) {
	authErr, ok := AsAuthError(err)
	if !ok {
		authErr = newAuthError(http.StatusUnauthorized, CodeInvalidHeader,
			"Unable to parse authentication token.", err)
	}

	status := http.StatusUnauthorized
	if g.policy == StatusPolicyPreserve {
		status = authErr.HTTPStatus()
	}

	attrs := []any{
		slog.String("code", authErr.Code),
		slog.String("permission", permission),
		slog.Int("status", status),
		slogutil.Err(authErr),
	}
	if reqID, ok := ctxutil.RequestID(r.Context()); ok {
		attrs = append(attrs, slog.String("request_id", reqID))
	}
	slog.InfoContext(r.Context(), "request rejected", attrs...)

	WriteError(w, status, authErr)
}

// ErrorResponse is the JSON body written for rejected requests.
type ErrorResponse struct {
	Success     bool   `json:"success"`
	Error       int    `json:"error"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// WriteError writes authErr as a JSON body with the given status.
func WriteError(w http.ResponseWriter, status int, authErr *AuthError) {
	payload, err := json.Marshal(ErrorResponse{
		Success:     false,
		Error:       status,
		Code:        authErr.Code,
		Description: authErr.Description,
	})
	if err != nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func grantedPermissions(c Claims) []string {
	perms, _ := c.Permissions()
	return perms
}
