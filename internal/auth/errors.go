// Package auth verifies bearer tokens issued by an external identity provider
// and gates HTTP handlers on the permissions those tokens carry.
package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure codes reported to clients.
const (
	CodeHeaderMissing   = "authorization_header_missing"
	CodeInvalidHeader   = "invalid_header"
	CodeTokenExpired    = "token_expired"
	CodeInvalidClaims   = "invalid_claims"
	CodeUnauthorized    = "Unauthorized"
	CodeJWKSUnavailable = "jwks_unavailable"
)

// AuthError is a terminal authentication or authorization failure.
// Code and Description are safe to return to the client.
type AuthError struct {
	Code        string
	Description string
	Status      int

	err error
}

func (e *AuthError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.err)
	}
	return e.Code + ": " + e.Description
}

// Unwrap returns the underlying cause, if any.
func (e *AuthError) Unwrap() error {
	return e.err
}

// HTTPStatus returns the status code the failure maps to.
func (e *AuthError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusUnauthorized
	}
	return e.Status
}

func newAuthError(status int, code, description string, cause error) *AuthError {
	return &AuthError{Code: code, Description: description, Status: status, err: cause}
}

// AsAuthError reports whether err is or wraps an *AuthError.
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// Sentinel errors for configuration validation.
var (
	// ErrDomainRequired is returned when Domain is empty.
	ErrDomainRequired = errors.New("domain is required")

	// ErrAudienceRequired is returned when Audience is empty.
	ErrAudienceRequired = errors.New("audience is required")

	// ErrAlgorithmRequired is returned when Algorithms does not hold exactly one entry.
	ErrAlgorithmRequired = errors.New("exactly one signing algorithm is required")

	// ErrUnsupportedAlgorithm is returned for unknown or non-asymmetric algorithms.
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

	// ErrInvalidStatusPolicy is returned when StatusPolicy is not recognized.
	ErrInvalidStatusPolicy = errors.New("invalid status policy")
)
