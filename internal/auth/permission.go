package auth

import (
	"net/http"
	"slices"
)

// CheckPermission reports whether claims grant permission.
// Matching is exact and case-sensitive.
func CheckPermission(permission string, claims Claims) error {
	perms, ok := claims.Permissions()
	if !ok {
		return newAuthError(http.StatusBadRequest, CodeInvalidClaims,
			"Permissions not included in JWT.", nil)
	}
	if !slices.Contains(perms, permission) {
		return newAuthError(http.StatusForbidden, CodeUnauthorized,
			"Permission not found.", nil)
	}
	return nil
}
