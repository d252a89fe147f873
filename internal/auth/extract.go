package auth

import (
	"net/http"
	"strings"
)

// ExtractToken returns the bearer token carried by an Authorization header value.
// The scheme is matched case-insensitively and the value must hold exactly two
// whitespace-separated fields.
func ExtractToken(header string) (string, error) {
	if header == "" {
		return "", newAuthError(http.StatusUnauthorized, CodeHeaderMissing,
			"Authorization header is expected.", nil)
	}

	parts := strings.Fields(header)
	switch {
	case len(parts) == 0:
		return "", newAuthError(http.StatusUnauthorized, CodeHeaderMissing,
			"Authorization header is expected.", nil)
	case !strings.EqualFold(parts[0], "bearer"):
		return "", newAuthError(http.StatusUnauthorized, CodeInvalidHeader,
			`Authorization header must start with "Bearer".`, nil)
	case len(parts) == 1:
		return "", newAuthError(http.StatusUnauthorized, CodeInvalidHeader,
			"Token not found.", nil)
	case len(parts) > 2:
		return "", newAuthError(http.StatusUnauthorized, CodeInvalidHeader,
			"Authorization header must be bearer token.", nil)
	}

	return parts[1], nil
}
