package auth

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// PermissionsClaim is the claim holding the caller's granted permissions.
const PermissionsClaim = "permissions"

// Claims is the verified payload of a token, keyed by claim name.
// Values are decoded from JSON: strings, float64 numbers, []any and map[string]any.
type Claims map[string]any

// Subject returns the "sub" claim, or "" when absent.
func (c Claims) Subject() string {
	s, _ := c["sub"].(string)
	return s
}

// Permissions returns the permissions claim. The second result is false when
// the claim is absent.
func (c Claims) Permissions() ([]string, bool) {
	v, ok := c[PermissionsClaim]
	if !ok {
		return nil, false
	}
	perms, err := toStringSlice(v)
	if err != nil {
		return nil, true
	}
	return perms, true
}

// Clone returns a shallow copy of c.
func (c Claims) Clone() Claims {
	return maps.Clone(c)
}

// claimsFromPayload decodes the payload of a verified token. Claims keep the
// shape the issuer signed, e.g. a string "aud" stays a string.
func claimsFromPayload(payload []byte) (Claims, error) {
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	return claims, nil
}

// toStringSlice converts a claim value to []string.
func toStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case []string:
		return val, nil
	case []any:
		result := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result, nil
	case string:
		return strings.Fields(val), nil
	default:
		return nil, fmt.Errorf("cannot convert %T to []string", v)
	}
}
