package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
)

// Status policies applied by Guard when a request is rejected.
const (
	// StatusPolicyCollapse answers every auth failure with 401.
	StatusPolicyCollapse = "collapse"

	// StatusPolicyPreserve answers with the failure's own status (400, 401, 403 or 503).
	StatusPolicyPreserve = "preserve"
)

// Config holds the identity provider settings used to verify tokens.
type Config struct {
	// Domain is the identity provider domain (e.g., "tenant.eu.auth0.com").
	// Required. The expected issuer is "https://<Domain>/".
	Domain string `koanf:"domain"`

	// Audience is the expected "aud" claim value.
	// Required.
	Audience string `koanf:"audience"`

	// Algorithms lists the accepted signing algorithm. Exactly one entry.
	// Default: ["RS256"]
	Algorithms []string `koanf:"algorithms"`

	// JWKSURL overrides the key set location.
	// Default: "https://<Domain>/.well-known/jwks.json"
	JWKSURL string `koanf:"jwks_url"`

	// HTTPTimeout bounds each key set fetch.
	// Default: 10s
	HTTPTimeout time.Duration `koanf:"http_timeout"`

	// Leeway allows clock skew tolerance for exp/nbf/iat validation.
	Leeway time.Duration `koanf:"leeway"`

	// CacheKeys keeps the key set in memory and refreshes it in the background
	// instead of fetching it for every verification.
	CacheKeys bool `koanf:"cache_keys"`

	// MinRefreshInterval limits how often an unknown key ID may force a
	// cached key set to reload. Only used with CacheKeys.
	// Default: 30s
	MinRefreshInterval time.Duration `koanf:"min_refresh_interval"`

	// StatusPolicy selects the HTTP status for rejected requests.
	// Valid values: "collapse", "preserve". Default: "collapse"
	StatusPolicy string `koanf:"status_policy"`
}

// DefaultConfig returns a Config with sensible defaults.
// Domain and Audience must be set by the caller.
func DefaultConfig() Config {
	return Config{
		Algorithms:         []string{"RS256"},
		HTTPTimeout:        10 * time.Second,
		MinRefreshInterval: 30 * time.Second,
		StatusPolicy:       StatusPolicyCollapse,
	}
}

// Validate checks that required fields are set.
func (c Config) Validate() error {
	if c.Domain == "" {
		return ErrDomainRequired
	}
	if c.Audience == "" {
		return ErrAudienceRequired
	}
	if _, err := c.algorithm(); err != nil {
		return err
	}
	switch c.StatusPolicy {
	case "", StatusPolicyCollapse, StatusPolicyPreserve:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatusPolicy, c.StatusPolicy)
	}
	return nil
}

// Issuer returns the expected "iss" claim value.
func (c Config) Issuer() string {
	return "https://" + strings.TrimSuffix(c.Domain, "/") + "/"
}

// KeySetURL returns the location of the published key set.
func (c Config) KeySetURL() string {
	if c.JWKSURL != "" {
		return c.JWKSURL
	}
	return "https://" + strings.TrimSuffix(c.Domain, "/") + "/.well-known/jwks.json"
}

var asymmetricAlgorithms = map[string]func() jwa.SignatureAlgorithm{
	"RS256": jwa.RS256,
	"RS384": jwa.RS384,
	"RS512": jwa.RS512,
	"PS256": jwa.PS256,
	"PS384": jwa.PS384,
	"PS512": jwa.PS512,
	"ES256": jwa.ES256,
	"ES384": jwa.ES384,
	"ES512": jwa.ES512,
	"EdDSA": jwa.EdDSA,
}

func (c Config) algorithm() (jwa.SignatureAlgorithm, error) {
	var none jwa.SignatureAlgorithm
	if len(c.Algorithms) != 1 {
		return none, ErrAlgorithmRequired
	}
	alg, ok := asymmetricAlgorithms[c.Algorithms[0]]
	if !ok {
		return none, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, c.Algorithms[0])
	}
	return alg(), nil
}
