package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/deepworx/coffeeshop/pkg/slogutil"
	"github.com/deepworx/coffeeshop/pkg/tracing"
)

// Verifier checks token signatures against the identity provider's key set
// and validates issuer, audience and expiry.
type Verifier struct {
	keys     KeySetFetcher
	alg      jwa.SignatureAlgorithm
	issuer   string
	audience string
	leeway   time.Duration
}

// NewVerifier creates a Verifier for cfg that obtains keys from keys.
// Returns error if cfg is invalid.
func NewVerifier(cfg Config, keys KeySetFetcher) (*Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("create verifier: %w", err)
	}
	if keys == nil {
		return nil, fmt.Errorf("create verifier: key set fetcher is required")
	}
	alg, err := cfg.algorithm()
	if err != nil {
		return nil, fmt.Errorf("create verifier: %w", err)
	}

	return &Verifier{
		keys:     keys,
		alg:      alg,
		issuer:   cfg.Issuer(),
		audience: cfg.Audience,
		leeway:   cfg.Leeway,
	}, nil
}

// Verify validates token and returns its claims. Claims are only returned
// after the signature and all registered claims have been verified.
func (v *Verifier) Verify(ctx context.Context, token string) (Claims, error) {
	keyset, err := tracing.WithSpanResult(ctx, "auth.fetch_jwks", v.keys.Fetch)
	if err != nil {
		slog.WarnContext(ctx, "jwks fetch failed", slogutil.Err(err))
		return nil, newAuthError(http.StatusServiceUnavailable, CodeJWKSUnavailable,
			"Unable to fetch signing keys.", err)
	}

	msg, kid, err := parseUnverified(token)
	if err != nil {
		return nil, newAuthError(http.StatusBadRequest, CodeInvalidHeader,
			"Unable to parse authentication token.", err)
	}
	if kid == "" {
		return nil, newAuthError(http.StatusUnauthorized, CodeInvalidHeader,
			"Authorization malformed.", nil)
	}

	key, ok := v.lookupKey(ctx, keyset, kid)
	if !ok {
		return nil, newAuthError(http.StatusBadRequest, CodeInvalidHeader,
			"Unable to find the appropriate key.", nil)
	}

	_, err = tracing.WithSpanResult(ctx, "auth.parse_token", func(ctx context.Context) (jwt.Token, error) {
		return jwt.Parse(
			[]byte(token),
			jwt.WithKey(v.alg, key),
			jwt.WithValidate(true),
			jwt.WithIssuer(v.issuer),
			jwt.WithAudience(v.audience),
			jwt.WithAcceptableSkew(v.leeway),
			jwt.WithRequiredClaim(jwt.ExpirationKey),
		)
	})
	if err != nil {
		return nil, mapJWTError(err)
	}

	claims, err := claimsFromPayload(msg.Payload())
	if err != nil {
		return nil, newAuthError(http.StatusBadRequest, CodeInvalidHeader,
			"Unable to parse authentication token.", err)
	}
	return claims, nil
}

// lookupKey finds kid in keyset. A fetcher that can refresh is asked once
// for a fresh key set before giving up, so rotated keys are picked up.
func (v *Verifier) lookupKey(ctx context.Context, keyset jwk.Set, kid string) (jwk.Key, bool) {
	if key, ok := keyset.LookupKeyID(kid); ok {
		return key, true
	}

	refresher, ok := v.keys.(KeySetRefresher)
	if !ok {
		return nil, false
	}
	fresh, err := refresher.Refresh(ctx)
	if err != nil {
		slog.WarnContext(ctx, "jwks refresh failed",
			slog.String("kid", kid),
			slogutil.Err(err),
		)
		return nil, false
	}
	return fresh.LookupKeyID(kid)
}

// parseUnverified splits token and reads "kid" from the protected header.
// Nothing in the returned message is trusted until jwt.Parse has checked it.
func parseUnverified(token string) (*jws.Message, string, error) {
	msg, err := jws.Parse([]byte(token))
	if err != nil {
		return nil, "", fmt.Errorf("parse jws: %w", err)
	}
	sigs := msg.Signatures()
	if len(sigs) == 0 {
		return nil, "", errors.New("no signatures found in jws")
	}
	hdrs := sigs[0].ProtectedHeaders()
	if hdrs == nil {
		return msg, "", nil
	}
	kid, _ := hdrs.KeyID()
	return msg, kid, nil
}

func mapJWTError(err error) *AuthError {
	switch {
	case errors.Is(err, jwt.TokenExpiredError()):
		return newAuthError(http.StatusUnauthorized, CodeTokenExpired, "Token expired.", err)
	case errors.Is(err, jwt.InvalidIssuerError()),
		errors.Is(err, jwt.InvalidAudienceError()):
		return newAuthError(http.StatusUnauthorized, CodeInvalidClaims,
			"Incorrect claims. Please, check the audience and issuer.", err)
	case errors.Is(err, jwt.TokenNotYetValidError()),
		errors.Is(err, jwt.MissingRequiredClaimError()):
		return newAuthError(http.StatusUnauthorized, CodeInvalidClaims,
			"Incorrect claims. Token is not yet valid or lacks an expiry.", err)
	default:
		return newAuthError(http.StatusBadRequest, CodeInvalidHeader,
			"Unable to parse authentication token.", err)
	}
}
