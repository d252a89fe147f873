package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

const (
	testAudience = "coffeeShop"
	testKeyID    = "test-key-id"
)

// jwksServer serves a key set and counts the requests it receives.
type jwksServer struct {
	*httptest.Server
	hits atomic.Int64
}

func generateTestKeys(t *testing.T, keyID string) (*rsa.PrivateKey, jwk.Key) {
	t.Helper()

	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}

	pubJWK, err := jwk.Import(&privKey.PublicKey)
	if err != nil {
		t.Fatalf("failed to create JWK: %v", err)
	}
	if err := pubJWK.Set(jwk.KeyIDKey, keyID); err != nil {
		t.Fatalf("failed to set key ID: %v", err)
	}
	if err := pubJWK.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		t.Fatalf("failed to set key usage: %v", err)
	}

	return privKey, pubJWK
}

func setupTestJWKSServer(t *testing.T, pubKeys ...jwk.Key) *jwksServer {
	t.Helper()

	keyset := jwk.NewSet()
	for _, k := range pubKeys {
		if err := keyset.AddKey(k); err != nil {
			t.Fatalf("failed to add key to set: %v", err)
		}
	}

	s := &jwksServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(keyset); err != nil {
			t.Errorf("failed to encode JWKS: %v", err)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

// testConfig returns a Config whose issuer matches testIssuer(srv).
func testConfig(srv *jwksServer) Config {
	cfg := DefaultConfig()
	cfg.Domain = strings.TrimPrefix(srv.URL, "http://")
	cfg.Audience = testAudience
	cfg.JWKSURL = srv.URL
	return cfg
}

func testIssuer(srv *jwksServer) string {
	return "https://" + strings.TrimPrefix(srv.URL, "http://") + "/"
}

func newTestVerifier(t *testing.T, srv *jwksServer) *Verifier {
	t.Helper()

	cfg := testConfig(srv)
	v, err := NewVerifier(cfg, NewRemoteKeySet(cfg.KeySetURL(), srv.Client()))
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}
	return v
}

func validClaims(srv *jwksServer, permissions ...string) map[string]any {
	perms := make([]any, 0, len(permissions))
	for _, p := range permissions {
		perms = append(perms, p)
	}
	return map[string]any{
		"iss":         testIssuer(srv),
		"aud":         []string{testAudience},
		"sub":         "auth0|barista",
		"exp":         time.Now().Add(time.Hour).Unix(),
		"permissions": perms,
	}
}

func signTestToken(t *testing.T, privKey *rsa.PrivateKey, keyID string, claims map[string]any) string {
	t.Helper()
	return signTestTokenWithAlg(t, privKey, jwa.RS256(), keyID, claims)
}

func signTestTokenWithAlg(t *testing.T, privKey *rsa.PrivateKey, alg jwa.SignatureAlgorithm, keyID string, claims map[string]any) string {
	t.Helper()

	tok := jwt.New()
	for k, v := range claims {
		if err := tok.Set(k, v); err != nil {
			t.Fatalf("failed to set claim %s: %v", k, err)
		}
	}

	privJWK, err := jwk.Import(privKey)
	if err != nil {
		t.Fatalf("failed to import private key: %v", err)
	}
	if keyID != "" {
		if err := privJWK.Set(jwk.KeyIDKey, keyID); err != nil {
			t.Fatalf("failed to set key ID: %v", err)
		}
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(alg, privJWK))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	return string(signed)
}

func assertAuthError(t *testing.T, err error, wantCode, wantDesc string, wantStatus int) {
	t.Helper()

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	authErr, ok := AsAuthError(err)
	if !ok {
		t.Fatalf("expected *AuthError, got %T: %v", err, err)
	}
	if authErr.Code != wantCode {
		t.Errorf("Code = %q, want %q", authErr.Code, wantCode)
	}
	if wantDesc != "" && authErr.Description != wantDesc {
		t.Errorf("Description = %q, want %q", authErr.Description, wantDesc)
	}
	if wantStatus != 0 && authErr.HTTPStatus() != wantStatus {
		t.Errorf("HTTPStatus() = %d, want %d", authErr.HTTPStatus(), wantStatus)
	}
}
