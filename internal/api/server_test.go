package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deepworx/coffeeshop/internal/auth"
	"github.com/deepworx/coffeeshop/internal/drink"
)

// stubVerifier maps raw tokens to claims.
type stubVerifier map[string]auth.Claims

func (v stubVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	claims, ok := v[token]
	if !ok {
		return nil, &auth.AuthError{
			Code:        auth.CodeInvalidHeader,
			Description: "Unable to parse authentication token.",
			Status:      http.StatusBadRequest,
		}
	}
	return claims, nil
}

const (
	baristaToken = "barista"
	managerToken = "manager"
	noPermsToken = "noperms"
)

func testVerifier() stubVerifier {
	return stubVerifier{
		baristaToken: {"sub": "auth0|barista", "permissions": []any{PermGetDrinksDetail}},
		managerToken: {"sub": "auth0|manager", "permissions": []any{
			PermGetDrinksDetail, PermPostDrinks, PermPatchDrinks, PermDeleteDrinks,
		}},
		noPermsToken: {"sub": "auth0|nobody"},
	}
}

func newTestServer(t *testing.T, seed bool) (http.Handler, *drink.MemoryStore) {
	t.Helper()

	store := drink.NewMemoryStore()
	if seed {
		if err := drink.Seed(context.Background(), store); err != nil {
			t.Fatalf("Seed() error = %v", err)
		}
	}
	guard := auth.NewGuard(testVerifier(), auth.StatusPolicyCollapse)
	return NewServer(store, guard).Handler(DefaultCORSConfig()), store
}

func doRequest(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestListDrinks(t *testing.T) {
	t.Parallel()

	h, _ := newTestServer(t, true)
	rec := doRequest(t, h, http.MethodGet, "/drinks", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	drinks, _ := body["drinks"].([]any)
	if len(drinks) != len(drink.SampleDrinks()) {
		t.Fatalf("got %d drinks, want %d", len(drinks), len(drink.SampleDrinks()))
	}
	first := drinks[0].(map[string]any)
	for _, ing := range first["recipe"].([]any) {
		if _, ok := ing.(map[string]any)["name"]; ok {
			t.Error("short view must not expose ingredient names")
		}
	}
}

func TestListDrinks_Empty(t *testing.T) {
	t.Parallel()

	h, _ := newTestServer(t, false)
	rec := doRequest(t, h, http.MethodGet, "/drinks", "", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != false || body["error"] != float64(404) || body["message"] != "resource not found" {
		t.Errorf("body = %v", body)
	}
}

func TestListDrinksDetail(t *testing.T) {
	t.Parallel()

	h, _ := newTestServer(t, true)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "barista", token: baristaToken, wantStatus: http.StatusOK},
		{name: "manager", token: managerToken, wantStatus: http.StatusOK},
		{name: "no header", token: "", wantStatus: http.StatusUnauthorized},
		{name: "no permissions claim", token: noPermsToken, wantStatus: http.StatusUnauthorized},
		{name: "unknown token", token: "forged", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := doRequest(t, h, http.MethodGet, "/drinks-detail", tt.token, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			drinks := decodeBody(t, rec)["drinks"].([]any)
			ing := drinks[0].(map[string]any)["recipe"].([]any)[0].(map[string]any)
			if ing["name"] == nil {
				t.Error("detail view must include ingredient names")
			}
		})
	}
}

func TestCreateDrink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		token      string
		body       string
		wantStatus int
	}{
		{
			name:       "recipe array",
			token:      managerToken,
			body:       `{"title":"espresso","recipe":[{"name":"coffee","color":"brown","parts":1}]}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "recipe object",
			token:      managerToken,
			body:       `{"title":"water","recipe":{"name":"water","color":"blue","parts":1}}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing title",
			token:      managerToken,
			body:       `{"recipe":[{"name":"coffee","color":"brown","parts":1}]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing recipe",
			token:      managerToken,
			body:       `{"title":"espresso"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			token:      managerToken,
			body:       `{"title":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid ingredient",
			token:      managerToken,
			body:       `{"title":"espresso","recipe":[{"name":"coffee","color":"brown","parts":0}]}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "duplicate title",
			token:      managerToken,
			body:       `{"title":"flatwhite","recipe":[{"name":"milk","color":"grey","parts":1}]}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "missing permission",
			token:      baristaToken,
			body:       `{"title":"espresso","recipe":[{"name":"coffee","color":"brown","parts":1}]}`,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, _ := newTestServer(t, true)
			rec := doRequest(t, h, http.MethodPost, "/drinks", tt.token, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			drinks := decodeBody(t, rec)["drinks"].([]any)
			if len(drinks) != 1 {
				t.Fatalf("got %d drinks, want 1", len(drinks))
			}
			if drinks[0].(map[string]any)["id"] == nil {
				t.Error("created drink has no id")
			}
		})
	}
}

func TestUpdateDrink(t *testing.T) {
	t.Parallel()

	h, store := newTestServer(t, true)

	rec := doRequest(t, h, http.MethodPatch, "/drinks/1", managerToken, `{"title":"matcha latte"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	got, err := store.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "matcha latte" {
		t.Errorf("Title = %q, want %q", got.Title, "matcha latte")
	}
	if len(got.Recipe) == 0 {
		t.Error("recipe was cleared by a title-only patch")
	}

	tests := []struct {
		name       string
		path       string
		token      string
		body       string
		wantStatus int
	}{
		{name: "unknown id", path: "/drinks/999", token: managerToken, body: `{"title":"x"}`, wantStatus: http.StatusNotFound},
		{name: "non numeric id", path: "/drinks/abc", token: managerToken, body: `{"title":"x"}`, wantStatus: http.StatusNotFound},
		{name: "empty title", path: "/drinks/1", token: managerToken, body: `{"title":""}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "malformed json", path: "/drinks/1", token: managerToken, body: `nope`, wantStatus: http.StatusBadRequest},
		{name: "missing permission", path: "/drinks/1", token: baristaToken, body: `{"title":"x"}`, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPatch, tt.path, tt.token, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestDeleteDrink(t *testing.T) {
	t.Parallel()

	h, _ := newTestServer(t, true)

	rec := doRequest(t, h, http.MethodDelete, "/drinks/2", managerToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true || body["delete"] != float64(2) {
		t.Errorf("body = %v", body)
	}

	rec = doRequest(t, h, http.MethodDelete, "/drinks/2", managerToken, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}

	rec = doRequest(t, h, http.MethodDelete, "/drinks/1", baristaToken, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("barista delete status = %d, want 401", rec.Code)
	}
}

func TestPreservePolicy(t *testing.T) {
	t.Parallel()

	store := drink.NewMemoryStore()
	guard := auth.NewGuard(testVerifier(), auth.StatusPolicyPreserve)
	h := NewServer(store, guard).Handler(DefaultCORSConfig())

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "permission not granted", token: baristaToken, wantStatus: http.StatusForbidden},
		{name: "permissions claim absent", token: noPermsToken, wantStatus: http.StatusBadRequest},
		{name: "unverifiable token", token: "forged", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := doRequest(t, h, http.MethodDelete, "/drinks/1", tt.token, "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	h, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodOptions, "/drinks", nil)
	req.Header.Set("Origin", "http://localhost:8100")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("missing Access-Control-Allow-Origin")
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPost) {
		t.Errorf("Access-Control-Allow-Methods = %q, want POST", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want empty", got)
	}
}

func TestCORSNoCredentials(t *testing.T) {
	t.Parallel()

	h, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/drinks", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want empty", got)
	}
}
