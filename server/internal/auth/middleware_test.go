package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// passHandler answers 200 "ok".
var passHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
})

func callWithKey(t *testing.T, mw func(http.Handler) http.Handler, header, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/network", nil)
	if key != "" {
		req.Header.Set(header, key)
	}
	rec := httptest.NewRecorder()
	mw(passHandler).ServeHTTP(rec, req)
	return rec
}

func TestAPIKeyMiddleware_ModeNone_PassesThrough(t *testing.T) {
	mw := APIKeyMiddleware("none", "X-API-Key", "secret")
	// No key on the request; passes because mode != "apikey".
	rec := callWithKey(t, mw, "X-API-Key", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body: got %q, want ok", rec.Body.String())
	}
}

func TestAPIKeyMiddleware_EmptyKey_PassesThrough(t *testing.T) {
	// key="" means auth is not configured; allow all.
	mw := APIKeyMiddleware("apikey", "X-API-Key", "")
	if rec := callWithKey(t, mw, "X-API-Key", ""); rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
}

func TestAPIKeyMiddleware_CorrectKey_Passes(t *testing.T) {
	mw := APIKeyMiddleware("apikey", "X-API-Key", "supersecret")
	if rec := callWithKey(t, mw, "X-API-Key", "supersecret"); rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
}

func TestAPIKeyMiddleware_HeaderCaseInsensitive(t *testing.T) {
	mw := APIKeyMiddleware("apikey", "x-api-key", "supersecret")
	if rec := callWithKey(t, mw, "X-Api-Key", "supersecret"); rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
}

func TestAPIKeyMiddleware_WrongKey_Unauthorized(t *testing.T) {
	mw := APIKeyMiddleware("apikey", "X-API-Key", "supersecret")
	rec := callWithKey(t, mw, "X-API-Key", "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
}

func TestAPIKeyMiddleware_MissingHeader_Unauthorized(t *testing.T) {
	mw := APIKeyMiddleware("apikey", "X-API-Key", "supersecret")
	if rec := callWithKey(t, mw, "X-API-Key", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
}

func TestAPIKeyMiddleware_CustomHeader(t *testing.T) {
	mw := APIKeyMiddleware("apikey", "Authorization", "Bearer tok")
	if rec := callWithKey(t, mw, "Authorization", "Bearer tok"); rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	// The key sent in the default header is ignored.
	if rec := callWithKey(t, mw, "X-API-Key", "Bearer tok"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
}
