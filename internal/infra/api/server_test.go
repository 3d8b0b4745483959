//go:build !integration

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"travel-planner-client/internal/config"
)

type pingGroup struct{}

func (pingGroup) Register(r chi.Router) {
	r.Get("/api/v1/ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/api/v1/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter(t *testing.T) {
	am := NewAuthManager("s3cret", time.Hour)
	h := NewRouter(config.HTTPConfig{}, true, am, nil, pingGroup{})

	t.Run("health is public", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
			t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
		}
		if rec.Header().Get("X-Trace-ID") == "" {
			t.Fatal("trace id not echoed")
		}
	})

	t.Run("metrics", func(t *testing.T) {
		if rec := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil)); rec.Code != http.StatusOK {
			t.Fatalf("metrics: status %d", rec.Code)
		}
	})

	t.Run("trace id reused", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Trace-ID", "abc")
		if got := serve(h, req).Header().Get("X-Trace-ID"); got != "abc" {
			t.Fatalf("want inbound trace id, got %q", got)
		}
	})

	t.Run("api requires token", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Fatal("missing WWW-Authenticate")
		}
	})

	t.Run("api with token", func(t *testing.T) {
		tok, err := am.Mint("web")
		if err != nil {
			t.Fatalf("Mint: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		if rec := serve(h, req); rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
	})

	t.Run("panic recovered", func(t *testing.T) {
		tok, _ := am.Mint("web")
		req := httptest.NewRequest(http.MethodGet, "/api/v1/panic", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		if rec := serve(h, req); rec.Code != http.StatusInternalServerError {
			t.Fatalf("want 500, got %d", rec.Code)
		}
	})
}

func TestRouter_NoAuth(t *testing.T) {
	h := NewRouter(config.HTTPConfig{}, false, nil, nil, pingGroup{})
	if rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)); rec.Code != http.StatusOK {
		t.Fatalf("auth must be off without a manager, got %d", rec.Code)
	}
	if rec := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("metrics must be off, got %d", rec.Code)
	}
}

func TestAuthManager(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	am := NewAuthManager("k", time.Minute)
	am.now = func() time.Time { return now }

	tok, err := am.Mint("console")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	claims, err := am.parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "console" || claims.Scope != "travel" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	t.Run("expired", func(t *testing.T) {
		later := NewAuthManager("k", time.Minute)
		later.now = func() time.Time { return now.Add(2 * time.Minute) }
		if _, err := later.parse(tok); err == nil {
			t.Fatal("expected expiry error")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewAuthManager("other", time.Minute)
		other.now = am.now
		if _, err := other.parse(tok); err == nil {
			t.Fatal("expected signature error")
		}
	})

	t.Run("missing header", func(t *testing.T) {
		if _, err := am.ParseFromRequest(httptest.NewRequest(http.MethodGet, "/", nil)); err != errMissingToken {
			t.Fatalf("want errMissingToken, got %v", err)
		}
	})
}
