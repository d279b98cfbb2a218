package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/careops/hospital-scheduling/internal/identity"
)

const testSecret = "test-secret-0123456789"

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	// Generated when absent.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if seen == "" {
		t.Error("expected a generated request ID in context")
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Error("response header does not match context request ID")
	}

	// Propagated when supplied.
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen != "req-123" {
		t.Errorf("request ID = %q, want %q", seen, "req-123")
	}
}

func TestAuthMiddleware(t *testing.T) {
	resolver := identity.NewResolver(testSecret)
	handler := AuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := identity.FromContext(r.Context())
		if !ok {
			t.Error("principal missing from context")
		} else if p.Role != identity.RolePatient {
			t.Errorf("role = %s, want patient", p.Role)
		}
		w.WriteHeader(http.StatusOK)
	}))

	token, err := resolver.Issue(identity.Principal{UserID: uuid.New(), Role: identity.RolePatient}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	resolver := identity.NewResolver(testSecret)
	handler := AuthMiddleware(resolver)(http.HandlerFunc(okHandler))

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", tc.name, rec.Code)
		}
	}
}

func TestAuthMiddlewareRejectsForeignToken(t *testing.T) {
	resolver := identity.NewResolver(testSecret)
	handler := AuthMiddleware(resolver)(http.HandlerFunc(okHandler))

	foreign := identity.NewResolver("some-other-secret")
	token, err := foreign.Issue(identity.Principal{UserID: uuid.New(), Role: identity.RoleStaff}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	handler := requireRole(okHandler, identity.RoleStaff, identity.RoleDoctor)

	serve := func(p *identity.Principal) int {
		req := httptest.NewRequest("GET", "/", nil)
		if p != nil {
			req = req.WithContext(identity.WithPrincipal(req.Context(), p))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := serve(&identity.Principal{UserID: uuid.New(), Role: identity.RoleStaff}); code != http.StatusOK {
		t.Errorf("staff: status = %d, want 200", code)
	}
	if code := serve(&identity.Principal{UserID: uuid.New(), Role: identity.RoleDoctor}); code != http.StatusOK {
		t.Errorf("doctor: status = %d, want 200", code)
	}
	if code := serve(&identity.Principal{UserID: uuid.New(), Role: identity.RolePatient}); code != http.StatusForbidden {
		t.Errorf("patient: status = %d, want 403", code)
	}
	if code := serve(nil); code != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want 401", code)
	}
}
