package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"projectguard.org/internal/session"
)

func contextWithRole(t *testing.T, req *http.Request, role string) *http.Request {
	t.Helper()
	iss, err := session.NewIssuer("authn-test-secret")
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	token, _, err := iss.Issue("01HACCOUNT", role)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := iss.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	return req.WithContext(session.ContextWithClaims(req.Context(), claims))
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	handler := RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/internal", nil)
	req = contextWithRole(t, req, "admin")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	handler := RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/internal", nil)
	req = contextWithRole(t, req, "assistant")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if got := rr.Header().Get("WWW-Authenticate"); got == "" {
		t.Fatalf("expected WWW-Authenticate header set")
	}
}

func TestRequireRoleRejectsMissingSession(t *testing.T) {
	handler := RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/internal", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if got := rr.Header().Get("WWW-Authenticate"); got == "" {
		t.Fatalf("expected WWW-Authenticate header set")
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header  string
		token   string
		wantErr bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", false},
		{"bearer abc.def.ghi", "abc.def.ghi", false},
		{"", "", true},
		{"Basic dXNlcg==", "", true},
		{"Bearer ", "", true},
	}
	for _, tc := range cases {
		token, err := extractBearerToken(tc.header)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("header %q: expected error", tc.header)
			}
			continue
		}
		if err != nil {
			t.Fatalf("header %q: %v", tc.header, err)
		}
		if token != tc.token {
			t.Fatalf("header %q: got token %q", tc.header, token)
		}
	}
}

func TestIsPublicPath(t *testing.T) {
	for _, path := range []string{"/api/auth/telegram", "/healthz", "/readyz", "/metrics", "/openapi.yaml", "/"} {
		if !isPublicPath(path) {
			t.Fatalf("expected %q to be public", path)
		}
	}
	for _, path := range []string{"/api/users", "/api/users/link-assistant", "/api/users/abc/role"} {
		if isPublicPath(path) {
			t.Fatalf("expected %q to be protected", path)
		}
	}
}
