package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"projectguard.org/internal/session"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/api/auth/telegram",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/openapi.yaml",
	"/",
}

// withAuth demands a valid session token on every non-public path. Verified
// claims land in the request context; the token itself stays opaque to
// handlers.
func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.sessions == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="projectguard"`)
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := a.sessions.Verify(token)
		if err != nil {
			if errors.Is(err, session.ErrInvalidToken) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="projectguard", error="invalid_token"`)
				writeError(w, r, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		next.ServeHTTP(w, r.WithContext(session.ContextWithClaims(r.Context(), claims)))
	})
}

// RequireRole gates a handler behind a session role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := session.ClaimsFromContext(r.Context()); !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="projectguard"`)
				writeError(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			if !session.HasRole(r.Context(), role) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="projectguard", error="insufficient_scope"`)
				writeError(w, r, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireRole is the in-handler variant for routes that share a pattern.
func (a *API) requireRole(w http.ResponseWriter, r *http.Request, role string) bool {
	if _, ok := session.ClaimsFromContext(r.Context()); !ok {
		w.Header().Set("WWW-Authenticate", `Bearer realm="projectguard"`)
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return false
	}
	if !session.HasRole(r.Context(), role) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="projectguard", error="insufficient_scope"`)
		writeError(w, r, http.StatusForbidden, "insufficient role")
		return false
	}
	return true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
