package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"valetpark.org/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/login",
	"/v1/auth/refresh-token",
	"/v1/auth/validate-token",
	"/v1/host/register",
	"/v1/info",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

// withAuth is the access filter: it verifies the bearer token and checks
// the caller's scopes against the static rule for the route before any
// handler runs.
func (a *API) withAuth(next http.Handler) http.Handler {
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
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		identity, err := a.auth.VerifyAccess(token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			writeError(w, http.StatusInternalServerError, "authentication error")
			return
		}

		required := requiredScope(r.Method, r.URL.Path)
		if !auth.Satisfies(identity.Scopes, required) {
			writeError(w, http.StatusForbidden, "insufficient scope")
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requiredScope applies the static rule table: admin routes need admin,
// mutating methods need write, everything else needs read.
func requiredScope(method, path string) string {
	if strings.HasPrefix(path, "/v1/admin/") {
		return auth.ScopeAdmin
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return auth.ScopeWrite
	default:
		return auth.ScopeRead
	}
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
