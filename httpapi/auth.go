package httpapi

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fthyco/simorg/pkg/kernelerrors"
	"github.com/fthyco/simorg/pkg/logger"
)

// publicPaths never require a bearer token, mirroring the teacher's
// infrastructure/middleware/serviceauth.go allowlist pattern.
var publicPaths = map[string]struct{}{
	"/healthz": {},
	"/version": {},
	"/metrics": {},
}

// wrapWithAuth enforces an HS256 bearer token on every path not in
// publicPaths. An empty secret disables auth entirely (development mode);
// internal/config.Config requires a non-empty secret in production.
func wrapWithAuth(next http.Handler, secret string, log *logger.Logger) http.Handler {
	if secret == "" {
		log.Warn("JWT secret not configured; authenticated endpoints are open")
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := publicPaths[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Code: kernelerrors.Unauthorized})
			return
		}

		_, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Code: kernelerrors.Unauthorized})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}
