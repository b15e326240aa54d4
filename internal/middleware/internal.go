package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// InternalSecretHeader carries the shared secret for operator endpoints.
const InternalSecretHeader = "X-Internal-Secret"

// InternalOnly guards scheduler and operator endpoints. With no secret
// configured the endpoints are disabled.
func InternalOnly(secret string) func(http.Handler) http.Handler {
	secret = strings.TrimSpace(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeError(w, http.StatusNotFound, "not_found", "not found")
				return
			}
			got := strings.TrimSpace(r.Header.Get(InternalSecretHeader))
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid internal secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
