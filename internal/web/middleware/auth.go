package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/classdata/internal/apperr"
)

// APIKeyAuth returns middleware that requires the query parameter param to
// equal key. Rejected requests get 401 with apperr.Unauthorized, the same
// body for a missing key and a wrong key, and never reach next. An empty key
// rejects everything.
func APIKeyAuth(key, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !validAPIKey(r.URL.Query().Get(param), key) {
				slog.Warn("auth: rejected request",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				_ = apperr.Write(w, http.StatusUnauthorized, apperr.Unauthorized())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// validAPIKey compares in constant time relative to the secret's content.
func validAPIKey(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
