package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/streamscribe/backend/internal/logging"
)

// APIKeyHeader is the request header checked by APIKey.
const APIKeyHeader = "X-API-Key"

// APIKey rejects mutating requests under /api/ unless the X-API-Key header
// matches the bcrypt hash. An empty hash disables the check.
func APIKey(hash string) func(http.Handler) http.Handler {
	hash = strings.TrimSpace(hash)
	return func(next http.Handler) http.Handler {
		if hash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requiresKey(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(APIKeyHeader)
			if key == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) != nil {
				logging.FromContext(r.Context()).Warn("rejected request without valid api key")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"detail": "invalid or missing API key"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HashAPIKey returns the bcrypt hash to configure as api_key_hash.
func HashAPIKey(key string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func requiresKey(r *http.Request) bool {
	if !strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
