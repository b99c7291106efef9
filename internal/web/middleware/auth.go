package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/sheetnorm/internal/config"
	"github.com/JonMunkholm/sheetnorm/internal/core"
)

// APIKeyHeader carries the client key.
const APIKeyHeader = "X-API-Key"

var (
	errMissingKey = errors.New("missing api key")
	errInvalidKey = errors.New("invalid api key")
)

// APIKeyAuth returns middleware that validates X-API-Key against cfg.APIKeys.
// If RequireAPIKey is false, all requests pass through.
// If RequireAPIKey is true but no keys are configured, all requests are rejected.
func APIKeyAuth(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	keys := make([][]byte, len(cfg.APIKeys))
	for i, k := range cfg.APIKeys {
		keys[i] = []byte(k)
	}

	return func(next http.Handler) http.Handler {
		if !cfg.RequireAPIKey {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get(APIKeyHeader)

			var err error
			status := http.StatusUnauthorized
			switch {
			case apiKey == "":
				err = errMissingKey
			case !isValidAPIKey([]byte(apiKey), keys):
				err, status = errInvalidKey, http.StatusForbidden
			}
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			slog.Warn("auth: rejected request",
				"reason", err.Error(),
				"path", r.URL.Path,
				"method", r.Method,
				"remote_addr", r.RemoteAddr,
			)
			writeUserError(w, status, err)
		})
	}
}

// isValidAPIKey compares key against every configured key in constant time
// so the response time does not reveal which key matched.
func isValidAPIKey(key []byte, validKeys [][]byte) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare(key, validKey)
	}
	return valid == 1
}

// writeUserError writes the standard JSON error body for err.
func writeUserError(w http.ResponseWriter, status int, err error) {
	msg := core.MapError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   msg.Message,
		"message": msg.Message,
		"action":  msg.Action,
		"code":    msg.Code,
	})
}
