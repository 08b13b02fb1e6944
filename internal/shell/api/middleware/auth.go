// Package middleware provides HTTP middleware shared by the REST and JSON:API
// surfaces.
package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Headers carrying the API key.
const (
	HeaderAuthorization = "Authorization"
	HeaderAPIKey        = "X-API-Key"
)

// =============================================================================
// API Key Configuration
// =============================================================================

// APIKeyConfig holds configuration for the API key middleware.
type APIKeyConfig struct {
	// Key is the shared API key. If empty, every request passes.
	Key string

	// Logger for auth middleware logging.
	Logger *slog.Logger
}

// =============================================================================
// API Key Middleware
// =============================================================================

// APIKeyMiddleware guards mutating requests with a shared key. Reads stay
// public.
type APIKeyMiddleware struct {
	config APIKeyConfig
}

// NewAPIKeyMiddleware creates a new API key middleware with the given config.
func NewAPIKeyMiddleware(cfg APIKeyConfig) *APIKeyMiddleware {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &APIKeyMiddleware{config: cfg}
}

// Handler returns the middleware handler function. POST, PUT, PATCH and
// DELETE requests need "Authorization: Bearer <key>" or "X-API-Key: <key>".
func (m *APIKeyMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.config.Key == "" || !IsMutation(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		if !m.authorized(r) {
			m.config.Logger.Warn("unauthorized request",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
				"method", r.Method,
			)
			WriteError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *APIKeyMiddleware) authorized(r *http.Request) bool {
	key := r.Header.Get(HeaderAPIKey)
	if key == "" {
		auth := r.Header.Get(HeaderAuthorization)
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			key = strings.TrimSpace(token)
		}
	}
	if key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.config.Key)) == 1
}

// IsMutation reports whether method changes server state.
func IsMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// =============================================================================
// JSON Error Response
// =============================================================================

// ErrorResponse mirrors the API error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}
