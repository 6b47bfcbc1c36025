package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dogsport-ua/competition-engine/internal/models"
	"github.com/dogsport-ua/competition-engine/internal/storage"
)

// AuthMiddleware handles bearer-token authentication. Tokens are rows in
// the auth_tokens table, provisioned outside this service.
type AuthMiddleware struct {
	repo storage.Repository
}

// NewAuthMiddleware creates new auth middleware
func NewAuthMiddleware(repo storage.Repository) *AuthMiddleware {
	return &AuthMiddleware{repo: repo}
}

// Authenticate verifies the token from the Authorization header.
// Supports "Bearer <token>" or a raw token; X-Auth-Token works as fallback.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeAuthError(w, http.StatusUnauthorized, "missing token", "provide Authorization header with Bearer token")
			return
		}

		row, err := m.repo.GetAuthToken(r.Context(), token)
		if err != nil {
			slog.Error("failed to lookup auth token", "error", err, "token_prefix", maskToken(token))
			writeAuthError(w, http.StatusInternalServerError, "authentication error", "internal server error")
			return
		}

		if row == nil {
			slog.Warn("invalid token attempt", "token_prefix", maskToken(token), "remote_addr", r.RemoteAddr)
			writeAuthError(w, http.StatusUnauthorized, "invalid token", "the provided token is not valid")
			return
		}

		if !row.IsActive {
			slog.Warn("inactive token attempt", "user", row.UserID, "token_prefix", maskToken(token))
			writeAuthError(w, http.StatusUnauthorized, "token inactive", "this token has been deactivated")
			return
		}

		// Update last_used_at asynchronously (don't block request)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.repo.UpdateTokenLastUsed(ctx, token); err != nil {
				slog.Error("failed to update token last_used_at", "error", err, "user", row.UserID)
			}
		}()

		user := &models.AuthUser{UserID: row.UserID, Role: row.Role}
		slog.Debug("authenticated request", "user", user.UserID, "role", user.Role)

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// RequireRole returns middleware that admits only the given roles
func (m *AuthMiddleware) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				writeAuthError(w, http.StatusUnauthorized, "not authenticated", "authentication required")
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			slog.Warn("role denied", "user", user.UserID, "role", user.Role)
			writeAuthError(w, http.StatusForbidden, "permission denied", "insufficient role for this operation")
		})
	}
}

// extractToken extracts the bearer token from request headers
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimPrefix(authHeader, "Bearer ")
		}
		return authHeader
	}

	return r.Header.Get("X-Auth-Token")
}

// maskToken returns first 8 chars of a token for safe logging
func maskToken(token string) string {
	if len(token) < 8 {
		return "***"
	}
	return token[:8] + "..."
}

// AuthError represents an authentication error response
type AuthError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeAuthError writes JSON error response
func writeAuthError(w http.ResponseWriter, status int, error, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(AuthError{
		Error:   error,
		Message: message,
	})
}
