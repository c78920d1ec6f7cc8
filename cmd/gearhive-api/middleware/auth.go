// Package middleware carries the HTTP middleware for the GearHive API.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gearhive/gearhive/internal/config"
	"github.com/gearhive/gearhive/internal/observability"
	"github.com/gearhive/gearhive/internal/storage"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserID returns the authenticated user from the request context.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// Authenticator resolves session tokens to users. With auth disabled every
// request runs as the configured dev user, which keeps local development and
// the CLI usable without a forum session.
type Authenticator struct {
	sessions *storage.SessionRepository
	cfg      config.AuthConfig
	logger   *observability.Logger
}

// NewAuthenticator creates the auth middleware.
func NewAuthenticator(sessions *storage.SessionRepository, cfg config.AuthConfig, logger *observability.Logger) *Authenticator {
	return &Authenticator{
		sessions: sessions,
		cfg:      cfg,
		logger:   logger.WithComponent("auth"),
	}
}

// Middleware authenticates the request and injects the user ID.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Enabled {
			ctx := context.WithValue(r.Context(), userIDKey, a.cfg.DevUserID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		token := a.extractToken(r)
		if token == "" {
			unauthorized(w, "authentication required")
			return
		}

		userID, err := a.sessions.GetUserID(r.Context(), token)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, storage.ErrSessionExpired) {
				a.logger.Error().Err(err).Msg("Session lookup failed")
			}
			unauthorized(w, "invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(a.cfg.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
