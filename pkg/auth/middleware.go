package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/greda-gbc/assessment-engine/pkg/models"
	"github.com/greda-gbc/assessment-engine/pkg/repositories"
)

// Middleware provides HTTP authentication middleware. It validates the
// bearer token, resolves the platform account it names, and rejects
// suspended accounts before the request reaches a handler.
type Middleware struct {
	tokens   TokenValidator
	userRepo repositories.UserRepository
	logger   *zap.Logger
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(tokens TokenValidator, userRepo repositories.UserRepository, logger *zap.Logger) *Middleware {
	return &Middleware{
		tokens:   tokens,
		userRepo: userRepo,
		logger:   logger.Named("auth-middleware"),
	}
}

// RequireAuth validates the JWT and resolves the account. Sets claims, token,
// and the account in context for downstream handlers.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			m.unauthorized(w, "Authentication required")
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			m.unauthorized(w, "Invalid or expired token")
			return
		}

		userID, err := claims.SubjectUUID()
		if err != nil {
			m.unauthorized(w, "Invalid token subject")
			return
		}

		user, err := m.userRepo.GetByID(r.Context(), userID)
		if err != nil {
			m.logger.Warn("Token subject has no platform account",
				zap.String("subject", claims.Subject),
				zap.String("path", r.URL.Path))
			m.unauthorized(w, "Unknown account")
			return
		}

		if user.Status == models.UserStatusSuspended {
			m.forbidden(w, "Account suspended")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		ctx = context.WithValue(ctx, TokenKey, token)
		ctx = context.WithValue(ctx, UserKey, user)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole wraps RequireAuth and additionally requires one of the given
// roles. Use for admin-only surfaces like user management.
func (m *Middleware) RequireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok || !allowed[user.Role] {
				m.forbidden(w, "Insufficient role")
				return
			}
			next(w, r)
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}

// forbidden returns a 403 response with JSON error body.
func (m *Middleware) forbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "forbidden",
		"message": message,
	})
}
