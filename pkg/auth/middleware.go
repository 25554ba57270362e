package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Middleware resolves request identity. It never rejects a request: an
// invalid token downgrades to the session identity, and a missing session
// downgrades to the anonymous user.
type Middleware struct {
	validator TokenValidator
	sessions  *SessionStore
	logger    *zap.Logger
}

// NewMiddleware creates the identity middleware. sessions may be nil, in
// which case identity lives only for the single request.
func NewMiddleware(validator TokenValidator, sessions *SessionStore, logger *zap.Logger) *Middleware {
	return &Middleware{
		validator: validator,
		sessions:  sessions,
		logger:    logger.Named("auth"),
	}
}

// Identify attaches the resolved user id to the request context.
func (m *Middleware) Identify(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := m.resolve(w, r)
		next(w, r.WithContext(WithUser(r.Context(), userID)))
	}
}

func (m *Middleware) resolve(w http.ResponseWriter, r *http.Request) string {
	if token := bearerToken(r); token != "" && m.validator != nil {
		claims, err := m.validator.ValidateToken(token)
		if err != nil {
			m.logger.Warn("Rejected bearer token", zap.Error(err))
		} else if claims.Subject != "" {
			if m.sessions != nil {
				if err := m.sessions.SaveUserID(w, r, claims.Subject); err != nil {
					m.logger.Warn("Failed to persist session identity", zap.Error(err))
				}
			}
			return claims.Subject
		}
	}

	if m.sessions != nil {
		if id := m.sessions.UserID(r); id != "" {
			return id
		}
	}
	return AnonymousUser
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
