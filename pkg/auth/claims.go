// Package auth resolves the opaque user identity attached to each request.
// Identity comes from a bearer token when one is presented, otherwise from
// the session cookie, otherwise the request runs as the shared anonymous
// user. The catalog and logbook are shared; only profiles are per-user.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserKey is the context key holding the resolved user id.
const UserKey contextKey = "user"

// AnonymousUser is the identity assigned when no credentials are presented.
const AnonymousUser = "anonymous"

// Claims is the accepted token payload. The subject is the opaque user id;
// everything else is optional profile seed data.
type Claims struct {
	jwt.RegisteredClaims
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
}

// UserID extracts the resolved user id from the request context. Returns the
// anonymous user when no identity middleware ran.
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserKey).(string); ok && id != "" {
		return id
	}
	return AnonymousUser
}

// WithUser returns a context carrying the given user id.
func WithUser(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, UserKey, id)
}
