package auth

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
)

// Session value keys.
const sessionKeyUserID = "user_id"

// SessionStore persists the resolved user id in a signed cookie so a user
// who authenticated once keeps their identity on later requests without
// re-presenting a token.
type SessionStore struct {
	store      *sessions.CookieStore
	cookieName string
}

// NewSessionStore builds the cookie store. The secret is any passphrase; it
// is SHA-256 hashed to a 32-byte signing key and must stay stable across
// restarts.
func NewSessionStore(secret, cookieName string) *SessionStore {
	key := sha256.Sum256([]byte(secret))
	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store, cookieName: cookieName}
}

// UserID reads the user id from the request's session cookie, or "" when the
// session is absent or unreadable.
func (s *SessionStore) UserID(r *http.Request) string {
	session, err := s.store.Get(r, s.cookieName)
	if err != nil {
		return ""
	}
	id, _ := session.Values[sessionKeyUserID].(string)
	return id
}

// SaveUserID writes the user id into the session cookie.
func (s *SessionStore) SaveUserID(w http.ResponseWriter, r *http.Request, userID string) error {
	session, err := s.store.Get(r, s.cookieName)
	if err != nil {
		// A stale or tampered cookie decodes to a fresh session.
		session, _ = s.store.New(r, s.cookieName)
	}
	session.Values[sessionKeyUserID] = userID
	return session.Save(r, w)
}
