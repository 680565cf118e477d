package auth

import (
	"context"
	"net/http"
	"time"
)

type contextKey string

const sessionKey contextKey = "session"

// Identity is the signed-in guest.
type Identity struct {
	ID uint `json:"id"`
}

type Session struct {
	User    Identity
	Expires time.Time
}

// Provider resolves the caller's session, or nil when nobody is signed in.
type Provider interface {
	Auth(ctx context.Context) (*Session, error)
}

// Auth reads the session attached by SessionMiddleware.
func (h *AuthHandler) Auth(ctx context.Context) (*Session, error) {
	return SessionFromContext(ctx), nil
}

func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionMiddleware attaches the session of a valid auth cookie to the request
// context. Requests without one continue anonymously; each operation decides
// whether it needs a session.
func (h *AuthHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(TokenCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		guestID, exp, err := h.ParseToken(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		// Sliding session: refresh token if it's more than halfway through its duration
		if time.Until(exp) < TokenDuration/2 {
			if newToken, err := h.GenerateToken(guestID); err == nil {
				http.SetCookie(w, h.sessionCookie(newToken))
				exp = time.Now().Add(TokenDuration)
			}
		}

		ctx := WithSession(r.Context(), &Session{User: Identity{ID: guestID}, Expires: exp})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
