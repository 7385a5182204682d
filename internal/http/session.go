package http

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "subtrack_session"

type contextKey string

const userContextKey contextKey = "user"

// SessionUser is the authenticated identity attached to the request context.
type SessionUser struct {
	ID    string
	Email string
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (SessionUser, bool) {
	u, ok := ctx.Value(userContextKey).(SessionUser)
	return u, ok
}

// withSession resolves the session cookie into a user and rejects the
// request when it is missing or invalid. Browser page loads are redirected
// to /login; HTMX partials and API-shaped paths get a plain 401 so the
// client can handle it.
func (s *Server) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			s.denySession(w, r)
			return
		}

		claims, err := s.tokens.Validate(cookie.Value)
		if err != nil {
			s.logger.DebugContext(r.Context(), "session token rejected", "error", err)
			s.clearSessionCookie(w)
			s.denySession(w, r)
			return
		}

		user := SessionUser{ID: claims.UserID, Email: claims.Email}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) denySession(w http.ResponseWriter, r *http.Request) {
	if isPartialRequest(r) {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func isPartialRequest(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/ui/")
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.tokens.TokenDuration()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
