package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/DataEditor/internal/core"
	"github.com/JonMunkholm/DataEditor/internal/logging"
)

type ctxKey int

const sessionKey ctxKey = iota

// WithRequestMetadata adds the caller's IP and User-Agent to ctx so session
// activity entries record who made each change.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.WithClient(ctx, core.Client{IP: clientIP(r), UserAgent: r.UserAgent()})
}

// withSession resolves the session cookie to a live session, starting a new
// one when the cookie is missing, unknown or expired.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
			id = c.Value
		}

		sess, created := s.service.SessionOrCreate(id)
		if created {
			if id != "" {
				logging.FromContext(r.Context()).Info("session expired, starting new one",
					"old_session_id", id,
					"session_id", sess.ID,
				)
			}
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Session.CookieName,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.Session.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := WithRequestMetadata(r.Context(), r)
		ctx = context.WithValue(ctx, sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the session attached by withSession.
func sessionFrom(ctx context.Context) *core.Session {
	sess, _ := ctx.Value(sessionKey).(*core.Session)
	return sess
}
