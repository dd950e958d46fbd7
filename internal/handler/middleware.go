package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/boddenberg/saas-admin-bfa-go/internal/infra/backend"
	"github.com/boddenberg/saas-admin-bfa-go/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	sessionIDKey contextKey = "sessionID"
	sessionKey   contextKey = "session"
)

const (
	// SessionCookie carries the browser session id.
	SessionCookie = "bfa_sid"
	// SessionHeader is accepted when cookies are unavailable.
	SessionHeader = "X-Session-ID"
)

// SessionIDMiddleware resolves the browser session id from the cookie or the
// header, minting a new one (and setting the cookie) when neither is present.
func SessionIDMiddleware(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				sid = c.Value
			}
			if sid == "" {
				sid = strings.TrimSpace(r.Header.Get(SessionHeader))
			}
			if _, err := uuid.Parse(sid); err != nil {
				sid = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(SessionHeader, sid)

			ctx := context.WithValue(r.Context(), sessionIDKey, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromContext returns the browser session id.
func SessionIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// SessionGate admits requests that hold a live session of context sc.
// Otherwise it answers 401 with the login route of that context, both in
// the body and in the Location header.
func SessionGate(sessions *service.SessionManager, sc domain.SessionContext, loginPath string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := sessions.Load(r.Context(), SessionIDFromContext(r.Context()), sc)
			if err != nil {
				var unauthorized *domain.ErrUnauthorized
				if !errors.As(err, &unauthorized) {
					handleServiceError(w, err, logger)
					return
				}
				logger.Debug("session gate: denied",
					zap.String("context", string(sc)),
					zap.String("path", r.URL.Path),
					zap.String("reason", err.Error()),
				)
				w.Header().Set("Location", loginPath)
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), RedirectTo: loginPath})
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			ctx = backend.WithBearer(ctx, session.Token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session injected by SessionGate.
func SessionFromContext(ctx context.Context) *domain.Session {
	v, _ := ctx.Value(sessionKey).(*domain.Session)
	return v
}
