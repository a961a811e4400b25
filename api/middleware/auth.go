package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/solecart-backend/api/responses"
	pkgAuth "github.com/angelmondragon/solecart-backend/pkg/auth"
	"github.com/angelmondragon/solecart-backend/pkg/auth/session"
	"github.com/angelmondragon/solecart-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/solecart-backend/pkg/errors"
	"github.com/angelmondragon/solecart-backend/pkg/logger"
)

const (
	// SessionCookie carries the access token for browser clients coming back from OAuth.
	SessionCookie = "sc_session"

	unauthorizedMessage = "unauthorized"
)

// Auth validates the access token from the Authorization header or the session
// cookie and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				rejectUnauthorized(w, r, logg, "missing credentials", nil)
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				rejectUnauthorized(w, r, logg, "invalid token", err)
				return
			}
			if claims.ID == "" {
				rejectUnauthorized(w, r, logg, "missing session id", nil)
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					rejectUnauthorized(w, r, logg, "session unavailable", nil)
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxEmail, claims.Email)
			ctx = context.WithValue(ctx, ctxProvider, string(claims.Provider))
			ctx = context.WithValue(ctx, ctxAccessID, claims.ID)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":  claims.UserID.String(),
					"provider": string(claims.Provider),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw != "" {
		if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			raw = strings.TrimSpace(raw[7:])
		}
		return raw
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

// rejectUnauthorized logs the concrete reason and answers with the generic message.
func rejectUnauthorized(w http.ResponseWriter, r *http.Request, logg *logger.Logger, reason string, cause error) {
	ctx := r.Context()
	if logg != nil {
		ctx = logg.WithField(ctx, "reason", reason)
		if cause != nil {
			ctx = logg.WithField(ctx, "cause", cause.Error())
		}
		logg.Warn(ctx, "auth.rejected")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeUnauthorized, unauthorizedMessage))
}
