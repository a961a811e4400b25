package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/solecart-backend/api/middleware"
	"github.com/angelmondragon/solecart-backend/api/responses"
	"github.com/angelmondragon/solecart-backend/internal/auth"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solecart-backend/pkg/errors"
	"github.com/angelmondragon/solecart-backend/pkg/logger"
)

// LoginFailedPath is where failed OAuth callbacks land.
const LoginFailedPath = "/auth/login/failed"

// SessionCookieConfig controls the browser session cookie set after OAuth.
type SessionCookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

func (c SessionCookieConfig) issue(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c SessionCookieConfig) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// OAuthBegin redirects the browser to the provider consent screen.
func OAuthBegin(svc auth.Service, provider enums.AuthProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, authUnavailableReason))
			return
		}

		target, err := svc.BeginOAuth(r.Context(), provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.Redirect(w, r, target, http.StatusFound)
	}
}

// OAuthCallback finishes the handshake, stores the session cookie and sends
// the browser back to the storefront.
func OAuthCallback(svc auth.Service, provider enums.AuthProvider, cookies SessionCookieConfig, clientURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			http.Redirect(w, r, LoginFailedPath, http.StatusFound)
			return
		}

		query := r.URL.Query()
		if denied := strings.TrimSpace(query.Get("error")); denied != "" {
			if logg != nil {
				logg.Warn(logg.WithFields(ctx, map[string]any{"provider": string(provider), "reason": denied}), "oauth.denied")
			}
			http.Redirect(w, r, LoginFailedPath, http.StatusFound)
			return
		}

		sess, err := svc.CompleteOAuth(ctx, provider, query.Get("state"), query.Get("code"))
		if err != nil {
			if logg != nil {
				logg.Error(logg.WithField(ctx, "provider", string(provider)), "oauth.callback_failed", err)
			}
			http.Redirect(w, r, LoginFailedPath, http.StatusFound)
			return
		}

		cookies.issue(w, sess.AccessToken)
		http.Redirect(w, r, clientURL, http.StatusFound)
	}
}
