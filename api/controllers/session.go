package controllers

import (
	"net/http"

	"github.com/angelmondragon/solecart-backend/api/middleware"
	"github.com/angelmondragon/solecart-backend/api/responses"
	"github.com/angelmondragon/solecart-backend/internal/auth"
	"github.com/angelmondragon/solecart-backend/internal/users"
	pkgerrors "github.com/angelmondragon/solecart-backend/pkg/errors"
	"github.com/angelmondragon/solecart-backend/pkg/logger"
	"github.com/google/uuid"
)

type loginStatus struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	User    *users.UserDTO `json:"user,omitempty"`
}

// LoginSuccess reports the user behind the current session.
func LoginSuccess(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, authUnavailableReason))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "unauthorized"))
			return
		}

		user, err := svc.CurrentUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, loginStatus{Success: true, Message: "successfull", User: user})
	}
}

func LoginFailed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccessStatus(w, http.StatusUnauthorized, loginStatus{Success: false, Message: "failure"})
	}
}

// Logout revokes the session, clears the cookie and returns to the storefront.
func Logout(svc auth.Service, cookies SessionCookieConfig, clientURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, authUnavailableReason))
			return
		}

		if err := svc.Logout(r.Context(), middleware.AccessIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookies.clear(w)
		http.Redirect(w, r, clientURL, http.StatusFound)
	}
}
