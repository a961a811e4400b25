package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/solecart-backend/api/responses"
	"github.com/angelmondragon/solecart-backend/api/validators"
	"github.com/angelmondragon/solecart-backend/internal/auth"
	"github.com/angelmondragon/solecart-backend/internal/users"
	pkgerrors "github.com/angelmondragon/solecart-backend/pkg/errors"
	"github.com/angelmondragon/solecart-backend/pkg/logger"
)

// TokenHeader mirrors the access token for clients that cannot read the body.
const TokenHeader = "X-SC-Token"

const (
	registeredMessage     = "User registered and logged in successfully"
	loginMessage          = "Login successful"
	resetSentMessage      = "Password reset email sent"
	passwordResetMessage  = "Password reset successfully"
	refreshedMessage      = "Session refreshed"
	authUnavailableReason = "auth service unavailable"
)

type sessionResponse struct {
	Message      string         `json:"message"`
	User         *users.UserDTO `json:"user"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
}

type resetResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

func writeSession(w http.ResponseWriter, message string, sess *auth.Session) {
	w.Header().Set(TokenHeader, sess.AccessToken)
	responses.WriteSuccess(w, sessionResponse{
		Message:      message,
		User:         sess.User,
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
	})
}

// AuthRegister creates a local account and logs it in.
func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, authUnavailableReason))
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeSession(w, registeredMessage, sess)
	}
}

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, authUnavailableReason))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeSession(w, loginMessage, sess)
	}
}

// AuthRefresh rotates the refresh token. The bearer token may already be expired.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, authUnavailableReason))
			return
		}

		var body auth.RefreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := parseBearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := svc.Refresh(r.Context(), token, body.RefreshToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeSession(w, refreshedMessage, sess)
	}
}

// AuthRequestPasswordReset mails a reset link to a known account.
func AuthRequestPasswordReset(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, authUnavailableReason))
			return
		}

		var body auth.ResetPasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		issued, err := svc.RequestPasswordReset(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := resetResponse{Message: resetSentMessage}
		if issued != nil {
			resp.Token = issued.Token
		}
		responses.WriteSuccess(w, resp)
	}
}

// AuthChangePassword completes a reset with the mailed token.
func AuthChangePassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, authUnavailableReason))
			return
		}

		var body auth.ChangePasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ResetPassword(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, responses.MessageBody{Message: passwordResetMessage})
	}
}

func parseBearerToken(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	token := raw
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return token, nil
}
