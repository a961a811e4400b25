package auth

import (
	"github.com/angelmondragon/solecart-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the local sign-up payload.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"displayName" validate:"omitempty,max=120"`
}

// ResetPasswordRequest starts the reset flow.
type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ChangePasswordRequest completes the reset flow.
type ChangePasswordRequest struct {
	ResetPasswordToken string `json:"resetPasswordToken" validate:"required"`
	NewPassword        string `json:"newPassword" validate:"required,min=6"`
}

// RefreshRequest carries the refresh token paired with the bearer access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Session is the token pair plus the user it was minted for.
type Session struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}

// ResetIssued reports a started reset. Token is only populated when the
// deployment exposes it for local testing.
type ResetIssued struct {
	Token string
}
