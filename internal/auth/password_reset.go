package auth

import (
	"context"
	"errors"

	"github.com/angelmondragon/solecart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solecart-backend/pkg/errors"
	"github.com/angelmondragon/solecart-backend/pkg/mailer"
	"github.com/angelmondragon/solecart-backend/pkg/security"
	"gorm.io/gorm"
)

// RequestPasswordReset stores a fresh token on the user and mails the reset link.
// If the mail cannot be sent the token is cleared again.
func (s *service) RequestPasswordReset(ctx context.Context, req ResetPasswordRequest) (*ResetIssued, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, userNotFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	token, err := security.GenerateToken(s.resetCfg.TokenLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}
	expires := s.now().UTC().Add(s.resetCfg.TokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, token, expires); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store reset token")
	}

	msg := mailer.PasswordResetEmail(user.Email, s.resetCfg.Link(token))
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logg.Error(s.logg.WithAccount(ctx, user.Email), "error sending email", err)
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logg.Error(ctx, "clear reset token after mail failure", clearErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "send reset email")
	}

	s.emit(ctx, enums.EventPasswordResetRequested, user)

	issued := &ResetIssued{}
	if s.exposeToken {
		issued.Token = token
	}
	return issued, nil
}

// ResetPassword consumes a valid, unexpired token and replaces the password.
func (s *service) ResetPassword(ctx context.Context, req ChangePasswordRequest) error {
	if req.ResetPasswordToken == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidResetMessage)
	}
	if req.NewPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password is required")
	}

	user, err := s.users.FindByResetToken(ctx, req.ResetPasswordToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidResetMessage)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup reset token")
	}

	now := s.now().UTC()
	if user.ResetPasswordExpires == nil || !user.ResetPasswordExpires.After(now) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidResetMessage)
	}

	hash, err := security.HashPassword(req.NewPassword, s.hashCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	ok, err := s.users.ConsumeResetToken(ctx, user.ID, req.ResetPasswordToken, hash, now)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidResetMessage)
	}

	s.emit(ctx, enums.EventPasswordResetCompleted, user)
	return nil
}
