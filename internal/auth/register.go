package auth

import (
	"context"
	"errors"

	"github.com/angelmondragon/solecart-backend/internal/users"
	"github.com/angelmondragon/solecart-backend/pkg/db"
	"github.com/angelmondragon/solecart-backend/pkg/db/models"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solecart-backend/pkg/errors"
	"github.com/angelmondragon/solecart-backend/pkg/security"
	"gorm.io/gorm"
)

// Register creates a local user and logs them in. Placeholder provider ids
// are assigned so a later OAuth login can be linked by email.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.hashCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var user *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.usersFor(tx)

		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, userExistsMessage)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		created, err := repo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			DisplayName:  req.DisplayName,
			PasswordHash: passwordHash,
			Provider:     enums.AuthProviderLocal,
		})
		if err != nil {
			if db.IsUniqueViolation(err, users.EmailUniqueConstraint) {
				return pkgerrors.New(pkgerrors.CodeConflict, userExistsMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, enums.EventUserRegistered, user)
	return s.issueSession(ctx, user)
}
