package auth

import (
	"context"
	"errors"

	"github.com/angelmondragon/solecart-backend/internal/users"
	"github.com/angelmondragon/solecart-backend/pkg/db"
	"github.com/angelmondragon/solecart-backend/pkg/db/models"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solecart-backend/pkg/errors"
	"github.com/angelmondragon/solecart-backend/pkg/oauth"
	"gorm.io/gorm"
)

// BeginOAuth returns the provider consent URL carrying a freshly stored state.
func (s *service) BeginOAuth(ctx context.Context, provider enums.AuthProvider) (string, error) {
	p, err := s.provider(provider)
	if err != nil {
		return "", err
	}
	state, err := s.states.Issue(ctx, provider)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue oauth state")
	}
	return p.AuthCodeURL(state), nil
}

// CompleteOAuth validates the callback, resolves the local user and opens a
// cookie session.
// Users are matched by provider id first, then by email (linking the provider).
func (s *service) CompleteOAuth(ctx context.Context, provider enums.AuthProvider, state, code string) (*Session, error) {
	p, err := s.provider(provider)
	if err != nil {
		return nil, err
	}
	if err := s.states.Consume(ctx, provider, state); err != nil {
		if errors.Is(err, oauth.ErrInvalidState) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid oauth state")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume oauth state")
	}

	profile, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "oauth exchange failed")
	}

	user, created, err := s.resolveOAuthUser(ctx, profile)
	if err != nil {
		return nil, err
	}
	if created {
		s.emit(ctx, enums.EventOAuthUserCreated, user)
	}
	return s.issueCookieSession(ctx, user)
}

func (s *service) resolveOAuthUser(ctx context.Context, profile *oauth.Profile) (*models.User, bool, error) {
	var (
		user    *models.User
		created bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.usersFor(tx)

		existing, err := repo.FindByProviderID(ctx, profile.Provider, profile.ExternalID)
		if err == nil {
			user = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup provider id")
		}

		existing, err = repo.FindByEmail(ctx, profile.Email)
		if err == nil {
			if err := repo.LinkProvider(ctx, existing.ID, profile.Provider, profile.ExternalID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link provider")
			}
			setProviderID(existing, profile.Provider, profile.ExternalID)
			user = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}

		dto := users.CreateUserDTO{
			Email:       profile.Email,
			DisplayName: profile.DisplayName,
			Provider:    profile.Provider,
		}
		switch profile.Provider {
		case enums.AuthProviderGoogle:
			dto.GoogleID = profile.ExternalID
		case enums.AuthProviderFacebook:
			dto.FacebookID = profile.ExternalID
		}
		newUser, err := repo.Create(ctx, dto)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, userExistsMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		user = newUser
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return user, created, nil
}

func (s *service) provider(name enums.AuthProvider) (oauth.Provider, error) {
	if s.providers == nil || s.states == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "oauth provider not configured")
	}
	p, err := s.providers.Get(name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "oauth provider not configured")
	}
	return p, nil
}

func setProviderID(user *models.User, provider enums.AuthProvider, externalID string) {
	switch provider {
	case enums.AuthProviderGoogle:
		user.GoogleID = externalID
	case enums.AuthProviderFacebook:
		user.FacebookID = externalID
	}
}
