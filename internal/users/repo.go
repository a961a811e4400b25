package users

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/solecart-backend/pkg/db/models"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmailUniqueConstraint names the unique index on users.email.
const EmailUniqueConstraint = "users_email_key"

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByResetToken returns the user holding the token, regardless of expiry.
func (r *Repository) FindByResetToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("reset_password_token = ?", token).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByProviderID looks up a user by their google_id or facebook_id.
func (r *Repository) FindByProviderID(ctx context.Context, provider enums.AuthProvider, externalID string) (*models.User, error) {
	column, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := r.db.WithContext(ctx).Where(column+" = ?", externalID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// LinkProvider stores the external id of an OAuth provider on an existing user.
func (r *Repository) LinkProvider(ctx context.Context, id uuid.UUID, provider enums.AuthProvider, externalID string) error {
	column, err := providerColumn(provider)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn(column, externalID).Error
}

// SetResetToken stores a reset token and its expiry.
func (r *Repository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"reset_password_token":   token,
			"reset_password_expires": expires.UTC(),
		}).Error
}

// ClearResetToken drops any pending reset token.
func (r *Repository) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"reset_password_token":   nil,
			"reset_password_expires": nil,
		}).Error
}

// ConsumeResetToken replaces the password hash and clears the reset token,
// but only while the token is still stored and unexpired. It reports whether
// a row was updated.
func (r *Repository) ConsumeResetToken(ctx context.Context, id uuid.UUID, token, passwordHash string, now time.Time) (bool, error) {
	now = now.UTC()
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND reset_password_token = ? AND reset_password_expires > ?", id, token, now).
		UpdateColumns(map[string]any{
			"password_hash":          passwordHash,
			"reset_password_token":   nil,
			"reset_password_expires": nil,
			"updated_at":             now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdatePasswordHash swaps the stored hash, used when login upgrades the
// hashing costs.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", passwordHash).Error
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func providerColumn(provider enums.AuthProvider) (string, error) {
	switch provider {
	case enums.AuthProviderGoogle:
		return "google_id", nil
	case enums.AuthProviderFacebook:
		return "facebook_id", nil
	default:
		return "", fmt.Errorf("provider %q has no external id column", provider)
	}
}
