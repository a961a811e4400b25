package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/solecart-backend/pkg/db/models"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials and reset state.
type UserDTO struct {
	ID          uuid.UUID          `json:"id"`
	Email       string             `json:"email"`
	DisplayName string             `json:"displayName"`
	Provider    enums.AuthProvider `json:"provider"`
	GoogleID    string             `json:"googleId"`
	FacebookID  string             `json:"facebookId"`
	LastLoginAt *time.Time         `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
// Empty provider ids are replaced with random placeholders on insert.
type CreateUserDTO struct {
	Email        string
	DisplayName  string
	PasswordHash string
	Provider     enums.AuthProvider
	GoogleID     string
	FacebookID   string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Provider:    u.Provider,
		GoogleID:    u.GoogleID,
		FacebookID:  u.FacebookID,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	provider := c.Provider
	if provider == "" {
		provider = enums.AuthProviderLocal
	}
	return &models.User{
		Email:        c.Email,
		DisplayName:  c.DisplayName,
		PasswordHash: c.PasswordHash,
		Provider:     provider,
		GoogleID:     c.GoogleID,
		FacebookID:   c.FacebookID,
	}
}
