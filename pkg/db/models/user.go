package models

import (
	"time"

	"github.com/angelmondragon/solecart-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the canonical identity entity.
type User struct {
	ID                   uuid.UUID          `gorm:"type:uuid;primaryKey"`
	Email                string             `gorm:"type:text;not null;uniqueIndex"`
	DisplayName          string             `gorm:"column:display_name;not null;default:''"`
	PasswordHash         string             `gorm:"column:password_hash;not null;default:''"`
	Provider             enums.AuthProvider `gorm:"column:provider;type:text;not null;default:'local'"`
	GoogleID             string             `gorm:"column:google_id;type:text;not null;uniqueIndex"`
	FacebookID           string             `gorm:"column:facebook_id;type:text;not null;uniqueIndex"`
	ResetPasswordToken   *string            `gorm:"column:reset_password_token;index"`
	ResetPasswordExpires *time.Time         `gorm:"column:reset_password_expires"`
	LastLoginAt          *time.Time         `gorm:"column:last_login_at"`
	CreatedAt            time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns ids in code so sqlite and postgres behave the same.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.GoogleID == "" {
		u.GoogleID = uuid.NewString()
	}
	if u.FacebookID == "" {
		u.FacebookID = uuid.NewString()
	}
	return nil
}

// HasPassword reports whether local credentials were ever set.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
