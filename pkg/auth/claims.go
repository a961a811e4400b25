package auth

import (
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Email    string
	Provider enums.AuthProvider
	// JTI doubles as the redis session id; a random one is assigned when empty.
	JTI string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID          `json:"user_id"`
	Email    string             `json:"email"`
	Provider enums.AuthProvider `json:"provider"`
	jwt.RegisteredClaims
}
