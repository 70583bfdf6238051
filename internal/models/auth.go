package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session identifies the person working in a workspace.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// JWTClaims is the access token payload.
type JWTClaims struct {
	SessionID string   `json:"session_id"`
	Role      UserRole `json:"role"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	jwt.RegisteredClaims
}
