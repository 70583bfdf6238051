package dto

import (
	"time"

	"github.com/anubhav0108/timetable-ace-api/internal/models"
)

// LoginRequest opens a session and its workspace.
type LoginRequest struct {
	Name       string          `json:"name" validate:"required,max=120"`
	Email      string          `json:"email" validate:"required,email"`
	Role       models.UserRole `json:"role" validate:"required,oneof=admin faculty student"`
	AccessCode string          `json:"accessCode,omitempty"`
}

// LoginResponse carries the issued token and the session it identifies.
type LoginResponse struct {
	AccessToken string         `json:"accessToken"`
	TokenType   string         `json:"tokenType"`
	ExpiresAt   time.Time      `json:"expiresAt"`
	Session     models.Session `json:"session"`
}
