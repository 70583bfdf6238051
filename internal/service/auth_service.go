package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/anubhav0108/timetable-ace-api/internal/dto"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
)

type sessionWorkspaces interface {
	Open(ctx context.Context, session models.Session) (*models.Workspace, error)
	Close(ctx context.Context, sessionID string) error
	Load(ctx context.Context, sessionID string) (*models.Workspace, error)
}

// AuthConfig defines configuration for session tokens.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	// AccessCodeHash is a bcrypt hash; when empty no access code is required.
	AccessCodeHash string
}

// AuthService opens and closes sessions.
type AuthService struct {
	workspaces sessionWorkspaces
	audit      auditRecorder
	validator  *validator.Validate
	logger     *zap.Logger
	config     AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(workspaces sessionWorkspaces, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 12 * time.Hour
	}
	return &AuthService{workspaces: workspaces, audit: audit, validator: validate, logger: logger, config: config}
}

// Login creates a session with its workspace and issues a token.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	if s.config.AccessCodeHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(s.config.AccessCodeHash), []byte(req.AccessCode)); err != nil {
			return nil, appErrors.ErrInvalidCredentials
		}
	}

	now := time.Now().UTC()
	session := models.Session{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Role:      req.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.AccessTokenExpiry),
	}

	if _, err := s.workspaces.Open(ctx, session); err != nil {
		return nil, err
	}

	token, err := s.generateAccessToken(session)
	if err != nil {
		_ = s.workspaces.Close(ctx, session.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	if _, err := s.audit.Record(ctx, session, models.AuditActionLogin, fmt.Sprintf("%s signed in as %s.", session.Name, session.Role)); err != nil {
		s.logger.Warn("failed to record login audit log", zap.Error(err))
	}

	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   session.ExpiresAt,
		Session:     session,
	}, nil
}

// Logout discards the session workspace.
func (s *AuthService) Logout(ctx context.Context, session models.Session) error {
	if err := s.workspaces.Close(ctx, session.ID); err != nil {
		return err
	}
	if _, err := s.audit.Record(ctx, session, models.AuditActionLogout, fmt.Sprintf("%s signed out.", session.Name)); err != nil {
		s.logger.Warn("failed to record logout audit log", zap.Error(err))
	}
	return nil
}

// Me returns the session stored with the workspace.
func (s *AuthService) Me(ctx context.Context, sessionID string) (*models.Session, error) {
	ws, err := s.workspaces.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session := ws.Session
	return &session, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) generateAccessToken(session models.Session) (string, error) {
	claims := &models.JWTClaims{
		SessionID: session.ID,
		Role:      session.Role,
		Name:      session.Name,
		Email:     session.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   session.ID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			NotBefore: jwt.NewNumericDate(session.CreatedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}
