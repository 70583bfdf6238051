package middleware

import (
	"context"
	"strings"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"

	"github.com/anubhav0108/timetable-ace-api/internal/models"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
	"github.com/anubhav0108/timetable-ace-api/pkg/logger"
	"github.com/anubhav0108/timetable-ace-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing JWT claims.
	ContextUserKey = "currentUser"
	// ContextSessionKey stores the models.Session loaded from the workspace.
	ContextSessionKey = "currentSession"
)

// Authenticator validates access tokens and resolves their live session.
type Authenticator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
	Me(ctx context.Context, sessionID string) (*models.Session, error)
}

// JWT protects routes by requiring a valid access token whose workspace still exists.
func JWT(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			return
		}

		claims, err := auth.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			return
		}

		session, err := auth.Me(c.Request.Context(), claims.SessionID)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextSessionKey, session)
		c.Set(logger.SessionKey, session.ID)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.Scope().SetUser(sentry.User{ID: session.ID, Email: session.Email, Name: session.Name})
			hub.Scope().SetTag("role", string(session.Role))
		}
		c.Next()
	}
}
