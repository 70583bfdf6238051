package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anubhav0108/timetable-ace-api/internal/models"
	"github.com/anubhav0108/timetable-ace-api/internal/service"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
	"github.com/anubhav0108/timetable-ace-api/pkg/logger"
)

type stubAuthenticator struct {
	sessions map[string]*models.Session
}

func (s *stubAuthenticator) ValidateToken(token string) (*models.JWTClaims, error) {
	session, ok := s.sessions[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return &models.JWTClaims{SessionID: session.ID, Role: session.Role}, nil
}

func (s *stubAuthenticator) Me(ctx context.Context, sessionID string) (*models.Session, error) {
	for _, session := range s.sessions {
		if session.ID == sessionID && !session.ExpiresAt.IsZero() && session.ExpiresAt.After(time.Now()) {
			return session, nil
		}
	}
	return nil, appErrors.ErrSessionNotFound
}

func newProtectedRouter(auth Authenticator, roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWT(auth), RequireRoles(roles...), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(logger.SessionKey))
	})
	return r
}

func perform(r http.Handler, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAndRoles(t *testing.T) {
	auth := &stubAuthenticator{sessions: map[string]*models.Session{
		"admin-token":   {ID: "s-admin", Role: models.RoleAdmin, ExpiresAt: time.Now().Add(time.Hour)},
		"student-token": {ID: "s-student", Role: models.RoleStudent, ExpiresAt: time.Now().Add(time.Hour)},
		"stale-token":   {ID: "s-stale", Role: models.RoleAdmin},
	}}
	r := newProtectedRouter(auth, models.RoleAdmin, models.RoleFaculty)

	w := perform(r, "Bearer admin-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s-admin", w.Body.String())

	w = perform(r, "bearer admin-token")
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(r, "Bearer student-token")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = perform(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, "Token admin-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, "Bearer stale-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), appErrors.ErrSessionNotFound.Code))
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsMiddlewareRecordsRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/exports/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exports/job-1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	paths := map[string]bool{}
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" {
					paths[label.GetValue()] = true
				}
			}
		}
	}
	assert.Equal(t, map[string]bool{"/exports/:id": true, "unmatched": true}, paths)

	r = gin.New()
	r.Use(Metrics(nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
