package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/anubhav0108/timetable-ace-api/internal/middleware"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
)

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func withSession(c *gin.Context, role models.UserRole) *models.Session {
	session := &models.Session{ID: "session-1", Name: "Meera", Email: "meera@example.edu", Role: role}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{SessionID: session.ID, Role: role})
	c.Set(middleware.ContextSessionKey, session)
	return session
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}
