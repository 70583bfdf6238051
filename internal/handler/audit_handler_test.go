package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anubhav0108/timetable-ace-api/internal/dto"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
)

type auditServiceStub struct {
	lastQuery dto.AuditLogQuery
}

func (s *auditServiceStub) List(ctx context.Context, query dto.AuditLogQuery) ([]models.AuditLog, *models.Pagination, error) {
	s.lastQuery = query
	return []models.AuditLog{{ID: "log-1", Action: models.AuditActionLogin}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func TestAuditHandlerDefaultsToOwnSession(t *testing.T) {
	stub := &auditServiceStub{}
	h := NewAuditHandler(stub)

	c, w := newGinContext(http.MethodGet, "/audit-logs?action=LOGIN", nil)
	withSession(c, models.RoleAdmin)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "session-1", stub.lastQuery.SessionID)
	assert.Equal(t, models.AuditActionLogin, stub.lastQuery.Action)
	envelope := decodeEnvelope(t, w)
	assert.Contains(t, string(envelope["pagination"]), `"page":1`)

	c, _ = newGinContext(http.MethodGet, "/audit-logs?sessionId=other", nil)
	withSession(c, models.RoleAdmin)
	h.List(c)
	assert.Equal(t, "other", stub.lastQuery.SessionID)
}
