package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anubhav0108/timetable-ace-api/internal/dto"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
	"github.com/anubhav0108/timetable-ace-api/pkg/response"
)

type auditService interface {
	List(ctx context.Context, query dto.AuditLogQuery) ([]models.AuditLog, *models.Pagination, error)
}

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	service auditService
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(svc auditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// List godoc
// @Summary List audit entries
// @Description Newest first. Defaults to the caller's own session unless sessionId is given.
// @Tags Audit
// @Produce json
// @Param sessionId query string false "Session filter"
// @Param action query string false "Action filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var query dto.AuditLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	if query.SessionID == "" {
		query.SessionID = session.ID
	}
	logs, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}
