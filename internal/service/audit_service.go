package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/anubhav0108/timetable-ace-api/internal/dto"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
)

type auditLogStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, int, error)
}

type auditRecorder interface {
	Record(ctx context.Context, session models.Session, action, details string) (*models.AuditLog, error)
}

// AuditService writes and lists the audit trail.
type AuditService struct {
	repo      auditLogStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(repo auditLogStore, validate *validator.Validate, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuditService{repo: repo, validator: validate, logger: logger}
}

// Record appends an entry attributed to the session's user.
func (s *AuditService) Record(ctx context.Context, session models.Session, action, details string) (*models.AuditLog, error) {
	log := &models.AuditLog{
		SessionID: session.ID,
		Actor:     session.Name,
		Role:      session.Role,
		Action:    action,
		Details:   details,
	}
	if err := s.repo.Create(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record audit log")
	}
	s.logger.Debug("audit recorded", zap.String("action", action), zap.String("session_id", session.ID))
	return log, nil
}

// List returns a page of audit records.
func (s *AuditService) List(ctx context.Context, query dto.AuditLogQuery) ([]models.AuditLog, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid audit log query")
	}
	filter := models.AuditLogFilter{
		SessionID: query.SessionID,
		Action:    query.Action,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}
