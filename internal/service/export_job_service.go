package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/anubhav0108/timetable-ace-api/internal/dto"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	"github.com/anubhav0108/timetable-ace-api/internal/repository"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
	"github.com/anubhav0108/timetable-ace-api/pkg/export"
	"github.com/anubhav0108/timetable-ace-api/pkg/jobs"
	"github.com/anubhav0108/timetable-ace-api/pkg/storage"
)

const (
	recoverBatchSize = 50
	cleanupBatchSize = 100
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type workspaceLoader interface {
	Load(ctx context.Context, sessionID string) (*models.Workspace, error)
}

type exportRenderer interface {
	Render(format models.ExportFormat, ws *models.Workspace, day, slot string) (*dto.ExportFile, error)
}

type downloadSigner interface {
	Generate(exportID, key string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (*storage.SignedToken, error)
}

// ExportJobServiceConfig governs download links, retention and cleanup.
type ExportJobServiceConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload is a resolved download ready to stream. The caller closes Body.
type ExportDownload struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ExportJobService manages asynchronous export jobs.
type ExportJobService struct {
	repo       exportJobStore
	workspaces workspaceLoader
	queue      jobDispatcher
	store      storage.ObjectStore
	signer     downloadSigner
	validate   *validator.Validate
	logger     *zap.Logger
	cfg        ExportJobServiceConfig
	now        func() time.Time
}

// NewExportJobService constructs the job service.
func NewExportJobService(
	repo exportJobStore,
	workspaces workspaceLoader,
	queue jobDispatcher,
	store storage.ObjectStore,
	signer downloadSigner,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ExportJobServiceConfig,
) *ExportJobService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportJobService{
		repo:       repo,
		workspaces: workspaces,
		queue:      queue,
		store:      store,
		signer:     signer,
		validate:   validate,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// CreateJob validates the request against the session timetable, persists a job and enqueues it.
func (s *ExportJobService) CreateJob(ctx context.Context, sessionID string, req dto.ExportJobRequest) (*dto.ExportJobResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}
	ws, err := s.workspaces.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if ws.Result == nil {
		return nil, appErrors.ErrNoTimetable
	}

	job := &models.ExportJob{SessionID: sessionID, Format: req.Format}
	if req.Format == models.ExportFormatNotes || req.Format == models.ExportFormatSlides {
		if _, ok := findEntry(ws.Result.Timetable, req.Day, req.Time); !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable cell not found")
		}
		cell := models.SuggestionKey(req.Day, req.Time)
		job.Course = &cell
	}

	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: string(job.Format)}); err != nil {
		failed := models.ExportStatusFailed
		msg := "failed to enqueue job"
		now := s.now().UTC()
		_ = s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &failed,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return jobResponse(job), nil
}

// GetStatus returns job progress. Jobs of other sessions are reported as missing.
func (s *ExportJobService) GetStatus(ctx context.Context, sessionID, id string) (*dto.ExportJobResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.SessionID != sessionID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return jobResponse(job), nil
}

// ResolveDownload validates a signed token and opens the stored export.
func (s *ExportJobService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	signed, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	job, err := s.repo.GetByID(ctx, signed.ExportID)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	if job.ObjectKey == nil || *job.ObjectKey != signed.Key {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	body, err := s.store.Open(ctx, signed.Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{
		Body:        body,
		Filename:    path.Base(signed.Key),
		ContentType: contentTypeFor(job.Format),
		ExpiresAt:   signed.ExpiresAt,
	}, nil
}

// RecoverPendingJobs re-enqueues jobs left queued by a previous process.
func (s *ExportJobService) RecoverPendingJobs(ctx context.Context) int {
	pending, err := s.repo.ListQueued(ctx, recoverBatchSize)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued export jobs", "error", err)
		return 0
	}
	recovered := 0
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: string(job.Format)}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending export job", "job_id", job.ID, "error", err)
			continue
		}
		recovered++
	}
	return recovered
}

// StartCleanup purges expired exports every CleanupInterval until ctx is done.
func (s *ExportJobService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(ctx)
			}
		}
	}()
}

// CleanupExpired deletes stored files and job rows older than ResultTTL.
func (s *ExportJobService) CleanupExpired(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.ResultTTL)
	expired, err := s.repo.ListFinishedBefore(ctx, cutoff, cleanupBatchSize)
	if err != nil {
		s.logger.Sugar().Warnw("export cleanup list failed", "error", err)
		return
	}
	for _, job := range expired {
		if job.ObjectKey == nil || *job.ObjectKey == "" {
			continue
		}
		if err := s.store.Delete(ctx, *job.ObjectKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Sugar().Warnw("export cleanup delete failed", "job_id", job.ID, "error", err)
		}
	}
	if removed, err := s.repo.DeleteFinishedBefore(ctx, cutoff); err != nil {
		s.logger.Sugar().Warnw("export job purge failed", "error", err)
	} else if removed > 0 {
		s.logger.Sugar().Infow("purged expired export jobs", "count", removed)
	}
	if _, err := s.store.CleanupOlderThan(ctx, s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("export storage cleanup failed", "error", err)
	}
}

func jobResponse(job *models.ExportJob) *dto.ExportJobResponse {
	resp := &dto.ExportJobResponse{
		ID:         job.ID,
		Format:     job.Format,
		Status:     job.Status,
		ResultURL:  job.ResultURL,
		CreatedAt:  job.CreatedAt,
		FinishedAt: job.FinishedAt,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp
}

func contentTypeFor(format models.ExportFormat) string {
	switch format {
	case models.ExportFormatCSV:
		return export.ContentTypeCSV
	case models.ExportFormatXLSX:
		return export.ContentTypeXLSX
	case models.ExportFormatICS:
		return export.ContentTypeICS
	default:
		return export.ContentTypePDF
	}
}

// splitCellKey reverses models.SuggestionKey. Day names never contain '-'.
func splitCellKey(key string) (day, slot string) {
	day, slot, _ = strings.Cut(key, "-")
	return day, slot
}

// ExportWorker renders queued export jobs and stores the result.
type ExportWorker struct {
	repo       exportJobStore
	workspaces workspaceLoader
	renderer   exportRenderer
	store      storage.ObjectStore
	signer     downloadSigner
	metrics    *MetricsService
	logger     *zap.Logger
	apiPrefix  string
	now        func() time.Time
}

// NewExportWorker constructs a worker.
func NewExportWorker(repo exportJobStore, workspaces workspaceLoader, renderer exportRenderer, store storage.ObjectStore, signer downloadSigner, metrics *MetricsService, apiPrefix string, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	apiPrefix = strings.TrimRight(apiPrefix, "/")
	if apiPrefix == "" {
		apiPrefix = "/api/v1"
	}
	return &ExportWorker{
		repo:       repo,
		workspaces: workspaces,
		renderer:   renderer,
		store:      store,
		signer:     signer,
		metrics:    metrics,
		logger:     logger,
		apiPrefix:  apiPrefix,
		now:        time.Now,
	}
}

// Handle processes one queue job. Returned errors make the queue retry.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if record.Status == models.ExportStatusFinished || record.Status == models.ExportStatusFailed {
		return nil
	}
	processing := models.ExportStatusProcessing
	if err := w.repo.Update(ctx, record.ID, repository.UpdateExportJobParams{Status: &processing}); err != nil {
		return err
	}

	url, key, err := w.produce(ctx, record)
	if err != nil {
		queued := models.ExportStatusQueued
		msg := err.Error()
		if updateErr := w.repo.Update(ctx, record.ID, repository.UpdateExportJobParams{
			Status:       &queued,
			ErrorMessage: &msg,
		}); updateErr != nil {
			w.logger.Sugar().Warnw("failed to requeue export job", "job_id", record.ID, "error", updateErr)
		}
		return err
	}

	finished := models.ExportStatusFinished
	now := w.now().UTC()
	clear := ""
	if err := w.repo.Update(ctx, record.ID, repository.UpdateExportJobParams{
		Status:       &finished,
		ObjectKey:    &key,
		ResultURL:    &url,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark export job finished", "job_id", record.ID, "error", err)
		return err
	}
	w.metrics.RecordExport(string(record.Format), "async", nil)
	return nil
}

// GiveUp marks a job failed once the queue stops retrying it.
func (w *ExportWorker) GiveUp(ctx context.Context, job jobs.Job, cause error) {
	failed := models.ExportStatusFailed
	msg := cause.Error()
	now := w.now().UTC()
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &failed,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark export job failed", "job_id", job.ID, "error", err)
	}
	w.metrics.RecordExport(job.Kind, "async", cause)
}

func (w *ExportWorker) produce(ctx context.Context, record *models.ExportJob) (string, string, error) {
	ws, err := w.workspaces.Load(ctx, record.SessionID)
	if err != nil {
		return "", "", fmt.Errorf("load workspace: %w", err)
	}
	var day, slot string
	if record.Course != nil {
		day, slot = splitCellKey(*record.Course)
	}
	file, err := w.renderer.Render(record.Format, ws, day, slot)
	if err != nil {
		return "", "", err
	}

	key := fmt.Sprintf("%s/%s/%s", record.SessionID, record.ID, file.Filename)
	key, err = w.store.Save(ctx, key, file.Body, file.ContentType)
	if err != nil {
		return "", "", fmt.Errorf("store export: %w", err)
	}
	token, _, err := w.signer.Generate(record.ID, key)
	if err != nil {
		return "", "", fmt.Errorf("sign export: %w", err)
	}
	return fmt.Sprintf("%s/exports/download/%s", w.apiPrefix, token), key, nil
}
