package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/anubhav0108/timetable-ace-api/internal/models"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
)

// ExportJobRepository persists asynchronous export job metadata.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository constructs the repository.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

// Create inserts a queued job.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO export_jobs (id, session_id, format, course, status, object_key, result_url, error_message, created_at, finished_at)
VALUES (:id, :session_id, :format, :course, :status, :object_key, :result_url, :error_message, :created_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// GetByID returns a job or appErrors.ErrNotFound.
func (r *ExportJobRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	query := r.db.Rebind(`SELECT id, session_id, format, course, status, object_key, result_url, error_message, created_at, finished_at
FROM export_jobs WHERE id = ?`)
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, fmt.Errorf("get export job: %w", err)
	}
	return &job, nil
}

// UpdateExportJobParams holds the mutable fields; nil pointers are left unchanged.
type UpdateExportJobParams struct {
	Status       *models.ExportStatus
	ObjectKey    *string
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update applies the non-nil fields of params.
func (r *ExportJobRepository) Update(ctx context.Context, id string, params UpdateExportJobParams) error {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	if params.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *params.Status)
	}
	if params.ObjectKey != nil {
		sets = append(sets, "object_key = ?")
		args = append(args, *params.ObjectKey)
	}
	if params.ResultURL != nil {
		sets = append(sets, "result_url = ?")
		args = append(args, *params.ResultURL)
	}
	if params.ErrorMessage != nil {
		sets = append(sets, "error_message = ?")
		args = append(args, *params.ErrorMessage)
	}
	if params.FinishedAt != nil {
		sets = append(sets, "finished_at = ?")
		args = append(args, *params.FinishedAt)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	query := r.db.Rebind("UPDATE export_jobs SET " + strings.Join(sets, ", ") + " WHERE id = ?")
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update export job: %w", err)
	}
	return nil
}

// DeleteFinishedBefore removes finished or failed jobs older than cutoff.
func (r *ExportJobRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := r.db.Rebind(`DELETE FROM export_jobs WHERE status IN (?, ?) AND created_at < ?`)
	res, err := r.db.ExecContext(ctx, query, models.ExportStatusFinished, models.ExportStatusFailed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old export jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted export jobs: %w", err)
	}
	return n, nil
}

const exportJobSelectColumns = `id, session_id, format, course, status, object_key, result_url, error_message, created_at, finished_at`

// ListQueued returns the oldest queued jobs first.
func (r *ExportJobRepository) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	return r.listByStatus(ctx, `status = ?`, []interface{}{models.ExportStatusQueued}, "created_at ASC", limit)
}

// ListFinishedBefore returns finished or failed jobs created before cutoff.
func (r *ExportJobRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return r.listByStatus(ctx, `status IN (?, ?) AND created_at < ?`,
		[]interface{}{models.ExportStatusFinished, models.ExportStatusFailed, cutoff}, "created_at ASC", limit)
}

func (r *ExportJobRepository) listByStatus(ctx context.Context, where string, args []interface{}, order string, limit int) ([]models.ExportJob, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM export_jobs WHERE %s ORDER BY %s LIMIT %d", exportJobSelectColumns, where, order, limit))
	var jobs []models.ExportJob
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("list export jobs: %w", err)
	}
	return jobs, nil
}
