package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/anubhav0108/timetable-ace-api/internal/models"
)

// GenerationRunRepository stores the history of generation attempts.
type GenerationRunRepository struct {
	db *sqlx.DB
}

// NewGenerationRunRepository constructs the repository.
func NewGenerationRunRepository(db *sqlx.DB) *GenerationRunRepository {
	return &GenerationRunRepository{db: db}
}

// Create inserts a run.
func (r *GenerationRunRepository) Create(ctx context.Context, run *models.GenerationRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO generation_runs
	(id, session_id, programs, days, provider, success, error, entry_count, conflict_count, report, simulated, duration_ms, created_at)
	VALUES (:id, :session_id, :programs, :days, :provider, :success, :error, :entry_count, :conflict_count, :report, :simulated, :duration_ms, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("create generation run: %w", err)
	}
	return nil
}

// ListBySession returns the most recent runs of a session.
func (r *GenerationRunRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.GenerationRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := r.db.Rebind(fmt.Sprintf(`SELECT id, session_id, programs, days, provider, success, error, entry_count,
	conflict_count, report, simulated, duration_ms, created_at
FROM generation_runs WHERE session_id = ? ORDER BY created_at DESC LIMIT %d`, limit))

	runs := make([]models.GenerationRun, 0)
	if err := r.db.SelectContext(ctx, &runs, query, sessionID); err != nil {
		return nil, fmt.Errorf("list generation runs: %w", err)
	}
	return runs, nil
}
