package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements is portable between PostgreSQL and SQLite.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS audit_logs (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	actor TEXT NOT NULL,
	role TEXT NOT NULL,
	action TEXT NOT NULL,
	details TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs (created_at)`,
	`CREATE TABLE IF NOT EXISTS generation_runs (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	programs TEXT NOT NULL,
	days TEXT NOT NULL,
	provider TEXT NOT NULL,
	success BOOLEAN NOT NULL,
	error TEXT NULL,
	entry_count INTEGER NOT NULL,
	conflict_count INTEGER NOT NULL,
	report TEXT NOT NULL,
	simulated BOOLEAN NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_generation_runs_session ON generation_runs (session_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS export_jobs (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	format TEXT NOT NULL,
	course TEXT NULL,
	status TEXT NOT NULL,
	object_key TEXT NULL,
	result_url TEXT NULL,
	error_message TEXT NULL,
	created_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NULL
)`,
}

// Migrate creates missing tables and indexes.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
