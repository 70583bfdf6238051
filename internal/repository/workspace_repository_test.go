package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anubhav0108/timetable-ace-api/internal/models"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
)

func TestMemoryWorkspaceRepositoryLifecycle(t *testing.T) {
	repo := NewMemoryWorkspaceRepository()
	ctx := context.Background()

	ws := &models.Workspace{SessionID: "s1"}
	ws.Dataset.Faculty = []models.Faculty{{ID: "f1", Name: "Dr. Rao", Workload: 10}}
	require.NoError(t, repo.Create(ctx, ws, time.Hour))

	loaded, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, loaded.Dataset.Faculty, 1)

	// Mutating a loaded copy must not leak into the store.
	loaded.Dataset.Faculty[0].Workload = 99
	again, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, float64(10), again.Dataset.Faculty[0].Workload)

	updated, err := repo.Update(ctx, "s1", func(ws *models.Workspace) error {
		ws.Scenario.FacultyOnLeave = []string{"f1"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, updated.Scenario.FacultyOnLeave)

	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err = repo.Get(ctx, "s1")
	assert.True(t, errors.Is(err, appErrors.ErrSessionNotFound))
}

func TestMemoryWorkspaceRepositoryUpdateAbortKeepsState(t *testing.T) {
	repo := NewMemoryWorkspaceRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.Workspace{SessionID: "s1"}, 0))

	boom := errors.New("boom")
	_, err := repo.Update(ctx, "s1", func(ws *models.Workspace) error {
		ws.Scenario.UnavailableRooms = []string{"r1"}
		return boom
	})
	require.ErrorIs(t, err, boom)

	ws, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, ws.Scenario.UnavailableRooms)
}

func TestMemoryWorkspaceRepositoryExpiry(t *testing.T) {
	repo := NewMemoryWorkspaceRepository()
	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Workspace{SessionID: "s1"}, time.Minute))
	require.NoError(t, repo.Create(ctx, &models.Workspace{SessionID: "s2"}, time.Hour))

	now = now.Add(2 * time.Minute)
	_, err := repo.Get(ctx, "s1")
	assert.True(t, errors.Is(err, appErrors.ErrSessionNotFound))

	_, err = repo.Update(ctx, "missing", func(*models.Workspace) error { return nil })
	assert.True(t, errors.Is(err, appErrors.ErrSessionNotFound))

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, repo.Sweep())
}
