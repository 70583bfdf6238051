package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anubhav0108/timetable-ace-api/internal/dto"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	"github.com/anubhav0108/timetable-ace-api/internal/repository"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
	"github.com/anubhav0108/timetable-ace-api/pkg/jobs"
	"github.com/anubhav0108/timetable-ace-api/pkg/storage"
)

type memoryExportJobStore struct {
	mu   sync.Mutex
	jobs map[string]*models.ExportJob
	seq  int
}

func newMemoryExportJobStore() *memoryExportJobStore {
	return &memoryExportJobStore{jobs: map[string]*models.ExportJob{}}
}

func (m *memoryExportJobStore) Create(ctx context.Context, job *models.ExportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	job.ID = "job-" + string(rune('0'+m.seq))
	job.Status = models.ExportStatusQueued
	job.CreatedAt = time.Now()
	copied := *job
	m.jobs[job.ID] = &copied
	return nil
}

func (m *memoryExportJobStore) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	copied := *job
	return &copied, nil
}

func (m *memoryExportJobStore) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return errors.New("missing job")
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.ObjectKey != nil {
		job.ObjectKey = params.ObjectKey
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (m *memoryExportJobStore) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ExportJob{}
	for _, job := range m.jobs {
		if job.Status == models.ExportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (m *memoryExportJobStore) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ExportJob{}
	for _, job := range m.jobs {
		if (job.Status == models.ExportStatusFinished || job.Status == models.ExportStatusFailed) && job.CreatedAt.Before(cutoff) {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (m *memoryExportJobStore) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, job := range m.jobs {
		if (job.Status == models.ExportStatusFinished || job.Status == models.ExportStatusFailed) && job.CreatedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed, nil
}

type captureQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *captureQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type exportJobFixture struct {
	service *ExportJobService
	worker  *ExportWorker
	repo    *memoryExportJobStore
	queue   *captureQueue
	store   *storage.LocalStorage
}

func newExportJobFixture(t *testing.T) *exportJobFixture {
	t.Helper()
	workspaces := newTestWorkspaces(t, func(ws *models.Workspace) {
		ws.Result = sampleResult()
	})
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	repo := newMemoryExportJobStore()
	queue := &captureQueue{}
	renderer := NewExportService(workspaces, nil, nil, nil, nil, ExportConfig{})

	return &exportJobFixture{
		service: NewExportJobService(repo, workspaces, queue, store, signer, nil, nil, ExportJobServiceConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}),
		worker:  NewExportWorker(repo, workspaces, renderer, store, signer, nil, "/api/v1", nil),
		repo:    repo,
		queue:   queue,
		store:   store,
	}
}

func TestExportJobLifecycle(t *testing.T) {
	f := newExportJobFixture(t)
	ctx := context.Background()
	id := testSession().ID

	created, err := f.service.CreateJob(ctx, id, dto.ExportJobRequest{Format: models.ExportFormatXLSX})
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, created.Status)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, created.ID, f.queue.jobs[0].ID)

	require.NoError(t, f.worker.Handle(ctx, f.queue.jobs[0]))

	status, err := f.service.GetStatus(ctx, id, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, status.Status)
	require.NotNil(t, status.ResultURL)
	assert.True(t, strings.HasPrefix(*status.ResultURL, "/api/v1/exports/download/"))
	assert.Nil(t, status.Error)

	token := strings.TrimPrefix(*status.ResultURL, "/api/v1/exports/download/")
	download, err := f.service.ResolveDownload(ctx, token)
	require.NoError(t, err)
	defer download.Body.Close()
	assert.Equal(t, "timetable.xlsx", download.Filename)
	body, err := io.ReadAll(download.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "PK"))

	_, err = f.service.GetStatus(ctx, "someone-else", created.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestExportJobMaterialsCell(t *testing.T) {
	f := newExportJobFixture(t)
	ctx := context.Background()
	id := testSession().ID

	created, err := f.service.CreateJob(ctx, id, dto.ExportJobRequest{Format: models.ExportFormatSlides, Day: "Tuesday", Time: "02:00 - 03:00"})
	require.NoError(t, err)
	require.NoError(t, f.worker.Handle(ctx, f.queue.jobs[0]))

	record, err := f.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, record.ObjectKey)
	assert.True(t, strings.HasSuffix(*record.ObjectKey, "pedagogy_slides.pdf"))

	_, err = f.service.CreateJob(ctx, id, dto.ExportJobRequest{Format: models.ExportFormatNotes})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.service.CreateJob(ctx, id, dto.ExportJobRequest{Format: models.ExportFormatNotes, Day: "Friday", Time: "09:00 - 10:00"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestExportJobEnqueueFailureMarksFailed(t *testing.T) {
	f := newExportJobFixture(t)
	f.queue.err = jobs.ErrQueueClosed

	_, err := f.service.CreateJob(context.Background(), testSession().ID, dto.ExportJobRequest{Format: models.ExportFormatCSV})
	require.Error(t, err)
	require.Len(t, f.repo.jobs, 1)
	for _, job := range f.repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestExportWorkerRetryThenGiveUp(t *testing.T) {
	f := newExportJobFixture(t)
	ctx := context.Background()

	job := &models.ExportJob{SessionID: "expired-session", Format: models.ExportFormatCSV}
	require.NoError(t, f.repo.Create(ctx, job))
	queued := jobs.Job{ID: job.ID, Kind: string(job.Format)}

	err := f.worker.Handle(ctx, queued)
	require.Error(t, err)
	record, _ := f.repo.GetByID(ctx, job.ID)
	assert.Equal(t, models.ExportStatusQueued, record.Status)
	require.NotNil(t, record.ErrorMessage)

	f.worker.GiveUp(ctx, queued, err)
	record, _ = f.repo.GetByID(ctx, job.ID)
	assert.Equal(t, models.ExportStatusFailed, record.Status)
	assert.NotNil(t, record.FinishedAt)

	require.NoError(t, f.worker.Handle(ctx, queued))
}

func TestExportJobResolveDownloadRejectsBadTokens(t *testing.T) {
	f := newExportJobFixture(t)
	ctx := context.Background()

	_, err := f.service.ResolveDownload(ctx, "not-a-token")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	created, err := f.service.CreateJob(ctx, testSession().ID, dto.ExportJobRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	token, _, err := signer.Generate(created.ID, "session-1/other.csv")
	require.NoError(t, err)
	_, err = f.service.ResolveDownload(ctx, token)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestExportJobRecoverAndCleanup(t *testing.T) {
	f := newExportJobFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateJob(ctx, testSession().ID, dto.ExportJobRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)
	f.queue.jobs = nil

	assert.Equal(t, 1, f.service.RecoverPendingJobs(ctx))
	require.Len(t, f.queue.jobs, 1)
	require.NoError(t, f.worker.Handle(ctx, f.queue.jobs[0]))

	record, err := f.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	key := *record.ObjectKey

	f.service.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	f.service.CleanupExpired(ctx)

	_, err = f.repo.GetByID(ctx, created.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	_, err = f.store.Open(ctx, key)
	assert.True(t, errors.Is(err, storage.ErrObjectNotFound))
}
