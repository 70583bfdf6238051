package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/anubhav0108/timetable-ace-api/internal/dto"
	"github.com/anubhav0108/timetable-ace-api/internal/generator"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	"github.com/anubhav0108/timetable-ace-api/internal/repository"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
)

const (
	toastSimulated = "Generated with temporary simulation settings."
	toastGenerated = "The system has created a new timetable schedule."
)

type workspaceAccessor interface {
	Load(ctx context.Context, sessionID string) (*models.Workspace, error)
	Mutate(ctx context.Context, sessionID string, fn repository.WorkspaceMutator) (*models.Workspace, error)
}

type generationRunStore interface {
	Create(ctx context.Context, run *models.GenerationRun) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.GenerationRun, error)
}

type errorReporter interface {
	CaptureError(ctx context.Context, err error, tags map[string]string)
}

// TimetableServiceConfig tunes generation.
type TimetableServiceConfig struct {
	// Timeout bounds a single generator call; zero disables it.
	Timeout time.Duration
	// MaxConcurrent caps generations across all sessions.
	MaxConcurrent int
	ProviderName  string
}

// TimetableService runs the simulate, build, generate and classify pipeline.
type TimetableService struct {
	workspaces workspaceAccessor
	generator  generator.TimetableGenerator
	runs       generationRunStore
	audit      auditRecorder
	simulator  *ScenarioSimulator
	metrics    *MetricsService
	reporter   errorReporter
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        TimetableServiceConfig

	capacity *semaphore.Weighted
	mu       sync.Mutex
	inFlight map[string]*semaphore.Weighted
}

// NewTimetableService constructs the service. gen may be nil when no provider is configured.
func NewTimetableService(
	workspaces workspaceAccessor,
	gen generator.TimetableGenerator,
	runs generationRunStore,
	audit auditRecorder,
	metrics *MetricsService,
	reporter errorReporter,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	return &TimetableService{
		workspaces: workspaces,
		generator:  gen,
		runs:       runs,
		audit:      audit,
		simulator:  NewScenarioSimulator(logger),
		metrics:    metrics,
		reporter:   reporter,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		capacity:   semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		inFlight:   make(map[string]*semaphore.Weighted),
	}
}

// Generate produces a new timetable for the session. Generator failures are reported
// in the response body, not as errors.
func (s *TimetableService) Generate(ctx context.Context, session models.Session, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}
	release, ok := s.acquire(session.ID)
	if !ok {
		return nil, appErrors.ErrGenerationInProgress
	}
	defer release()

	if err := s.capacity.Acquire(ctx, 1); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGeneratorTimeout.Code, appErrors.ErrGeneratorTimeout.Status, "gave up waiting for a free generator slot")
	}
	defer s.capacity.Release(1)

	ws, err := s.workspaces.Load(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	simulated := ws.Scenario.Active()
	sim := s.simulator.Simulate(ws.Dataset, ws.Scenario)
	request, err := BuildGenerationRequest(GenerationInput{
		Simulation:  sim,
		Courses:     ws.Dataset.Courses,
		Constraints: ws.Constraints,
		Programs:    req.Programs,
		Days:        req.Days,
		Previous:    ws.Result,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build generation request")
	}

	started := time.Now()
	result, genErr := s.callGenerator(ctx, request)
	elapsed := time.Since(started)

	if genErr != nil {
		if ctx.Err() != nil {
			return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "generation cancelled")
		}
		s.logger.Error("timetable generator failed", zap.String("session_id", session.ID), zap.Error(genErr))
		if s.reporter != nil && !errors.Is(genErr, appErrors.ErrGeneratorUnavailable) {
			s.reporter.CaptureError(ctx, genErr, map[string]string{"component": "generator", "provider": s.cfg.ProviderName})
		}
	}

	outcome := ClassifyGeneration(request, result, genErr)
	s.metrics.RecordGeneration(outcome.Success, simulated, elapsed)
	runID := s.recordRun(ctx, session.ID, request, outcome, simulated, elapsed)

	resp := &dto.GenerateTimetableResponse{
		Success:   outcome.Success,
		Data:      outcome.Result,
		Error:     outcome.Error,
		Simulated: simulated,
		RunID:     runID,
	}
	if !outcome.Success {
		s.logger.Info("timetable generation rejected", zap.String("session_id", session.ID), zap.String("reason", outcome.Error))
		return resp, nil
	}

	if _, err := s.workspaces.Mutate(ctx, session.ID, func(ws *models.Workspace) error {
		ws.Result = outcome.Result.Clone()
		ws.Edit = nil
		return nil
	}); err != nil {
		return nil, err
	}

	if _, err := s.audit.Record(ctx, session, models.AuditActionTimetableGenerate, describeGeneration(request, outcome.Result, simulated)); err != nil {
		s.logger.Warn("failed to record generation audit log", zap.Error(err))
	}

	resp.Message = toastGenerated
	if simulated {
		resp.Message = toastSimulated
	}
	return resp, nil
}

// callGenerator reports a missing generator and an expired GENERATOR_TIMEOUT as
// plain failures so they are classified like any other generator error.
func (s *TimetableService) callGenerator(ctx context.Context, req generator.GenerationRequest) (*models.TimetableResult, error) {
	if s.generator == nil {
		return nil, appErrors.ErrGeneratorUnavailable
	}
	done := s.metrics.GenerationStarted()
	defer done()

	callCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	result, err := s.generator.Generate(callCtx, req)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return nil, appErrors.ErrGeneratorTimeout
	}
	return result, err
}

// acquire claims the single generation slot of a session.
func (s *TimetableService) acquire(sessionID string) (func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sem, ok := s.inFlight[sessionID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		s.inFlight[sessionID] = sem
	}
	if !sem.TryAcquire(1) {
		return nil, false
	}
	return func() {
		s.mu.Lock()
		sem.Release(1)
		delete(s.inFlight, sessionID)
		s.mu.Unlock()
	}, true
}

func (s *TimetableService) recordRun(ctx context.Context, sessionID string, req generator.GenerationRequest, outcome GenerationOutcome, simulated bool, elapsed time.Duration) string {
	run := &models.GenerationRun{
		SessionID:  sessionID,
		Programs:   models.StringArray(req.Programs),
		Days:       models.StringArray(req.Days),
		Provider:   s.cfg.ProviderName,
		Success:    outcome.Success,
		Simulated:  simulated,
		DurationMS: elapsed.Milliseconds(),
	}
	if outcome.Result != nil {
		run.EntryCount = len(outcome.Result.Timetable)
		run.ConflictCount = len(outcome.Result.Conflicts)
		run.Report = outcome.Result.Report
	}
	if outcome.Error != "" {
		msg := outcome.Error
		run.Error = &msg
	}
	if err := s.runs.Create(ctx, run); err != nil {
		s.logger.Warn("failed to persist generation run", zap.Error(err))
		return ""
	}
	return run.ID
}

// Get returns the stored result and its grid layout.
func (s *TimetableService) Get(ctx context.Context, sessionID string) (*dto.TimetableResponse, error) {
	ws, err := s.workspaces.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var entries []models.TimetableEntry
	if ws.Result != nil {
		entries = ws.Result.Timetable
	}
	return &dto.TimetableResponse{
		Result:    ws.Result,
		Days:      GridDays(entries),
		TimeSlots: models.TimeSlots,
	}, nil
}

// ListRuns returns recent generation attempts of a session.
func (s *TimetableService) ListRuns(ctx context.Context, sessionID string, query dto.GenerationRunQuery) ([]models.GenerationRun, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid run query")
	}
	runs, err := s.runs.ListBySession(ctx, sessionID, query.Limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list generation runs")
	}
	return runs, nil
}

func describeGeneration(req generator.GenerationRequest, result *models.TimetableResult, simulated bool) string {
	programs := "all programs"
	if len(req.Programs) > 0 {
		programs = strings.Join(req.Programs, ", ")
	}
	details := fmt.Sprintf("Generated %d entries with %d conflict(s) for %s on %s.",
		len(result.Timetable), len(result.Conflicts), programs, strings.Join(req.Days, ", "))
	if simulated {
		details += " Simulation settings were applied."
	}
	return details
}
