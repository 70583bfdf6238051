package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/anubhav0108/timetable-ace-api/internal/dto"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	"github.com/anubhav0108/timetable-ace-api/internal/repository"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
)

type workspaceStore interface {
	Create(ctx context.Context, ws *models.Workspace, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*models.Workspace, error)
	Update(ctx context.Context, sessionID string, fn repository.WorkspaceMutator) (*models.Workspace, error)
	Delete(ctx context.Context, sessionID string) error
}

// WorkspaceServiceConfig controls workspace lifetime and initial content.
type WorkspaceServiceConfig struct {
	TTL         time.Duration
	Seed        *models.Dataset
	Constraints models.Constraints
}

// WorkspaceService manages the per-session dataset, scenario and constraints.
type WorkspaceService struct {
	store     workspaceStore
	validator *validator.Validate
	logger    *zap.Logger
	cfg       WorkspaceServiceConfig
}

// NewWorkspaceService constructs the service.
func NewWorkspaceService(store workspaceStore, validate *validator.Validate, logger *zap.Logger, cfg WorkspaceServiceConfig) *WorkspaceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	return &WorkspaceService{store: store, validator: validate, logger: logger, cfg: cfg}
}

type seedFile struct {
	models.Dataset
	Constraints json.RawMessage `json:"constraints"`
}

// LoadSeed reads a JSON dataset file used to pre-populate new workspaces.
func LoadSeed(path string) (*models.Dataset, models.Constraints, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, models.Constraints{}, fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, models.Constraints{}, fmt.Errorf("decode seed file: %w", err)
	}
	constraints, err := models.NewConstraints(seed.Constraints)
	if err != nil {
		return nil, models.Constraints{}, fmt.Errorf("decode seed constraints: %w", err)
	}
	dataset := seed.Dataset
	dataset.Normalize()
	return &dataset, constraints, nil
}

// Open creates the workspace of a new session.
func (s *WorkspaceService) Open(ctx context.Context, session models.Session) (*models.Workspace, error) {
	ws := &models.Workspace{
		SessionID:   session.ID,
		Session:     session,
		Constraints: s.cfg.Constraints,
		UpdatedAt:   time.Now().UTC(),
	}
	if s.cfg.Seed != nil {
		ws.Dataset = cloneDataset(*s.cfg.Seed)
	}
	ws.Dataset.Normalize()
	ws.Scenario.Normalize()

	if err := s.store.Create(ctx, ws, s.cfg.TTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create workspace")
	}
	return ws, nil
}

// Close discards the workspace of a session.
func (s *WorkspaceService) Close(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete workspace")
	}
	return nil
}

// Load returns the raw workspace.
func (s *WorkspaceService) Load(ctx context.Context, sessionID string) (*models.Workspace, error) {
	ws, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, storeError(err, "failed to load workspace")
	}
	return ws, nil
}

// Mutate applies fn to the workspace atomically.
func (s *WorkspaceService) Mutate(ctx context.Context, sessionID string, fn repository.WorkspaceMutator) (*models.Workspace, error) {
	ws, err := s.store.Update(ctx, sessionID, fn)
	if err != nil {
		return nil, storeError(err, "failed to update workspace")
	}
	return ws, nil
}

// Get returns the dashboard view of a workspace.
func (s *WorkspaceService) Get(ctx context.Context, sessionID string) (*dto.WorkspaceResponse, error) {
	ws, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.WorkspaceResponse{
		Session:           ws.Session,
		Dataset:           ws.Dataset,
		Summary:           ws.Dataset.Summary(),
		AvailablePrograms: AvailablePrograms(ws.Dataset.Courses),
		Scenario:          scenarioView(ws),
		Constraints:       constraintsView(ws.Constraints),
		HasTimetable:      ws.Result != nil,
		EditActive:        ws.Edit != nil,
		UpdatedAt:         ws.UpdatedAt,
	}, nil
}

// ReplaceDataset swaps the whole dataset.
func (s *WorkspaceService) ReplaceDataset(ctx context.Context, sessionID string, dataset models.Dataset) (*models.DatasetSummary, error) {
	if err := s.validator.Struct(dataset); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dataset")
	}
	dataset.Normalize()
	ws, err := s.Mutate(ctx, sessionID, func(ws *models.Workspace) error {
		ws.Dataset = dataset
		return nil
	})
	if err != nil {
		return nil, err
	}
	summary := ws.Dataset.Summary()
	s.logger.Info("dataset replaced", zap.String("session_id", sessionID), zap.Any("summary", summary))
	return &summary, nil
}

// ImportCSV replaces one collection of the dataset from CSV rows.
func (s *WorkspaceService) ImportCSV(ctx context.Context, sessionID string, kind models.DatasetKind, r io.Reader) (*dto.DatasetImportResponse, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown dataset collection")
	}

	var (
		apply    func(ws *models.Workspace)
		imported int
	)
	switch kind {
	case models.DatasetStudents:
		rows, err := decodeCSV[models.Student](r, s.validator)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			if rows[i].ElectiveChoices == nil {
				rows[i].ElectiveChoices = models.StringList{}
			}
		}
		imported = len(rows)
		apply = func(ws *models.Workspace) { ws.Dataset.Students = rows }
	case models.DatasetFaculty:
		rows, err := decodeCSV[models.Faculty](r, s.validator)
		if err != nil {
			return nil, err
		}
		imported = len(rows)
		apply = func(ws *models.Workspace) { ws.Dataset.Faculty = rows }
	case models.DatasetCourses:
		rows, err := decodeCSV[models.Course](r, s.validator)
		if err != nil {
			return nil, err
		}
		imported = len(rows)
		apply = func(ws *models.Workspace) { ws.Dataset.Courses = rows }
	case models.DatasetRooms:
		rows, err := decodeCSV[models.Room](r, s.validator)
		if err != nil {
			return nil, err
		}
		imported = len(rows)
		apply = func(ws *models.Workspace) { ws.Dataset.Rooms = rows }
	}

	ws, err := s.Mutate(ctx, sessionID, func(ws *models.Workspace) error {
		apply(ws)
		ws.Dataset.Normalize()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.DatasetImportResponse{Kind: kind, Imported: imported, Summary: ws.Dataset.Summary()}, nil
}

func decodeCSV[T any](r io.Reader, validate *validator.Validate) ([]T, error) {
	var rows []T
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []T{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid csv payload")
	}
	if err := validate.Var(rows, "dive"); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid csv rows")
	}
	return rows, nil
}

// GetScenario returns the current scenario.
func (s *WorkspaceService) GetScenario(ctx context.Context, sessionID string) (*dto.ScenarioResponse, error) {
	ws, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view := scenarioView(ws)
	return &view, nil
}

// UpdateScenario replaces the scenario.
func (s *WorkspaceService) UpdateScenario(ctx context.Context, sessionID string, scenario models.Scenario) (*dto.ScenarioResponse, error) {
	if err := s.validator.Struct(scenario); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scenario")
	}
	scenario.Normalize()
	ws, err := s.Mutate(ctx, sessionID, func(ws *models.Workspace) error {
		ws.Scenario = scenario
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := scenarioView(ws)
	return &view, nil
}

// ResetScenario clears every scenario field.
func (s *WorkspaceService) ResetScenario(ctx context.Context, sessionID string) (*dto.ScenarioResponse, error) {
	return s.UpdateScenario(ctx, sessionID, models.Scenario{})
}

// GetConstraints returns the current constraints.
func (s *WorkspaceService) GetConstraints(ctx context.Context, sessionID string) (*dto.ConstraintsResponse, error) {
	ws, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view := constraintsView(ws.Constraints)
	return &view, nil
}

// UpdateConstraints replaces the constraints document.
func (s *WorkspaceService) UpdateConstraints(ctx context.Context, sessionID string, raw []byte) (*dto.ConstraintsResponse, error) {
	constraints, err := models.NewConstraints(raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "constraints must be a JSON object")
	}
	ws, err := s.Mutate(ctx, sessionID, func(ws *models.Workspace) error {
		ws.Constraints = constraints
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := constraintsView(ws.Constraints)
	return &view, nil
}

func scenarioView(ws *models.Workspace) dto.ScenarioResponse {
	return dto.ScenarioResponse{
		Scenario:    ws.Scenario,
		Active:      ws.Scenario.Active(),
		Description: DescribeScenario(ws.Scenario, ws.Dataset.Courses, ws.Dataset.Faculty),
	}
}

func constraintsView(c models.Constraints) dto.ConstraintsResponse {
	description := DescribeProgramConstraints(c)
	return dto.ConstraintsResponse{
		Constraints:   c,
		ProgramActive: description != "",
		Description:   description,
	}
}

// storeError keeps typed errors and wraps anything else as internal.
func storeError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func cloneDataset(d models.Dataset) models.Dataset {
	out := models.Dataset{
		Students: make([]models.Student, len(d.Students)),
		Faculty:  make([]models.Faculty, len(d.Faculty)),
		Courses:  append([]models.Course(nil), d.Courses...),
		Rooms:    append([]models.Room(nil), d.Rooms...),
	}
	for i, st := range d.Students {
		st.ElectiveChoices = cloneStringList(st.ElectiveChoices)
		out.Students[i] = st
	}
	for i, f := range d.Faculty {
		f.Expertise = cloneStringList(f.Expertise)
		out.Faculty[i] = f
	}
	return out
}
