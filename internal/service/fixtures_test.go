package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anubhav0108/timetable-ace-api/internal/generator"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	"github.com/anubhav0108/timetable-ace-api/internal/repository"
)

func sampleDataset() models.Dataset {
	return models.Dataset{
		Students: []models.Student{
			{ID: "S1", Name: "Asha", Program: "B.Ed", ElectiveChoices: models.StringList{"EL201", "EL202"}},
			{ID: "S2", Name: "Ravi", Program: "B.Ed", ElectiveChoices: models.StringList{"EL202"}},
		},
		Faculty: []models.Faculty{
			{ID: "F1", Name: "Dr. Rao", Department: "CS", Workload: 12, Expertise: models.StringList{"CS101"}},
			{ID: "F2", Name: "Prof. Iyer", Department: "Education", Workload: 10, Expertise: models.StringList{"EL201"}},
		},
		Courses: []models.Course{
			{ID: "C1", Code: "CS101", Name: "Data Structures", Program: "B.Tech", Credits: 4, Type: "Core"},
			{ID: "C2", Code: "EL201", Name: "Pedagogy", Program: "B.Ed", Credits: 2, Type: "Elective"},
		},
		Rooms: []models.Room{
			{ID: "R1", Name: "LH-1", Capacity: 60, Type: "Lecture"},
			{ID: "R2", Name: "LAB-2", Capacity: 30, Type: "Lab"},
		},
	}
}

func sampleResult() *models.TimetableResult {
	return &models.TimetableResult{
		Timetable: []models.TimetableEntry{
			{Day: "Monday", Time: "09:00 - 10:00", Course: "Data Structures", CourseCode: "CS101", Faculty: "Dr. Rao", Room: "LH-1"},
			{Day: "Tuesday", Time: "02:00 - 03:00", Course: "Pedagogy", CourseCode: "EL201", Faculty: "Prof. Iyer", Room: "LAB-2"},
		},
		Conflicts: []models.Conflict{},
		Report:    "All constraints satisfied.",
	}
}

func testSession() models.Session {
	return models.Session{ID: "session-1", Name: "Meera", Email: "meera@example.edu", Role: models.RoleAdmin}
}

// newTestWorkspaces opens a workspace for testSession in an in-memory store and applies setup to it.
func newTestWorkspaces(t *testing.T, setup func(ws *models.Workspace)) *WorkspaceService {
	t.Helper()
	dataset := sampleDataset()
	svc := NewWorkspaceService(repository.NewMemoryWorkspaceRepository(), nil, nil, WorkspaceServiceConfig{TTL: time.Hour, Seed: &dataset})
	_, err := svc.Open(context.Background(), testSession())
	require.NoError(t, err)
	if setup != nil {
		_, err = svc.Mutate(context.Background(), testSession().ID, func(ws *models.Workspace) error {
			setup(ws)
			return nil
		})
		require.NoError(t, err)
	}
	return svc
}

type stubAudit struct {
	mu   sync.Mutex
	logs []models.AuditLog
	err  error
}

func (s *stubAudit) Record(ctx context.Context, session models.Session, action, details string) (*models.AuditLog, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	log := models.AuditLog{
		ID:        "audit-" + action,
		SessionID: session.ID,
		Actor:     session.Name,
		Role:      session.Role,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now(),
	}
	s.logs = append(s.logs, log)
	return &log, nil
}

func (s *stubAudit) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.logs))
	for _, l := range s.logs {
		out = append(out, l.Action)
	}
	return out
}

type stubGenerator struct {
	mu       sync.Mutex
	requests []generator.GenerationRequest
	generate func(ctx context.Context, req generator.GenerationRequest) (*models.TimetableResult, error)
}

func (g *stubGenerator) Generate(ctx context.Context, req generator.GenerationRequest) (*models.TimetableResult, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	return g.generate(ctx, req)
}

type stubSuggester struct {
	answer *generator.FacultySuggestion
	err    error
	last   generator.SuggestFacultyRequest
}

func (s *stubSuggester) SuggestFaculty(ctx context.Context, req generator.SuggestFacultyRequest) (*generator.FacultySuggestion, error) {
	s.last = req
	return s.answer, s.err
}

type stubRunStore struct {
	mu   sync.Mutex
	runs []models.GenerationRun
}

func (s *stubRunStore) Create(ctx context.Context, run *models.GenerationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.ID == "" {
		run.ID = "run-" + time.Now().Format("150405.000000000")
	}
	s.runs = append(s.runs, *run)
	return nil
}

func (s *stubRunStore) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.GenerationRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.GenerationRun, 0, len(s.runs))
	for _, r := range s.runs {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}
