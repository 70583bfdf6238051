package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/anubhav0108/timetable-ace-api/internal/dto"
	"github.com/anubhav0108/timetable-ace-api/internal/generator"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
)

const courseNotFound = "Course not found"

// EditService implements manual override of a generated timetable.
type EditService struct {
	workspaces workspaceAccessor
	suggester  generator.FacultySuggester
	audit      auditRecorder
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	timeout    time.Duration
}

// NewEditService constructs the service. suggester may be nil.
func NewEditService(workspaces workspaceAccessor, suggester generator.FacultySuggester, audit auditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, timeout time.Duration) *EditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EditService{
		workspaces: workspaces,
		suggester:  suggester,
		audit:      audit,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		timeout:    timeout,
	}
}

// Begin snapshots the stored timetable into a new edit session. An active session is kept.
func (s *EditService) Begin(ctx context.Context, sessionID string) (*dto.EditSessionResponse, error) {
	ws, err := s.workspaces.Mutate(ctx, sessionID, func(ws *models.Workspace) error {
		if ws.Result == nil {
			return appErrors.ErrNoTimetable
		}
		if ws.Edit != nil {
			return nil
		}
		ws.Edit = &models.EditSession{
			Original:    models.CloneEntries(ws.Result.Timetable),
			Working:     models.CloneEntries(ws.Result.Timetable),
			Suggestions: map[string]models.Suggestion{},
			StartedAt:   time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return editView(ws.Edit), nil
}

// Get returns the current edit session.
func (s *EditService) Get(ctx context.Context, sessionID string) (*dto.EditSessionResponse, error) {
	ws, err := s.workspaces.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return editView(ws.Edit), nil
}

// UpdateEntry changes one field of a working-copy cell. Unknown cells are ignored.
func (s *EditService) UpdateEntry(ctx context.Context, sessionID string, req dto.UpdateEntryRequest) (*dto.EditSessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry update")
	}
	ws, err := s.workspaces.Mutate(ctx, sessionID, func(ws *models.Workspace) error {
		if ws.Edit == nil {
			return appErrors.ErrEditNotActive
		}
		ws.Edit.Working = ApplyCellChange(ws.Edit.Working, ws.Dataset.Courses, req.Day, req.Time, req.Field, req.Value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return editView(ws.Edit), nil
}

// SuggestFaculty asks the suggester for a faculty member for one cell and stores the answer.
func (s *EditService) SuggestFaculty(ctx context.Context, sessionID string, req dto.CellRequest) (*dto.SuggestionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid suggestion request")
	}
	ws, err := s.workspaces.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if ws.Edit == nil {
		return nil, appErrors.ErrEditNotActive
	}
	entry, ok := findEntry(ws.Edit.Working, req.Day, req.Time)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable cell not found")
	}

	suggestion := s.requestSuggestion(ctx, ws, entry)
	s.metrics.RecordSuggestion(suggestion.Error == "")

	key := models.SuggestionKey(req.Day, req.Time)
	if _, err := s.workspaces.Mutate(ctx, sessionID, func(ws *models.Workspace) error {
		if ws.Edit == nil {
			return appErrors.ErrEditNotActive
		}
		if ws.Edit.Suggestions == nil {
			ws.Edit.Suggestions = map[string]models.Suggestion{}
		}
		ws.Edit.Suggestions[key] = suggestion
		return nil
	}); err != nil {
		return nil, err
	}

	resp := &dto.SuggestionResponse{Key: key, Suggestion: suggestion}
	if suggestion.Error == "" {
		resp.Message = fmt.Sprintf("AI suggests %s for this slot.", suggestion.FacultyName)
	} else {
		resp.Message = suggestion.Error
	}
	return resp, nil
}

func (s *EditService) requestSuggestion(ctx context.Context, ws *models.Workspace, entry models.TimetableEntry) models.Suggestion {
	course, ok := ws.Dataset.FindCourseByName(entry.Course)
	if !ok {
		return models.Suggestion{Error: courseNotFound}
	}
	if s.suggester == nil {
		return models.Suggestion{Error: suggestionFailPrefix + appErrors.ErrGeneratorUnavailable.Message}
	}

	courseJSON, err := json.Marshal(course)
	if err != nil {
		return models.Suggestion{Error: suggestionFailPrefix + err.Error()}
	}
	facultyData, err := encodeCollection(ws.Dataset.Faculty)
	if err != nil {
		return models.Suggestion{Error: suggestionFailPrefix + err.Error()}
	}
	timetable, err := encodeCollection(ws.Edit.Working)
	if err != nil {
		return models.Suggestion{Error: suggestionFailPrefix + err.Error()}
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	answer, err := s.suggester.SuggestFaculty(callCtx, generator.SuggestFacultyRequest{
		Course:      string(courseJSON),
		FacultyData: facultyData,
		Timetable:   timetable,
	})
	if err != nil {
		s.logger.Warn("faculty suggestion failed", zap.String("course", course.Name), zap.Error(err))
		return models.Suggestion{Error: suggestionFailPrefix + err.Error()}
	}
	return models.Suggestion{FacultyName: answer.FacultyName, Justification: answer.Justification}
}

// ApplySuggestion assigns the suggested faculty member to the cell.
func (s *EditService) ApplySuggestion(ctx context.Context, sessionID string, req dto.CellRequest) (*dto.EditSessionResponse, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid suggestion request")
	}
	var assigned string
	ws, err := s.workspaces.Mutate(ctx, sessionID, func(ws *models.Workspace) error {
		if ws.Edit == nil {
			return appErrors.ErrEditNotActive
		}
		suggestion, ok := ws.Edit.Suggestions[models.SuggestionKey(req.Day, req.Time)]
		if !ok || suggestion.FacultyName == "" {
			return appErrors.Clone(appErrors.ErrNotFound, "no suggestion available for this cell")
		}
		assigned = suggestion.FacultyName
		ws.Edit.Working = ApplyCellChange(ws.Edit.Working, ws.Dataset.Courses, req.Day, req.Time, dto.EditFieldFaculty, assigned)
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return editView(ws.Edit), fmt.Sprintf("%s has been assigned.", assigned), nil
}

// Save commits the working copy and records one audit entry describing the changes.
func (s *EditService) Save(ctx context.Context, session models.Session) (*dto.SaveEditResponse, error) {
	var changes []string
	ws, err := s.workspaces.Mutate(ctx, session.ID, func(ws *models.Workspace) error {
		if ws.Edit == nil {
			return appErrors.ErrEditNotActive
		}
		changes = DiffEdits(ws.Edit.Original, ws.Edit.Working)
		if ws.Result == nil {
			ws.Result = &models.TimetableResult{Conflicts: []models.Conflict{}}
		}
		ws.Result.Timetable = models.CloneEntries(ws.Edit.Working)
		ws.Edit = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.SaveEditResponse{
		Changes: changes,
		Result:  ws.Result,
		Message: "Your timetable adjustments have been saved and logged.",
	}
	if len(changes) > 0 {
		log, err := s.audit.Record(ctx, session, models.AuditActionTimetableUpdate, SummariseChanges(changes))
		if err != nil {
			s.logger.Warn("failed to record timetable update audit log", zap.Error(err))
		}
		resp.AuditLog = log
	}
	return resp, nil
}

// Cancel discards the edit session; the stored timetable is untouched.
func (s *EditService) Cancel(ctx context.Context, sessionID string) (*dto.EditSessionResponse, error) {
	ws, err := s.workspaces.Mutate(ctx, sessionID, func(ws *models.Workspace) error {
		ws.Edit = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return editView(ws.Edit), nil
}

// MarkAttendance records attendance for a scheduled class.
func (s *EditService) MarkAttendance(ctx context.Context, session models.Session, req dto.CellRequest) (*dto.AttendanceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance request")
	}
	ws, err := s.workspaces.Load(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if ws.Result == nil {
		return nil, appErrors.ErrNoTimetable
	}
	entry, ok := findEntry(ws.Result.Timetable, req.Day, req.Time)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable cell not found")
	}

	details := fmt.Sprintf("Attendance marked for course %s (%s) taught by %s.", entry.Course, entry.CourseCode, entry.Faculty)
	log, err := s.audit.Record(ctx, session, models.AuditActionAttendanceMarked, details)
	if err != nil {
		return nil, err
	}
	return &dto.AttendanceResponse{
		AuditLog: *log,
		Message:  fmt.Sprintf("Attendance record for %q has been added to the Audit Log.", entry.Course),
	}, nil
}

// ApplyCellChange returns a copy of entries with one field of the (day, time) cell set.
// Changing the course also refreshes the course code by course name.
func ApplyCellChange(entries []models.TimetableEntry, courses []models.Course, day, slot, field, value string) []models.TimetableEntry {
	out := models.CloneEntries(entries)
	for i := range out {
		if out[i].Day != day || out[i].Time != slot {
			continue
		}
		switch field {
		case dto.EditFieldCourse:
			out[i].Course = value
			out[i].CourseCode = ""
			for _, c := range courses {
				if c.Name == value {
					out[i].CourseCode = c.Code
					break
				}
			}
		case dto.EditFieldFaculty:
			out[i].Faculty = value
		case dto.EditFieldRoom:
			out[i].Room = value
		}
	}
	return out
}

// DiffEdits describes faculty and room changes between the snapshot and the working copy.
func DiffEdits(original, working []models.TimetableEntry) []string {
	changes := make([]string, 0)
	for _, orig := range original {
		updated, ok := findEntry(working, orig.Day, orig.Time)
		if !ok {
			continue
		}
		if orig.Faculty != updated.Faculty {
			changes = append(changes, fmt.Sprintf("Changed %s at %s %s from %s to %s.", updated.Course, updated.Day, updated.Time, orig.Faculty, updated.Faculty))
		}
		if orig.Room != updated.Room {
			changes = append(changes, fmt.Sprintf("Moved %s at %s %s from %s to %s.", updated.Course, updated.Day, updated.Time, orig.Room, updated.Room))
		}
	}
	return changes
}

// SummariseChanges formats the audit details of a save.
func SummariseChanges(changes []string) string {
	return fmt.Sprintf("Made %d change(s): %s", len(changes), strings.Join(changes, " "))
}

func findEntry(entries []models.TimetableEntry, day, slot string) (models.TimetableEntry, bool) {
	for _, e := range entries {
		if e.Day == day && e.Time == slot {
			return e, true
		}
	}
	return models.TimetableEntry{}, false
}

func editView(edit *models.EditSession) *dto.EditSessionResponse {
	if edit == nil {
		return &dto.EditSessionResponse{
			Original:    []models.TimetableEntry{},
			Working:     []models.TimetableEntry{},
			Suggestions: map[string]models.Suggestion{},
		}
	}
	started := edit.StartedAt
	suggestions := edit.Suggestions
	if suggestions == nil {
		suggestions = map[string]models.Suggestion{}
	}
	return &dto.EditSessionResponse{
		Active:      true,
		Original:    edit.Original,
		Working:     edit.Working,
		Suggestions: suggestions,
		StartedAt:   &started,
	}
}
