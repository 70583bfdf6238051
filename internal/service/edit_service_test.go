package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anubhav0108/timetable-ace-api/internal/dto"
	"github.com/anubhav0108/timetable-ace-api/internal/generator"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
)

func newEditFixture(t *testing.T, suggester generator.FacultySuggester) (*EditService, *WorkspaceService, *stubAudit) {
	t.Helper()
	workspaces := newTestWorkspaces(t, func(ws *models.Workspace) {
		ws.Result = sampleResult()
	})
	audit := &stubAudit{}
	return NewEditService(workspaces, suggester, audit, nil, nil, nil, 0), workspaces, audit
}

func TestEditServiceBeginRequiresTimetable(t *testing.T) {
	workspaces := newTestWorkspaces(t, nil)
	svc := NewEditService(workspaces, nil, &stubAudit{}, nil, nil, nil, 0)

	_, err := svc.Begin(context.Background(), testSession().ID)
	assert.True(t, errors.Is(err, appErrors.ErrNoTimetable))
}

func TestEditServiceSaveAuditsEveryChange(t *testing.T) {
	svc, workspaces, audit := newEditFixture(t, nil)
	ctx := context.Background()
	session := testSession()

	view, err := svc.Begin(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, view.Active)
	assert.Equal(t, view.Original, view.Working)

	_, err = svc.UpdateEntry(ctx, session.ID, dto.UpdateEntryRequest{Day: "Monday", Time: "09:00 - 10:00", Field: dto.EditFieldFaculty, Value: "Prof. Iyer"})
	require.NoError(t, err)
	_, err = svc.UpdateEntry(ctx, session.ID, dto.UpdateEntryRequest{Day: "Tuesday", Time: "02:00 - 03:00", Field: dto.EditFieldRoom, Value: "LH-1"})
	require.NoError(t, err)

	resp, err := svc.Save(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Changed Data Structures at Monday 09:00 - 10:00 from Dr. Rao to Prof. Iyer.",
		"Moved Pedagogy at Tuesday 02:00 - 03:00 from LAB-2 to LH-1.",
	}, resp.Changes)
	require.NotNil(t, resp.AuditLog)
	assert.Equal(t, models.AuditActionTimetableUpdate, resp.AuditLog.Action)
	assert.True(t, strings.HasPrefix(resp.AuditLog.Details, "Made 2 change(s): "))
	for _, change := range resp.Changes {
		assert.Contains(t, resp.AuditLog.Details, change)
	}

	ws, err := workspaces.Load(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, ws.Edit)
	assert.Equal(t, "Prof. Iyer", ws.Result.Timetable[0].Faculty)
	assert.Equal(t, "LH-1", ws.Result.Timetable[1].Room)
	assert.Equal(t, sampleResult().Report, ws.Result.Report)
	assert.Equal(t, []string{models.AuditActionTimetableUpdate}, audit.actions())
}

func TestEditServiceSaveWithoutChangesSkipsAudit(t *testing.T) {
	svc, workspaces, audit := newEditFixture(t, nil)
	ctx := context.Background()
	session := testSession()

	_, err := svc.Begin(ctx, session.ID)
	require.NoError(t, err)
	_, err = svc.UpdateEntry(ctx, session.ID, dto.UpdateEntryRequest{Day: "Monday", Time: "09:00 - 10:00", Field: dto.EditFieldFaculty, Value: "Prof. Iyer"})
	require.NoError(t, err)
	_, err = svc.UpdateEntry(ctx, session.ID, dto.UpdateEntryRequest{Day: "Monday", Time: "09:00 - 10:00", Field: dto.EditFieldFaculty, Value: "Dr. Rao"})
	require.NoError(t, err)

	resp, err := svc.Save(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, resp.Changes)
	assert.Nil(t, resp.AuditLog)
	assert.Empty(t, audit.actions())

	ws, err := workspaces.Load(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleResult().Timetable, ws.Result.Timetable)
}

func TestEditServiceCancelDiscardsWorkingCopy(t *testing.T) {
	svc, workspaces, audit := newEditFixture(t, nil)
	ctx := context.Background()
	session := testSession()

	_, err := svc.Begin(ctx, session.ID)
	require.NoError(t, err)
	_, err = svc.UpdateEntry(ctx, session.ID, dto.UpdateEntryRequest{Day: "Monday", Time: "09:00 - 10:00", Field: dto.EditFieldRoom, Value: "LAB-2"})
	require.NoError(t, err)

	view, err := svc.Cancel(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, view.Active)

	ws, err := workspaces.Load(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleResult().Timetable, ws.Result.Timetable)
	assert.Empty(t, audit.actions())

	_, err = svc.Save(ctx, session)
	assert.True(t, errors.Is(err, appErrors.ErrEditNotActive))
}

func TestEditServiceBeginKeepsActiveSession(t *testing.T) {
	svc, _, _ := newEditFixture(t, nil)
	ctx := context.Background()
	id := testSession().ID

	_, err := svc.Begin(ctx, id)
	require.NoError(t, err)
	_, err = svc.UpdateEntry(ctx, id, dto.UpdateEntryRequest{Day: "Monday", Time: "09:00 - 10:00", Field: dto.EditFieldRoom, Value: "LAB-2"})
	require.NoError(t, err)

	view, err := svc.Begin(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "LAB-2", view.Working[0].Room)
	assert.Equal(t, "LH-1", view.Original[0].Room)
}

func TestEditServiceUpdateEntryWithoutSession(t *testing.T) {
	svc, _, _ := newEditFixture(t, nil)

	_, err := svc.UpdateEntry(context.Background(), testSession().ID, dto.UpdateEntryRequest{Day: "Monday", Time: "09:00 - 10:00", Field: dto.EditFieldRoom, Value: "LAB-2"})
	assert.True(t, errors.Is(err, appErrors.ErrEditNotActive))

	_, err = svc.UpdateEntry(context.Background(), testSession().ID, dto.UpdateEntryRequest{Day: "Monday", Time: "09:00 - 10:00", Field: "day", Value: "x"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestEditServiceSuggestAndApply(t *testing.T) {
	suggester := &stubSuggester{answer: &generator.FacultySuggestion{FacultyName: "Prof. Iyer", Justification: "Free on Monday mornings."}}
	svc, workspaces, _ := newEditFixture(t, suggester)
	ctx := context.Background()
	id := testSession().ID
	cell := dto.CellRequest{Day: "Monday", Time: "09:00 - 10:00"}

	_, err := svc.Begin(ctx, id)
	require.NoError(t, err)

	resp, err := svc.SuggestFaculty(ctx, id, cell)
	require.NoError(t, err)
	assert.Equal(t, "Monday-09:00 - 10:00", resp.Key)
	assert.Equal(t, "Prof. Iyer", resp.Suggestion.FacultyName)
	assert.Equal(t, "AI suggests Prof. Iyer for this slot.", resp.Message)
	assert.Contains(t, suggester.last.Course, "CS101")
	assert.Contains(t, suggester.last.FacultyData, "Prof. Iyer")

	view, message, err := svc.ApplySuggestion(ctx, id, cell)
	require.NoError(t, err)
	assert.Equal(t, "Prof. Iyer has been assigned.", message)
	assert.Equal(t, "Prof. Iyer", view.Working[0].Faculty)
	assert.Equal(t, "Dr. Rao", view.Original[0].Faculty)

	ws, err := workspaces.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Rao", ws.Result.Timetable[0].Faculty)
}

func TestEditServiceSuggestFailures(t *testing.T) {
	suggester := &stubSuggester{err: errors.New("rate limited")}
	svc, workspaces, _ := newEditFixture(t, suggester)
	ctx := context.Background()
	id := testSession().ID

	_, err := svc.Begin(ctx, id)
	require.NoError(t, err)

	resp, err := svc.SuggestFaculty(ctx, id, dto.CellRequest{Day: "Monday", Time: "09:00 - 10:00"})
	require.NoError(t, err)
	assert.Equal(t, "AI Suggestion Failed: rate limited", resp.Suggestion.Error)
	assert.Equal(t, resp.Suggestion.Error, resp.Message)

	_, _, err = svc.ApplySuggestion(ctx, id, dto.CellRequest{Day: "Monday", Time: "09:00 - 10:00"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = workspaces.Mutate(ctx, id, func(ws *models.Workspace) error {
		ws.Edit.Working[1].Course = "Unknown Course"
		return nil
	})
	require.NoError(t, err)
	resp, err = svc.SuggestFaculty(ctx, id, dto.CellRequest{Day: "Tuesday", Time: "02:00 - 03:00"})
	require.NoError(t, err)
	assert.Equal(t, "Course not found", resp.Suggestion.Error)

	_, err = svc.SuggestFaculty(ctx, id, dto.CellRequest{Day: "Friday", Time: "09:00 - 10:00"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestEditServiceMarkAttendance(t *testing.T) {
	svc, _, audit := newEditFixture(t, nil)

	resp, err := svc.MarkAttendance(context.Background(), testSession(), dto.CellRequest{Day: "Tuesday", Time: "02:00 - 03:00"})
	require.NoError(t, err)
	assert.Equal(t, `Attendance record for "Pedagogy" has been added to the Audit Log.`, resp.Message)
	assert.Equal(t, models.AuditActionAttendanceMarked, resp.AuditLog.Action)
	assert.Equal(t, "Meera", resp.AuditLog.Actor)
	assert.Equal(t, []string{models.AuditActionAttendanceMarked}, audit.actions())

	_, err = svc.MarkAttendance(context.Background(), testSession(), dto.CellRequest{Day: "Friday", Time: "09:00 - 10:00"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestApplyCellChangeCourseRefreshesCode(t *testing.T) {
	entries := sampleResult().Timetable
	courses := sampleDataset().Courses

	out := ApplyCellChange(entries, courses, "Monday", "09:00 - 10:00", dto.EditFieldCourse, "Pedagogy")
	assert.Equal(t, "Pedagogy", out[0].Course)
	assert.Equal(t, "EL201", out[0].CourseCode)
	assert.Equal(t, "Data Structures", entries[0].Course)

	out = ApplyCellChange(entries, courses, "Monday", "09:00 - 10:00", dto.EditFieldCourse, "Free Period")
	assert.Empty(t, out[0].CourseCode)

	out = ApplyCellChange(entries, courses, "Sunday", "09:00 - 10:00", dto.EditFieldRoom, "LAB-2")
	assert.Equal(t, entries, out)
}

func TestDiffEditsIgnoresCourseChanges(t *testing.T) {
	original := sampleResult().Timetable
	working := models.CloneEntries(original)
	working[0].Course = "Pedagogy"

	assert.Empty(t, DiffEdits(original, working))
	assert.Empty(t, DiffEdits(original, original))
}
