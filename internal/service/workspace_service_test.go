package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anubhav0108/timetable-ace-api/internal/models"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
)

func TestWorkspaceServiceOpenCopiesSeed(t *testing.T) {
	svc := newTestWorkspaces(t, nil)
	ctx := context.Background()
	id := testSession().ID

	_, err := svc.Mutate(ctx, id, func(ws *models.Workspace) error {
		ws.Dataset.Faculty[0].Expertise[0] = "changed"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "CS101", svc.cfg.Seed.Faculty[0].Expertise[0])

	view, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.DatasetSummary{Students: 2, Faculty: 2, Courses: 2, Rooms: 2}, view.Summary)
	assert.Equal(t, []string{"B.Tech", "B.Ed"}, view.AvailablePrograms)
	assert.False(t, view.HasTimetable)
	assert.False(t, view.Scenario.Active)
	assert.Equal(t, []string{}, view.Scenario.Scenario.FacultyOnLeave)
}

func TestWorkspaceServiceImportCSV(t *testing.T) {
	svc := newTestWorkspaces(t, nil)
	ctx := context.Background()
	id := testSession().ID

	csv := "id,name,department,workload,expertise\nF9,Dr. Sen,Maths,14,MA101;MA102\nF10,Dr. Bose,Physics,8,\n"
	resp, err := svc.ImportCSV(ctx, id, models.DatasetFaculty, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Imported)
	assert.Equal(t, 2, resp.Summary.Faculty)

	ws, err := svc.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sen", ws.Dataset.Faculty[0].Name)
	assert.Equal(t, models.StringList{"MA101", "MA102"}, ws.Dataset.Faculty[0].Expertise)
	assert.Equal(t, float64(14), ws.Dataset.Faculty[0].Workload)
	assert.Len(t, ws.Dataset.Courses, 2)

	students := "id,name,program,electiveChoices\nS7,Kiran,B.Ed,EL201;EL202\n"
	resp, err = svc.ImportCSV(ctx, id, models.DatasetStudents, strings.NewReader(students))
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Imported)
}

func TestWorkspaceServiceImportCSVRejectsBadRows(t *testing.T) {
	svc := newTestWorkspaces(t, nil)
	ctx := context.Background()
	id := testSession().ID

	_, err := svc.ImportCSV(ctx, id, models.DatasetRooms, strings.NewReader("id,name,capacity\n,LH-9,40\n"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.ImportCSV(ctx, id, models.DatasetKind("teachers"), strings.NewReader(""))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	ws, err := svc.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, ws.Dataset.Rooms, 2)
}

func TestWorkspaceServiceScenarioLifecycle(t *testing.T) {
	svc := newTestWorkspaces(t, nil)
	ctx := context.Background()
	id := testSession().ID

	view, err := svc.UpdateScenario(ctx, id, models.Scenario{
		FacultyOnLeave:  []string{"F1"},
		FacultyWorkload: models.FacultyWorkload{FacultyID: "Prof. Iyer", NewWorkload: 6},
	})
	require.NoError(t, err)
	assert.True(t, view.Active)
	assert.Equal(t, "Faculty on leave: 1. Forecast: Iyer load to 6 hrs", view.Description)
	assert.Equal(t, []string{}, view.Scenario.UnavailableRooms)

	_, err = svc.UpdateScenario(ctx, id, models.Scenario{StudentPopularity: models.StudentPopularity{CourseID: "C1", Increase: 150}})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	view, err = svc.ResetScenario(ctx, id)
	require.NoError(t, err)
	assert.False(t, view.Active)
	assert.Empty(t, view.Description)
}

func TestWorkspaceServiceConstraints(t *testing.T) {
	svc := newTestWorkspaces(t, nil)
	ctx := context.Background()
	id := testSession().ID

	raw := []byte(`{"maxHoursPerDay":6,"programSpecific":{"teachingPractice":{"program":"B.Ed","day":"Friday","startTime":"10:00","endTime":"12:00"}}}`)
	view, err := svc.UpdateConstraints(ctx, id, raw)
	require.NoError(t, err)
	assert.True(t, view.ProgramActive)
	assert.Equal(t, "Teaching Practice (B.Ed) is scheduled every Friday from 10:00 to 12:00.", view.Description)

	got, err := svc.GetConstraints(ctx, id)
	require.NoError(t, err)
	encoded, err := got.Constraints.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(encoded))

	_, err = svc.UpdateConstraints(ctx, id, []byte(`[1,2,3]`))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestWorkspaceServiceUnknownSession(t *testing.T) {
	svc := newTestWorkspaces(t, nil)

	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrSessionNotFound))
	_, err = svc.UpdateScenario(context.Background(), "missing", models.Scenario{})
	assert.True(t, errors.Is(err, appErrors.ErrSessionNotFound))
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	payload := `{
		"students": [{"id": "S1", "electiveChoices": ["EL201"]}],
		"courses": [{"id": "C1", "code": "CS101", "name": "Data Structures"}],
		"constraints": {"maxHoursPerDay": 5}
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	dataset, constraints, err := LoadSeed(path)
	require.NoError(t, err)
	assert.Len(t, dataset.Students, 1)
	assert.Len(t, dataset.Courses, 1)
	assert.NotNil(t, dataset.Faculty)
	assert.Equal(t, 1, constraints.Len())

	_, _, err = LoadSeed(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
