package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anubhav0108/timetable-ace-api/internal/models"
)

func TestSimulateLeavesInputsUntouched(t *testing.T) {
	dataset := sampleDataset()
	before := cloneDataset(dataset)
	scenario := models.Scenario{
		FacultyOnLeave:    []string{"F2"},
		UnavailableRooms:  []string{"R2"},
		StudentPopularity: models.StudentPopularity{CourseID: "C1", Increase: 100},
		FacultyWorkload:   models.FacultyWorkload{FacultyID: "Dr. Rao", NewWorkload: 20},
	}

	result := NewScenarioSimulator(nil).Simulate(dataset, scenario)

	assert.Equal(t, before, dataset)
	require.Len(t, result.Faculty, 1)
	assert.Equal(t, "F1", result.Faculty[0].ID)
	assert.Equal(t, float64(20), result.Faculty[0].Workload)
	require.Len(t, result.Rooms, 1)
	assert.Equal(t, "R1", result.Rooms[0].ID)
	assert.Equal(t, models.StringList{"EL201", "CS101"}, result.Students[0].ElectiveChoices)
	assert.Equal(t, models.StringList{"CS101"}, result.Students[1].ElectiveChoices)

	result.Faculty[0].Expertise[0] = "changed"
	assert.Equal(t, "CS101", dataset.Faculty[0].Expertise[0])
}

func TestSimulateWithoutScenarioCopiesEverything(t *testing.T) {
	dataset := sampleDataset()
	result := NewScenarioSimulator(nil).Simulate(dataset, models.Scenario{})

	assert.Equal(t, dataset.Faculty, result.Faculty)
	assert.Equal(t, dataset.Rooms, result.Rooms)
	assert.Equal(t, dataset.Students, result.Students)
}

func TestSimulateWorkloadIsIdempotent(t *testing.T) {
	dataset := sampleDataset()
	dataset.Faculty = append(dataset.Faculty, models.Faculty{ID: "F3", Name: "Dr. Rao", Workload: 4})
	scenario := models.Scenario{FacultyWorkload: models.FacultyWorkload{FacultyID: "Dr. Rao", NewWorkload: 16}}
	sim := NewScenarioSimulator(nil)

	once := sim.Simulate(dataset, scenario)
	dataset.Faculty = once.Faculty
	twice := sim.Simulate(dataset, scenario)

	assert.Equal(t, once.Faculty, twice.Faculty)
	assert.Equal(t, float64(16), twice.Faculty[0].Workload)
	assert.Equal(t, float64(16), twice.Faculty[2].Workload)
	assert.Equal(t, float64(10), twice.Faculty[1].Workload)
}

func TestSimulatePopularityCapsModifiedStudents(t *testing.T) {
	dataset := sampleDataset()
	dataset.Students = make([]models.Student, 100)
	for i := range dataset.Students {
		dataset.Students[i] = models.Student{ID: fmt.Sprintf("S%d", i), ElectiveChoices: models.StringList{"EL201", "EL202"}}
	}
	scenario := models.Scenario{StudentPopularity: models.StudentPopularity{CourseID: "C1", Increase: 20}}

	result := NewScenarioSimulator(nil).Simulate(dataset, scenario)

	modified := 0
	for i, st := range result.Students {
		if st.ElectiveChoices.Contains("CS101") {
			modified++
			assert.Equal(t, models.StringList{"EL201", "CS101"}, st.ElectiveChoices, "student %d", i)
		}
	}
	assert.Equal(t, 20, modified)
	assert.Equal(t, models.StringList{"EL201", "EL202"}, result.Students[20].ElectiveChoices)
}

func TestSimulatePopularitySkipsStudentsAlreadyChoosingCourse(t *testing.T) {
	dataset := sampleDataset()
	dataset.Students = []models.Student{
		{ID: "S1", ElectiveChoices: models.StringList{"CS101", "EL202"}},
		{ID: "S2", ElectiveChoices: models.StringList{"EL201"}},
		{ID: "S3", ElectiveChoices: models.StringList{}},
		{ID: "S4", ElectiveChoices: models.StringList{"EL202"}},
	}
	scenario := models.Scenario{StudentPopularity: models.StudentPopularity{CourseID: "C1", Increase: 50}}

	result := NewScenarioSimulator(nil).Simulate(dataset, scenario)

	assert.Equal(t, models.StringList{"CS101", "EL202"}, result.Students[0].ElectiveChoices)
	assert.Equal(t, models.StringList{"CS101"}, result.Students[1].ElectiveChoices)
	assert.Equal(t, models.StringList{"CS101"}, result.Students[2].ElectiveChoices)
	assert.Equal(t, models.StringList{"EL202"}, result.Students[3].ElectiveChoices)
}

func TestSimulatePopularityUnknownCourse(t *testing.T) {
	dataset := sampleDataset()
	scenario := models.Scenario{StudentPopularity: models.StudentPopularity{CourseID: "missing", Increase: 100}}

	result := NewScenarioSimulator(nil).Simulate(dataset, scenario)
	assert.Equal(t, dataset.Students, result.Students)
}

func TestDescribeScenario(t *testing.T) {
	dataset := sampleDataset()
	scenario := models.Scenario{
		FacultyOnLeave:    []string{"F2"},
		UnavailableRooms:  []string{"R1", "R2"},
		StudentPopularity: models.StudentPopularity{CourseID: "C1", Increase: 12.5},
		FacultyWorkload:   models.FacultyWorkload{FacultyID: "Dr. Rao", NewWorkload: 18},
	}

	got := DescribeScenario(scenario, dataset.Courses, dataset.Faculty)
	assert.Equal(t, "Faculty on leave: 1. Unavailable rooms: 2. Forecast: CS101 demand +12.5%. Forecast: Rao load to 18 hrs", got)
	assert.Empty(t, DescribeScenario(models.Scenario{}, dataset.Courses, dataset.Faculty))
}

func TestDescribeProgramConstraints(t *testing.T) {
	constraints, err := models.NewConstraints([]byte(`{
		"maxHoursPerDay": 6,
		"programSpecific": {
			"teachingPractice": {"program": "B.Ed", "day": "Wednesday", "startTime": "09:00", "endTime": "13:00"},
			"fieldWork": {"program": "M.Ed", "startDate": "2024-03-01", "endDate": "2024-03-15", "activityType": "Internship"}
		}
	}`))
	require.NoError(t, err)

	got := DescribeProgramConstraints(constraints)
	assert.Equal(t, "Teaching Practice (B.Ed) is scheduled every Wednesday from 09:00 to 13:00. Internship for M.Ed is scheduled from Mar 01 to Mar 15, 2024.", got)

	empty, err := models.NewConstraints(nil)
	require.NoError(t, err)
	assert.Empty(t, DescribeProgramConstraints(empty))
}

func TestAvailablePrograms(t *testing.T) {
	courses := []models.Course{
		{ID: "1", Program: "B.Tech"},
		{ID: "2", Program: ""},
		{ID: "3", Program: "B.Ed"},
		{ID: "4", Program: "B.Tech"},
	}
	assert.Equal(t, []string{"B.Tech", "B.Ed"}, AvailablePrograms(courses))
	assert.Empty(t, AvailablePrograms(nil))
}

func TestSurnameFallsBackToFullName(t *testing.T) {
	assert.Equal(t, "Rao", surname("Dr. Rao"))
	assert.Equal(t, "Plato", surname("Plato"))
}
