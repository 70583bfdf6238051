package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/anubhav0108/timetable-ace-api/internal/models"
)

// SimulationResult holds the perturbed copies handed to the request builder.
type SimulationResult struct {
	Faculty  []models.Faculty
	Rooms    []models.Room
	Students []models.Student
}

// ScenarioSimulator applies what-if scenarios to copies of the canonical dataset.
type ScenarioSimulator struct {
	logger *zap.Logger
}

// NewScenarioSimulator constructs a simulator.
func NewScenarioSimulator(logger *zap.Logger) *ScenarioSimulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScenarioSimulator{logger: logger}
}

// Simulate returns deep copies of faculty, rooms and students with the scenario applied.
// The inputs are never mutated.
func (s *ScenarioSimulator) Simulate(dataset models.Dataset, scenario models.Scenario) SimulationResult {
	leave := toSet(scenario.FacultyOnLeave)
	unavailable := toSet(scenario.UnavailableRooms)

	faculty := make([]models.Faculty, 0, len(dataset.Faculty))
	for _, f := range dataset.Faculty {
		if _, skip := leave[f.ID]; skip {
			continue
		}
		f.Expertise = cloneStringList(f.Expertise)
		faculty = append(faculty, f)
	}

	rooms := make([]models.Room, 0, len(dataset.Rooms))
	for _, r := range dataset.Rooms {
		if _, skip := unavailable[r.ID]; skip {
			continue
		}
		rooms = append(rooms, r)
	}

	students := make([]models.Student, len(dataset.Students))
	for i, st := range dataset.Students {
		st.ElectiveChoices = cloneStringList(st.ElectiveChoices)
		students[i] = st
	}

	if target := scenario.FacultyWorkload.FacultyID; target != "" {
		s.applyWorkload(faculty, target, scenario.FacultyWorkload.NewWorkload)
	}

	if pop := scenario.StudentPopularity; pop.CourseID != "" && pop.Increase > 0 {
		s.applyPopularity(students, dataset.Courses, pop)
	}

	return SimulationResult{Faculty: faculty, Rooms: rooms, Students: students}
}

// applyWorkload overrides the workload of every faculty member named target.
func (s *ScenarioSimulator) applyWorkload(faculty []models.Faculty, target string, workload float64) {
	matched := 0
	for i := range faculty {
		if faculty[i].Name == target {
			faculty[i].Workload = workload
			matched++
		}
	}
	switch {
	case matched == 0:
		s.logger.Info("workload forecast matched no faculty", zap.String("faculty_name", target))
	case matched > 1:
		s.logger.Warn("workload forecast matched several faculty with the same name",
			zap.String("faculty_name", target), zap.Int("matches", matched))
	}
}

func (s *ScenarioSimulator) applyPopularity(students []models.Student, courses []models.Course, pop models.StudentPopularity) {
	var course *models.Course
	for i := range courses {
		if courses[i].ID == pop.CourseID {
			course = &courses[i]
			break
		}
	}
	if course == nil {
		s.logger.Info("popularity forecast course not found", zap.String("course_id", pop.CourseID))
		return
	}

	limit := int(math.Floor(float64(len(students)) * pop.Increase / 100))
	modified := 0
	for i := range students {
		if modified >= limit {
			break
		}
		if students[i].ElectiveChoices.Contains(course.Code) {
			continue
		}
		choices := students[i].ElectiveChoices
		if len(choices) > 0 {
			choices = choices[:len(choices)-1]
		}
		students[i].ElectiveChoices = append(choices, course.Code)
		modified++
	}
}

// DescribeScenario summarises an active scenario for display.
func DescribeScenario(scenario models.Scenario, courses []models.Course, faculty []models.Faculty) string {
	parts := make([]string, 0, 4)
	if n := len(scenario.FacultyOnLeave); n > 0 {
		parts = append(parts, fmt.Sprintf("Faculty on leave: %d", n))
	}
	if n := len(scenario.UnavailableRooms); n > 0 {
		parts = append(parts, fmt.Sprintf("Unavailable rooms: %d", n))
	}
	if id := scenario.StudentPopularity.CourseID; id != "" {
		for _, c := range courses {
			if c.ID == id {
				parts = append(parts, fmt.Sprintf("Forecast: %s demand +%s%%", c.Code, formatNumber(scenario.StudentPopularity.Increase)))
				break
			}
		}
	}
	if name := scenario.FacultyWorkload.FacultyID; name != "" {
		for _, f := range faculty {
			if f.Name == name {
				parts = append(parts, fmt.Sprintf("Forecast: %s load to %s hrs", surname(f.Name), formatNumber(scenario.FacultyWorkload.NewWorkload)))
				break
			}
		}
	}
	return strings.Join(parts, ". ")
}

// DescribeProgramConstraints summarises the active program level blocks.
func DescribeProgramConstraints(constraints models.Constraints) string {
	ps := constraints.ProgramSpecific()
	parts := make([]string, 0, 2)
	if tp := ps.TeachingPractice; tp.Program != "" && tp.Day != "" {
		parts = append(parts, fmt.Sprintf("Teaching Practice (%s) is scheduled every %s from %s to %s.", tp.Program, tp.Day, tp.StartTime, tp.EndTime))
	}
	if fw := ps.FieldWork; fw.Program != "" && fw.StartDate != "" && fw.EndDate != "" {
		parts = append(parts, fmt.Sprintf("%s for %s is scheduled from %s to %s.", fw.ActivityType, fw.Program,
			formatDate(fw.StartDate, "Jan 02"), formatDate(fw.EndDate, "Jan 02, 2006")))
	}
	return strings.Join(parts, " ")
}

// AvailablePrograms lists distinct non-empty course programs in first-seen order.
func AvailablePrograms(courses []models.Course) []string {
	seen := make(map[string]struct{}, len(courses))
	programs := make([]string, 0)
	for _, c := range courses {
		if c.Program == "" {
			continue
		}
		if _, ok := seen[c.Program]; ok {
			continue
		}
		seen[c.Program] = struct{}{}
		programs = append(programs, c.Program)
	}
	return programs
}

// surname picks the second word of a display name, e.g. "Dr. Rao" -> "Rao".
func surname(name string) string {
	fields := strings.Fields(name)
	if len(fields) > 1 {
		return fields[1]
	}
	return name
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}

func formatDate(raw, layout string) string {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, raw); err == nil {
			return t.Format(layout)
		}
	}
	return raw
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func cloneStringList(in models.StringList) models.StringList {
	if in == nil {
		return models.StringList{}
	}
	out := make(models.StringList, len(in))
	copy(out, in)
	return out
}
