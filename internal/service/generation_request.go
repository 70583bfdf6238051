package service

import (
	"encoding/json"
	"fmt"

	"github.com/anubhav0108/timetable-ace-api/internal/generator"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
)

const (
	msgNoResponseObject  = "AI model failed to return a valid response object."
	msgEmptyForPrograms  = "AI failed to generate a schedule for the selected program(s). The returned timetable was empty and no report was provided."
	msgEmptyTimetable    = "AI failed to generate a schedule. The returned timetable was empty and no report was provided."
	generationFailPrefix = "AI Generation Failed: "
	suggestionFailPrefix = "AI Suggestion Failed: "
)

// GenerationInput gathers everything the request builder needs.
type GenerationInput struct {
	Simulation  SimulationResult
	Courses     []models.Course
	Constraints models.Constraints
	Programs    []string
	Days        []string
	Previous    *models.TimetableResult
}

// GenerationOutcome is the classified generator reply. Exactly one of Result or Error is set.
type GenerationOutcome struct {
	Success bool                    `json:"success"`
	Result  *models.TimetableResult `json:"data,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// BuildGenerationRequest serialises the simulated data into a generator request.
func BuildGenerationRequest(in GenerationInput) (generator.GenerationRequest, error) {
	studentData, err := encodeCollection(in.Simulation.Students)
	if err != nil {
		return generator.GenerationRequest{}, fmt.Errorf("encode students: %w", err)
	}
	facultyData, err := encodeCollection(in.Simulation.Faculty)
	if err != nil {
		return generator.GenerationRequest{}, fmt.Errorf("encode faculty: %w", err)
	}
	courseData, err := encodeCollection(in.Courses)
	if err != nil {
		return generator.GenerationRequest{}, fmt.Errorf("encode courses: %w", err)
	}
	roomData, err := encodeCollection(in.Simulation.Rooms)
	if err != nil {
		return generator.GenerationRequest{}, fmt.Errorf("encode rooms: %w", err)
	}
	constraints, err := json.Marshal(in.Constraints)
	if err != nil {
		return generator.GenerationRequest{}, fmt.Errorf("encode constraints: %w", err)
	}

	programs := in.Programs
	if programs == nil {
		programs = []string{}
	}

	req := generator.GenerationRequest{
		StudentData: studentData,
		FacultyData: facultyData,
		CourseData:  courseData,
		RoomData:    roomData,
		Constraints: string(constraints),
		Programs:    programs,
		Days:        ResolveDays(in.Days),
	}

	if in.Previous != nil {
		existing, err := encodeCollection(in.Previous.Timetable)
		if err != nil {
			return generator.GenerationRequest{}, fmt.Errorf("encode existing timetable: %w", err)
		}
		req.ExistingTimetable = &existing
	}

	return req, nil
}

// ResolveDays returns the selected days, or Monday to Friday when none are selected.
func ResolveDays(days []string) []string {
	if len(days) == 0 {
		return append([]string(nil), models.Weekdays...)
	}
	return append([]string(nil), days...)
}

// ClassifyGeneration interprets a generator reply against the request that produced it.
func ClassifyGeneration(req generator.GenerationRequest, result *models.TimetableResult, genErr error) GenerationOutcome {
	if genErr != nil {
		return GenerationOutcome{Error: generationFailPrefix + genErr.Error()}
	}
	if result == nil {
		return GenerationOutcome{Error: msgNoResponseObject}
	}

	if len(result.Timetable) == 0 {
		if len(req.Programs) > 0 {
			return GenerationOutcome{Error: firstNonBlank(result.Report, msgEmptyForPrograms)}
		}
		if req.CourseData == "[]" && req.ExistingTimetable == nil {
			return GenerationOutcome{Success: true, Result: normaliseResult(result)}
		}
		return GenerationOutcome{Error: firstNonBlank(result.Report, msgEmptyTimetable)}
	}

	return GenerationOutcome{Success: true, Result: normaliseResult(result)}
}

func normaliseResult(result *models.TimetableResult) *models.TimetableResult {
	out := result.Clone()
	if out.Conflicts == nil {
		out.Conflicts = []models.Conflict{}
	}
	return out
}

// encodeCollection marshals a slice so that an empty or nil slice becomes "[]".
func encodeCollection[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
