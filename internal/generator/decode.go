package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anubhav0108/timetable-ace-api/internal/models"
)

// DefaultReport replaces a missing report in an otherwise decodable answer.
const DefaultReport = "The AI model failed to generate a report, but the timetable (if any) is provided."

type rawTimetableResult struct {
	Timetable *[]models.TimetableEntry `json:"timetable"`
	Conflicts *[]models.Conflict       `json:"conflicts"`
	Report    *string                  `json:"report"`
}

// decodeTimetable parses provider text and fills in missing fields.
func decodeTimetable(text string) (*models.TimetableResult, error) {
	payload := extractJSON(text)
	if payload == "" {
		return nil, ErrNoOutput
	}

	var raw rawTimetableResult
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("decode timetable output: %w", err)
	}

	result := &models.TimetableResult{
		Timetable: []models.TimetableEntry{},
		Conflicts: []models.Conflict{},
		Report:    DefaultReport,
	}
	if raw.Timetable != nil && *raw.Timetable != nil {
		result.Timetable = *raw.Timetable
	}
	if raw.Conflicts != nil && *raw.Conflicts != nil {
		result.Conflicts = *raw.Conflicts
	}
	if raw.Report != nil && *raw.Report != "" {
		result.Report = *raw.Report
	}
	for i := range result.Conflicts {
		if result.Conflicts[i].Involved == nil {
			result.Conflicts[i].Involved = []string{}
		}
	}
	return result, nil
}

func decodeSuggestion(text string) (*FacultySuggestion, error) {
	payload := extractJSON(text)
	if payload == "" {
		return nil, ErrNoOutput
	}
	var out FacultySuggestion
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, fmt.Errorf("decode suggestion output: %w", err)
	}
	if strings.TrimSpace(out.FacultyName) == "" {
		return nil, fmt.Errorf("suggestion output has no facultyName")
	}
	return &out, nil
}

// extractJSON strips markdown fences and surrounding prose, returning the outermost object.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if text == "" || text == "null" {
		return ""
	}
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}
