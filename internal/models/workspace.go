package models

import "time"

// Suggestion is a suggester answer stored against a grid cell.
type Suggestion struct {
	FacultyName   string `json:"facultyName"`
	Justification string `json:"justification"`
	Error         string `json:"error,omitempty"`
}

// EditSession holds the manual override state of a workspace.
type EditSession struct {
	Original    []TimetableEntry      `json:"original"`
	Working     []TimetableEntry      `json:"working"`
	Suggestions map[string]Suggestion `json:"suggestions"`
	StartedAt   time.Time             `json:"startedAt"`
}

// SuggestionKey builds the per-cell key used in EditSession.Suggestions.
func SuggestionKey(day, time string) string {
	return day + "-" + time
}

// Workspace is the per-session state: data, scenario, constraints and the latest result.
type Workspace struct {
	SessionID   string           `json:"sessionId"`
	Session     Session          `json:"session"`
	Dataset     Dataset          `json:"dataset"`
	Scenario    Scenario         `json:"scenario"`
	Constraints Constraints      `json:"constraints"`
	Result      *TimetableResult `json:"result,omitempty"`
	Edit        *EditSession     `json:"edit,omitempty"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}
