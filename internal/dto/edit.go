package dto

import (
	"time"

	"github.com/anubhav0108/timetable-ace-api/internal/models"
)

// Editable timetable fields.
const (
	EditFieldCourse  = "course"
	EditFieldFaculty = "faculty"
	EditFieldRoom    = "room"
)

// CellRequest addresses a timetable cell by its positional key.
type CellRequest struct {
	Day  string `json:"day" validate:"required"`
	Time string `json:"time" validate:"required"`
}

// UpdateEntryRequest changes one field of a working-copy cell.
type UpdateEntryRequest struct {
	Day   string `json:"day" validate:"required"`
	Time  string `json:"time" validate:"required"`
	Field string `json:"field" validate:"required,oneof=course faculty room"`
	Value string `json:"value"`
}

// EditSessionResponse exposes the manual override state.
type EditSessionResponse struct {
	Active      bool                         `json:"active"`
	Original    []models.TimetableEntry      `json:"original"`
	Working     []models.TimetableEntry      `json:"working"`
	Suggestions map[string]models.Suggestion `json:"suggestions"`
	StartedAt   *time.Time                   `json:"startedAt,omitempty"`
}

// SuggestionResponse is the suggestion stored for one cell.
type SuggestionResponse struct {
	Key        string            `json:"key"`
	Suggestion models.Suggestion `json:"suggestion"`
	Message    string            `json:"message"`
}

// SaveEditResponse reports the changes committed by a save.
type SaveEditResponse struct {
	Changes  []string                `json:"changes"`
	AuditLog *models.AuditLog        `json:"auditLog,omitempty"`
	Result   *models.TimetableResult `json:"result"`
	Message  string                  `json:"message"`
}

// AttendanceResponse echoes the recorded attendance entry.
type AttendanceResponse struct {
	AuditLog models.AuditLog `json:"auditLog"`
	Message  string          `json:"message"`
}
