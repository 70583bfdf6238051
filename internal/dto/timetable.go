package dto

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/anubhav0108/timetable-ace-api/internal/models"
)

// GenerateTimetableRequest selects the programs and days to schedule.
type GenerateTimetableRequest struct {
	Programs []string `json:"programs" validate:"dive,required"`
	Days     []string `json:"days" validate:"dive,oneof=Monday Tuesday Wednesday Thursday Friday Saturday"`
}

var dayCaser = cases.Title(language.English)

// Normalize title-cases day names and drops blanks and duplicates.
func (r *GenerateTimetableRequest) Normalize() {
	r.Days = normaliseList(r.Days, func(s string) string { return dayCaser.String(strings.ToLower(s)) })
	r.Programs = normaliseList(r.Programs, func(s string) string { return s })
}

func normaliseList(in []string, transform func(string) string) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		v = transform(v)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// GenerateTimetableResponse mirrors the classified generation outcome.
type GenerateTimetableResponse struct {
	Success   bool                    `json:"success"`
	Data      *models.TimetableResult `json:"data,omitempty"`
	Error     string                  `json:"error,omitempty"`
	Message   string                  `json:"message,omitempty"`
	Simulated bool                    `json:"simulated"`
	RunID     string                  `json:"runId,omitempty"`
}

// TimetableResponse is the stored result plus the grid layout.
type TimetableResponse struct {
	Result    *models.TimetableResult `json:"result"`
	Days      []string                `json:"days"`
	TimeSlots []models.TimeSlot       `json:"timeSlots"`
}

// GenerationRunQuery pages generation history.
type GenerationRunQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
}
