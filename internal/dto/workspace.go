package dto

import (
	"time"

	"github.com/anubhav0108/timetable-ace-api/internal/models"
)

// ScenarioResponse wraps a scenario with its display summary.
type ScenarioResponse struct {
	Scenario    models.Scenario `json:"scenario"`
	Active      bool            `json:"active"`
	Description string          `json:"description"`
}

// ConstraintsResponse wraps constraints with the program block summary.
type ConstraintsResponse struct {
	Constraints   models.Constraints `json:"constraints"`
	ProgramActive bool               `json:"programConstraintActive"`
	Description   string             `json:"description"`
}

// WorkspaceResponse is the dashboard view of a session.
type WorkspaceResponse struct {
	Session           models.Session        `json:"session"`
	Dataset           models.Dataset        `json:"dataset"`
	Summary           models.DatasetSummary `json:"summary"`
	AvailablePrograms []string              `json:"availablePrograms"`
	Scenario          ScenarioResponse      `json:"scenario"`
	Constraints       ConstraintsResponse   `json:"constraints"`
	HasTimetable      bool                  `json:"hasTimetable"`
	EditActive        bool                  `json:"editActive"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

// DatasetImportResponse reports a CSV import.
type DatasetImportResponse struct {
	Kind     models.DatasetKind    `json:"kind"`
	Imported int                   `json:"imported"`
	Summary  models.DatasetSummary `json:"summary"`
}
