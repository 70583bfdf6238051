package dto

import (
	"time"

	"github.com/anubhav0108/timetable-ace-api/internal/models"
)

// ExportJobRequest queues an asynchronous export. Day and Time select the
// cell for lecture materials.
type ExportJobRequest struct {
	Format models.ExportFormat `json:"format" validate:"required,oneof=pdf xlsx csv ics notes slides"`
	Day    string              `json:"day,omitempty" validate:"required_if=Format notes,required_if=Format slides"`
	Time   string              `json:"time,omitempty" validate:"required_if=Format notes,required_if=Format slides"`
}

// MaterialsQuery selects the cell and the kind of lecture material.
type MaterialsQuery struct {
	Day  string `form:"day" validate:"required"`
	Time string `form:"time" validate:"required"`
	Kind string `form:"kind" validate:"required,oneof=notes slides"`
}

// ExportJobResponse exposes async export progress.
type ExportJobResponse struct {
	ID         string              `json:"id"`
	Format     models.ExportFormat `json:"format"`
	Status     models.ExportStatus `json:"status"`
	ResultURL  *string             `json:"resultUrl,omitempty"`
	Error      *string             `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
	FinishedAt *time.Time          `json:"finishedAt,omitempty"`
}

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
