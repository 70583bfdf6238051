package models

import "time"

// ExportFormat enumerates the renderable outputs.
type ExportFormat string

const (
	ExportFormatPDF    ExportFormat = "pdf"
	ExportFormatXLSX   ExportFormat = "xlsx"
	ExportFormatCSV    ExportFormat = "csv"
	ExportFormatICS    ExportFormat = "ics"
	ExportFormatNotes  ExportFormat = "notes"
	ExportFormatSlides ExportFormat = "slides"
)

// Valid reports whether f is a known format.
func (f ExportFormat) Valid() bool {
	switch f {
	case ExportFormatPDF, ExportFormatXLSX, ExportFormatCSV, ExportFormatICS, ExportFormatNotes, ExportFormatSlides:
		return true
	}
	return false
}

// ExportStatus captures background job lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob is persisted metadata for an asynchronous export.
type ExportJob struct {
	ID           string       `db:"id" json:"id"`
	SessionID    string       `db:"session_id" json:"sessionId"`
	Format       ExportFormat `db:"format" json:"format"`
	Course       *string      `db:"course" json:"course,omitempty"`
	Status       ExportStatus `db:"status" json:"status"`
	ObjectKey    *string      `db:"object_key" json:"-"`
	ResultURL    *string      `db:"result_url" json:"resultUrl,omitempty"`
	ErrorMessage *string      `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	FinishedAt   *time.Time   `db:"finished_at" json:"finishedAt,omitempty"`
}
