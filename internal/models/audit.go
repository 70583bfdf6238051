package models

import "time"

// Audit actions recorded by the service.
const (
	AuditActionLogin             = "LOGIN"
	AuditActionLogout            = "LOGOUT"
	AuditActionTimetableGenerate = "TIMETABLE_GENERATE"
	AuditActionTimetableUpdate   = "TIMETABLE_UPDATE"
	AuditActionAttendanceMarked  = "ATTENDANCE_MARKED"
)

// AuditLog is one append-only audit trail record.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"sessionId"`
	Actor     string    `db:"actor" json:"user"`
	Role      UserRole  `db:"role" json:"role"`
	Action    string    `db:"action" json:"action"`
	Details   string    `db:"details" json:"details"`
	CreatedAt time.Time `db:"created_at" json:"timestamp"`
}

// AuditLogFilter narrows audit log listings.
type AuditLogFilter struct {
	SessionID string
	Action    string
	Page      int
	PageSize  int
}
