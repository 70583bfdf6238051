package dto

// AuditLogQuery filters the audit trail listing.
type AuditLogQuery struct {
	SessionID string `form:"sessionId"`
	Action    string `form:"action" validate:"omitempty,oneof=LOGIN LOGOUT TIMETABLE_GENERATE TIMETABLE_UPDATE ATTENDANCE_MARKED"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
}
