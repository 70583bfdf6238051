package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringArray persists a string list as a JSON column.
type StringArray []string

// Value marshals the list to JSON for persistence.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		a = StringArray{}
	}
	data, err := json.Marshal([]string(a))
	if err != nil {
		return nil, fmt.Errorf("marshal string array: %w", err)
	}
	return string(data), nil
}

// Scan unmarshals a JSON column.
func (a *StringArray) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*a = StringArray{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringArray", value)
	}
	if len(data) == 0 {
		*a = StringArray{}
		return nil
	}
	return json.Unmarshal(data, (*[]string)(a))
}

// GenerationRun records one generation attempt.
type GenerationRun struct {
	ID            string      `db:"id" json:"id"`
	SessionID     string      `db:"session_id" json:"sessionId"`
	Programs      StringArray `db:"programs" json:"programs"`
	Days          StringArray `db:"days" json:"days"`
	Provider      string      `db:"provider" json:"provider"`
	Success       bool        `db:"success" json:"success"`
	Error         *string     `db:"error" json:"error,omitempty"`
	EntryCount    int         `db:"entry_count" json:"entryCount"`
	ConflictCount int         `db:"conflict_count" json:"conflictCount"`
	Report        string      `db:"report" json:"report"`
	Simulated     bool        `db:"simulated" json:"simulated"`
	DurationMS    int64       `db:"duration_ms" json:"durationMs"`
	CreatedAt     time.Time   `db:"created_at" json:"createdAt"`
}
