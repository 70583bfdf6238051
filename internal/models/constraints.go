package models

import (
	"encoding/json"
	"fmt"
)

// TeachingPractice blocks a weekday for a program.
type TeachingPractice struct {
	Program   string `json:"program"`
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// FieldWork blocks a date range for a program.
type FieldWork struct {
	Program      string `json:"program"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	ActivityType string `json:"activityType"`
}

// ProgramSpecific groups the program level blocks the service understands.
type ProgramSpecific struct {
	TeachingPractice TeachingPractice `json:"teachingPractice"`
	FieldWork        FieldWork        `json:"fieldWork"`
}

// Constraints is an opaque JSON object forwarded to the generator untouched.
type Constraints struct {
	raw map[string]json.RawMessage
}

// NewConstraints parses a JSON object. Empty input yields an empty object.
func NewConstraints(data []byte) (Constraints, error) {
	c := Constraints{raw: map[string]json.RawMessage{}}
	if len(data) == 0 || string(data) == "null" {
		return c, nil
	}
	if err := json.Unmarshal(data, &c.raw); err != nil {
		return Constraints{}, fmt.Errorf("constraints must be a JSON object: %w", err)
	}
	if c.raw == nil {
		c.raw = map[string]json.RawMessage{}
	}
	return c, nil
}

// MarshalJSON writes the object back unchanged.
func (c Constraints) MarshalJSON() ([]byte, error) {
	if c.raw == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.raw)
}

// UnmarshalJSON accepts any JSON object.
func (c *Constraints) UnmarshalJSON(data []byte) error {
	parsed, err := NewConstraints(data)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ProgramSpecific decodes the programSpecific block. Missing or malformed blocks are zero valued.
func (c Constraints) ProgramSpecific() ProgramSpecific {
	var ps ProgramSpecific
	if raw, ok := c.raw["programSpecific"]; ok {
		_ = json.Unmarshal(raw, &ps)
	}
	return ps
}

// With returns a copy with key set to value, leaving c untouched.
func (c Constraints) With(key string, value interface{}) (Constraints, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return Constraints{}, fmt.Errorf("encode constraint %s: %w", key, err)
	}
	out := Constraints{raw: make(map[string]json.RawMessage, len(c.raw)+1)}
	for k, v := range c.raw {
		out.raw[k] = v
	}
	out.raw[key] = encoded
	return out, nil
}

// Len returns the number of top level keys.
func (c Constraints) Len() int {
	return len(c.raw)
}
