package models

import (
	"encoding/json"
	"strings"
)

// StringList is a list column. It encodes as a JSON array (never null) and as a
// semicolon separated CSV cell.
type StringList []string

// MarshalJSON keeps empty lists as [] so downstream consumers always see an array.
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// UnmarshalCSV splits a cell on ';'.
func (l *StringList) UnmarshalCSV(raw string) error {
	out := StringList{}
	for _, part := range strings.Split(raw, ";") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	*l = out
	return nil
}

// MarshalCSV joins the list with ';'.
func (l StringList) MarshalCSV() (string, error) {
	return strings.Join(l, ";"), nil
}

// Contains reports whether v is in the list.
func (l StringList) Contains(v string) bool {
	for _, item := range l {
		if item == v {
			return true
		}
	}
	return false
}

// Student is an enrolled learner and their ordered elective preferences.
type Student struct {
	ID              string     `json:"id" csv:"id" validate:"required"`
	Name            string     `json:"name,omitempty" csv:"name"`
	Program         string     `json:"program,omitempty" csv:"program"`
	ElectiveChoices StringList `json:"electiveChoices" csv:"electiveChoices"`
}

// Faculty is a teaching staff member. Name doubles as the workload forecast key.
type Faculty struct {
	ID         string     `json:"id" csv:"id" validate:"required"`
	Name       string     `json:"name" csv:"name" validate:"required"`
	Department string     `json:"department,omitempty" csv:"department"`
	Workload   float64    `json:"workload" csv:"workload" validate:"gte=0"`
	Expertise  StringList `json:"expertise,omitempty" csv:"expertise"`
}

// Course is an offering that can be placed in the timetable.
type Course struct {
	ID      string  `json:"id" csv:"id" validate:"required"`
	Code    string  `json:"code" csv:"code" validate:"required"`
	Name    string  `json:"name" csv:"name" validate:"required"`
	Program string  `json:"program,omitempty" csv:"program"`
	Credits float64 `json:"credits,omitempty" csv:"credits"`
	Type    string  `json:"type,omitempty" csv:"type"`
}

// Room is a teaching space.
type Room struct {
	ID       string `json:"id" csv:"id" validate:"required"`
	Name     string `json:"name" csv:"name" validate:"required"`
	Capacity int    `json:"capacity,omitempty" csv:"capacity"`
	Type     string `json:"type,omitempty" csv:"type"`
}

// Dataset is the canonical institutional data of a workspace.
type Dataset struct {
	Students []Student `json:"students" validate:"dive"`
	Faculty  []Faculty `json:"faculty" validate:"dive"`
	Courses  []Course  `json:"courses" validate:"dive"`
	Rooms    []Room    `json:"rooms" validate:"dive"`
}

// DatasetKind names one collection of a Dataset.
type DatasetKind string

const (
	DatasetStudents DatasetKind = "students"
	DatasetFaculty  DatasetKind = "faculty"
	DatasetCourses  DatasetKind = "courses"
	DatasetRooms    DatasetKind = "rooms"
)

// Valid reports whether k is a known collection.
func (k DatasetKind) Valid() bool {
	switch k {
	case DatasetStudents, DatasetFaculty, DatasetCourses, DatasetRooms:
		return true
	}
	return false
}

// Normalize replaces nil collections with empty ones.
func (d *Dataset) Normalize() {
	if d.Students == nil {
		d.Students = []Student{}
	}
	if d.Faculty == nil {
		d.Faculty = []Faculty{}
	}
	if d.Courses == nil {
		d.Courses = []Course{}
	}
	if d.Rooms == nil {
		d.Rooms = []Room{}
	}
}

// DatasetSummary counts each collection.
type DatasetSummary struct {
	Students int `json:"students"`
	Faculty  int `json:"faculty"`
	Courses  int `json:"courses"`
	Rooms    int `json:"rooms"`
}

// Summary returns the collection sizes.
func (d Dataset) Summary() DatasetSummary {
	return DatasetSummary{
		Students: len(d.Students),
		Faculty:  len(d.Faculty),
		Courses:  len(d.Courses),
		Rooms:    len(d.Rooms),
	}
}

// FindCourseByID returns the course with the given id.
func (d Dataset) FindCourseByID(id string) (Course, bool) {
	for _, c := range d.Courses {
		if c.ID == id {
			return c, true
		}
	}
	return Course{}, false
}

// FindCourseByName returns the first course whose name matches exactly.
func (d Dataset) FindCourseByName(name string) (Course, bool) {
	for _, c := range d.Courses {
		if c.Name == name {
			return c, true
		}
	}
	return Course{}, false
}
