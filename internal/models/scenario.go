package models

// StudentPopularity forecasts extra demand for an elective. Increase is a percentage.
type StudentPopularity struct {
	CourseID string  `json:"courseId"`
	Increase float64 `json:"increase" validate:"gte=0,lte=100"`
}

// FacultyWorkload forecasts a new weekly load. FacultyID carries the faculty name.
type FacultyWorkload struct {
	FacultyID   string  `json:"facultyId"`
	NewWorkload float64 `json:"newWorkload" validate:"gte=0"`
}

// Scenario is a what-if perturbation applied to a copy of the dataset before generation.
type Scenario struct {
	FacultyOnLeave    []string          `json:"facultyOnLeave"`
	UnavailableRooms  []string          `json:"unavailableRooms"`
	StudentPopularity StudentPopularity `json:"studentPopularity"`
	FacultyWorkload   FacultyWorkload   `json:"facultyWorkload"`
}

// Active reports whether any scenario field is set.
func (s Scenario) Active() bool {
	return len(s.FacultyOnLeave) > 0 ||
		len(s.UnavailableRooms) > 0 ||
		s.StudentPopularity.CourseID != "" ||
		s.FacultyWorkload.FacultyID != ""
}

// Normalize replaces nil id lists with empty ones.
func (s *Scenario) Normalize() {
	if s.FacultyOnLeave == nil {
		s.FacultyOnLeave = []string{}
	}
	if s.UnavailableRooms == nil {
		s.UnavailableRooms = []string{}
	}
}
