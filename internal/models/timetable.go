package models

// TimetableEntry is one scheduled class. (Day, Time) is its positional key.
type TimetableEntry struct {
	Day        string `json:"day"`
	Time       string `json:"time"`
	Course     string `json:"course"`
	CourseCode string `json:"courseCode"`
	Faculty    string `json:"faculty"`
	Room       string `json:"room"`
}

// Conflict is a scheduling clash reported by the generator.
type Conflict struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Involved    []string `json:"involved"`
}

// TimetableResult is the generator's answer as stored in a workspace.
type TimetableResult struct {
	Timetable []TimetableEntry `json:"timetable"`
	Conflicts []Conflict       `json:"conflicts"`
	Report    string           `json:"report"`
}

// Clone returns a deep copy.
func (r *TimetableResult) Clone() *TimetableResult {
	if r == nil {
		return nil
	}
	out := &TimetableResult{
		Timetable: CloneEntries(r.Timetable),
		Conflicts: make([]Conflict, len(r.Conflicts)),
		Report:    r.Report,
	}
	for i, c := range r.Conflicts {
		c.Involved = append([]string(nil), c.Involved...)
		out.Conflicts[i] = c
	}
	return out
}

// CloneEntries copies a timetable; a nil input yields an empty slice.
func CloneEntries(entries []TimetableEntry) []TimetableEntry {
	out := make([]TimetableEntry, len(entries))
	copy(out, entries)
	return out
}

// Weekdays is the default scheduling week.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// TimeSlot is one row of the timetable grid.
type TimeSlot struct {
	Label     string `json:"label"`
	StartHour int    `json:"startHour"`
	Lunch     bool   `json:"lunch"`
}

// TimeSlots lists the seven daily slots. Afternoon labels use 12-hour clock text.
var TimeSlots = []TimeSlot{
	{Label: "09:00 - 10:00", StartHour: 9},
	{Label: "10:00 - 11:00", StartHour: 10},
	{Label: "11:00 - 12:00", StartHour: 11},
	{Label: "12:00 - 01:00 (Lunch Break)", StartHour: 12, Lunch: true},
	{Label: "02:00 - 03:00", StartHour: 14},
	{Label: "03:00 - 04:00", StartHour: 15},
	{Label: "04:00 - 05:00", StartHour: 16},
}

// SlotByLabel finds a slot by its label.
func SlotByLabel(label string) (TimeSlot, bool) {
	for _, s := range TimeSlots {
		if s.Label == label {
			return s, true
		}
	}
	return TimeSlot{}, false
}
