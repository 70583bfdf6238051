package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListEncodesEmptyAsArray(t *testing.T) {
	out, err := json.Marshal(Student{ID: "s1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"s1","electiveChoices":[]}`, string(out))
}

func TestStringListCSV(t *testing.T) {
	var l StringList
	require.NoError(t, l.UnmarshalCSV("CS101; CS102;;"))
	assert.Equal(t, StringList{"CS101", "CS102"}, l)

	cell, err := l.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "CS101;CS102", cell)
}

func TestConstraintsPassThrough(t *testing.T) {
	raw := `{"maxHoursPerDay":6,"programSpecific":{"teachingPractice":{"program":"B.Ed.","day":"Friday","startTime":"09:00","endTime":"13:00"}},"labs":["L1"]}`
	c, err := NewConstraints([]byte(raw))
	require.NoError(t, err)

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))

	ps := c.ProgramSpecific()
	assert.Equal(t, "B.Ed.", ps.TeachingPractice.Program)
	assert.Equal(t, "Friday", ps.TeachingPractice.Day)

	withDate, err := c.With("currentDate", "2025-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 4, withDate.Len())
}

func TestConstraintsRejectsNonObject(t *testing.T) {
	_, err := NewConstraints([]byte(`[1,2]`))
	assert.Error(t, err)

	empty, err := NewConstraints(nil)
	require.NoError(t, err)
	out, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestScenarioActive(t *testing.T) {
	assert.False(t, Scenario{}.Active())
	assert.True(t, Scenario{FacultyOnLeave: []string{"f1"}}.Active())
	assert.True(t, Scenario{FacultyWorkload: FacultyWorkload{FacultyID: "Dr. A Rao"}}.Active())
	assert.True(t, Scenario{StudentPopularity: StudentPopularity{CourseID: "c1"}}.Active())
}

func TestTimetableResultCloneIsDeep(t *testing.T) {
	orig := &TimetableResult{
		Timetable: []TimetableEntry{{Day: "Monday", Time: "09:00 - 10:00", Faculty: "A"}},
		Conflicts: []Conflict{{Type: "room", Involved: []string{"R1"}}},
	}
	clone := orig.Clone()
	clone.Timetable[0].Faculty = "B"
	clone.Conflicts[0].Involved[0] = "R2"

	assert.Equal(t, "A", orig.Timetable[0].Faculty)
	assert.Equal(t, "R1", orig.Conflicts[0].Involved[0])
	assert.Nil(t, (*TimetableResult)(nil).Clone())
}

func TestStringArrayScan(t *testing.T) {
	var a StringArray
	require.NoError(t, a.Scan([]byte(`["Monday","Friday"]`)))
	assert.Equal(t, StringArray{"Monday", "Friday"}, a)

	v, err := StringArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}
