package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// CalendarEvent is one recurring calendar entry.
type CalendarEvent struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	// RRule is the recurrence rule value without the "RRULE:" prefix.
	RRule string
}

// ICSExporter renders events as an iCalendar document.
type ICSExporter struct {
	ProductID string
	now       func() time.Time
}

// NewICSExporter builds an exporter with the service product id.
func NewICSExporter() *ICSExporter {
	return &ICSExporter{ProductID: "-//Timetable Ace//Timetable Export//EN", now: time.Now}
}

// Render serialises events into a VCALENDAR.
func (e *ICSExporter) Render(events []CalendarEvent) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.ProductID)

	stamp := e.now().UTC()
	for i, ev := range events {
		if !ev.End.After(ev.Start) {
			return nil, fmt.Errorf("event %d ends before it starts", i)
		}
		uid := ev.UID
		if uid == "" {
			uid = fmt.Sprintf("event-%d@timetable-ace", i)
		}
		event := cal.AddEvent(uid)
		event.SetDtStampTime(stamp)
		event.SetStartAt(ev.Start)
		event.SetEndAt(ev.End)
		event.SetSummary(ev.Summary)
		if ev.Description != "" {
			event.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			event.SetLocation(ev.Location)
		}
		if ev.RRule != "" {
			event.AddProperty(ics.ComponentPropertyRrule, ev.RRule)
		}
	}

	return []byte(cal.Serialize()), nil
}
