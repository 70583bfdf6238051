package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/anubhav0108/timetable-ace-api/internal/dto"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
	"github.com/anubhav0108/timetable-ace-api/pkg/export"
)

const (
	icsRecurrence   = "FREQ=WEEKLY;INTERVAL=1;COUNT=12"
	materialsFooter = "Timetable Ace University"
)

var dayIndex = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

var unsafeFilenameChars = regexp.MustCompile(`(?i)[^a-z0-9]`)

type gridRenderer interface {
	Render(grid export.Grid) ([]byte, error)
}

type calendarRenderer interface {
	Render(events []export.CalendarEvent) ([]byte, error)
}

type documentRenderer interface {
	RenderNotes(doc export.Document) ([]byte, error)
	RenderSlides(title, subtitle string, slides []export.Slide) ([]byte, error)
}

// ExportConfig tunes export rendering.
type ExportConfig struct {
	Location *time.Location
}

// ExportService renders timetables and lecture materials.
type ExportService struct {
	workspaces workspaceAccessor
	csv        gridRenderer
	xlsx       gridRenderer
	pdf        gridRenderer
	ics        calendarRenderer
	documents  documentRenderer
	materials  *MaterialRegistry
	metrics    *MetricsService
	validate   *validator.Validate
	logger     *zap.Logger
	cfg        ExportConfig
	now        func() time.Time
}

// NewExportService constructs an ExportService with the default renderers.
func NewExportService(workspaces workspaceAccessor, materials *MaterialRegistry, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if materials == nil {
		materials = NewMaterialRegistry()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &ExportService{
		workspaces: workspaces,
		csv:        export.NewCSVExporter(),
		xlsx:       export.NewXLSXExporter(),
		pdf:        export.NewPDFExporter(),
		ics:        export.NewICSExporter(),
		documents:  export.NewDocumentExporter(),
		materials:  materials,
		metrics:    metrics,
		validate:   validate,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Export renders the session timetable in a grid or calendar format.
func (s *ExportService) Export(ctx context.Context, sessionID string, format models.ExportFormat) (*dto.ExportFile, error) {
	if !format.Valid() || format == models.ExportFormatNotes || format == models.ExportFormatSlides {
		return nil, appErrors.ErrUnsupportedFormat
	}
	ws, err := s.workspaces.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	file, err := s.RenderTimetable(format, ws)
	s.metrics.RecordExport(string(format), "sync", err)
	return file, err
}

// Materials renders lecture notes or slides for one scheduled class.
func (s *ExportService) Materials(ctx context.Context, sessionID string, query dto.MaterialsQuery) (*dto.ExportFile, error) {
	if err := s.validate.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid materials query")
	}
	ws, err := s.workspaces.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	file, err := s.RenderMaterial(models.ExportFormat(query.Kind), ws, query.Day, query.Time)
	s.metrics.RecordExport(query.Kind, "sync", err)
	return file, err
}

// Render dispatches on format. Day and slot select the class for lecture materials.
func (s *ExportService) Render(format models.ExportFormat, ws *models.Workspace, day, slot string) (*dto.ExportFile, error) {
	switch format {
	case models.ExportFormatNotes, models.ExportFormatSlides:
		return s.RenderMaterial(format, ws, day, slot)
	default:
		return s.RenderTimetable(format, ws)
	}
}

// RenderTimetable renders the stored timetable. Calendar exports follow the edit working copy when one exists.
func (s *ExportService) RenderTimetable(format models.ExportFormat, ws *models.Workspace) (*dto.ExportFile, error) {
	if ws.Result == nil {
		return nil, appErrors.ErrNoTimetable
	}
	result := ws.Result

	var (
		body        []byte
		contentType string
		err         error
	)
	switch format {
	case models.ExportFormatCSV:
		body, err = s.csv.Render(BuildGrid(result.Timetable))
		contentType = export.ContentTypeCSV
	case models.ExportFormatXLSX:
		body, err = s.xlsx.Render(BuildGrid(result.Timetable))
		contentType = export.ContentTypeXLSX
	case models.ExportFormatPDF:
		grid := BuildGrid(result.Timetable)
		grid.Sections = resultSections(result)
		body, err = s.pdf.Render(grid)
		contentType = export.ContentTypePDF
	case models.ExportFormatICS:
		entries := result.Timetable
		if ws.Edit != nil {
			entries = ws.Edit.Working
		}
		body, err = s.ics.Render(BuildCalendarEvents(ws.SessionID, entries, s.now().In(s.cfg.Location)))
		contentType = export.ContentTypeICS
	default:
		return nil, appErrors.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &dto.ExportFile{
		Filename:    "timetable." + string(format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

// RenderMaterial renders notes or slides for the class at (day, slot).
func (s *ExportService) RenderMaterial(kind models.ExportFormat, ws *models.Workspace, day, slot string) (*dto.ExportFile, error) {
	if ws.Result == nil {
		return nil, appErrors.ErrNoTimetable
	}
	entry, ok := findEntry(ws.Result.Timetable, day, slot)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable cell not found")
	}

	tmpl := s.materials.Lookup(entry.Course, entry.CourseCode)
	date := s.now().In(s.cfg.Location).Format("01/02/2006")
	safe := SafeTitle(entry.Course)

	var (
		body     []byte
		filename string
		err      error
	)
	switch kind {
	case models.ExportFormatNotes:
		body, err = s.documents.RenderNotes(export.Document{
			Title:    entry.Course,
			Subtitle: fmt.Sprintf("Faculty: %s | Date: %s", entry.Faculty, date),
			Footer:   entry.Course,
			Sections: tmpl.Notes,
		})
		filename = safe + "_notes.pdf"
	case models.ExportFormatSlides:
		body, err = s.documents.RenderSlides(entry.Course,
			fmt.Sprintf("Faculty: %s | %s | %s", entry.Faculty, date, materialsFooter), tmpl.Slides)
		filename = safe + "_slides.pdf"
	default:
		return nil, appErrors.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render lecture material")
	}
	return &dto.ExportFile{Filename: filename, ContentType: export.ContentTypePDF, Body: body}, nil
}

// GridDays returns Monday to Friday, plus Saturday when any entry falls on it.
func GridDays(entries []models.TimetableEntry) []string {
	days := append([]string(nil), models.Weekdays...)
	for _, e := range entries {
		if e.Day == "Saturday" {
			return append(days, "Saturday")
		}
	}
	return days
}

// BuildGrid lays the timetable out as time slots by days.
func BuildGrid(entries []models.TimetableEntry) export.Grid {
	days := GridDays(entries)
	grid := export.Grid{
		Title:   "Timetable",
		Headers: append([]string{"Time"}, days...),
		Rows:    make([][]string, 0, len(models.TimeSlots)),
	}
	for _, slot := range models.TimeSlots {
		row := make([]string, 0, len(days)+1)
		row = append(row, slot.Label)
		for _, day := range days {
			cell := ""
			if e, ok := findEntry(entries, day, slot.Label); ok {
				cell = fmt.Sprintf("%s (%s)\n%s\nRoom: %s", e.Course, e.CourseCode, e.Faculty, e.Room)
			}
			row = append(row, cell)
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid
}

// BuildCalendarEvents creates one weekly event per entry, first occurring on the next
// matching weekday counted from now (today included). UIDs embed the session and the
// entry index since (day, time) pairs may repeat.
func BuildCalendarEvents(sessionID string, entries []models.TimetableEntry, now time.Time) []export.CalendarEvent {
	events := make([]export.CalendarEvent, 0, len(entries))
	for i, e := range entries {
		weekday, ok := dayIndex[e.Day]
		if !ok {
			continue
		}
		hour, ok := slotStartHour(e.Time)
		if !ok {
			continue
		}
		offset := (int(weekday) - int(now.Weekday()) + 7) % 7
		date := now.AddDate(0, 0, offset)
		start := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, now.Location())
		events = append(events, export.CalendarEvent{
			UID:         fmt.Sprintf("%s-%d-%s-%d@timetable-ace", sessionID, i, strings.ToLower(e.Day), hour),
			Summary:     fmt.Sprintf("%s (%s)", e.Course, e.CourseCode),
			Description: fmt.Sprintf("Faculty: %s\nRoom: %s", e.Faculty, e.Room),
			Location:    e.Room,
			Start:       start,
			End:         start.Add(time.Hour),
			RRule:       icsRecurrence,
		})
	}
	return events
}

// slotStartHour resolves the 24-hour start of a slot label. Labels outside the slot
// table use their leading hour, with 01:00 to 07:00 read as afternoon.
func slotStartHour(label string) (int, bool) {
	if slot, ok := models.SlotByLabel(label); ok {
		return slot.StartHour, true
	}
	head := strings.TrimSpace(strings.SplitN(label, "-", 2)[0])
	hour, err := strconv.Atoi(strings.SplitN(head, ":", 2)[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	if hour >= 1 && hour < 8 {
		hour += 12
	}
	return hour, true
}

// SafeTitle lowercases a course name and replaces anything but letters and digits with '_'.
func SafeTitle(course string) string {
	return strings.ToLower(unsafeFilenameChars.ReplaceAllString(course, "_"))
}

func resultSections(result *models.TimetableResult) []export.Section {
	sections := make([]export.Section, 0, 2)
	if len(result.Conflicts) > 0 {
		lines := make([]string, 0, len(result.Conflicts))
		for _, c := range result.Conflicts {
			line := fmt.Sprintf("[%s] %s", c.Type, c.Description)
			if len(c.Involved) > 0 {
				line += " (" + strings.Join(c.Involved, ", ") + ")"
			}
			lines = append(lines, line)
		}
		sections = append(sections, export.Section{Heading: "Conflicts", Lines: lines})
	}
	if result.Report != "" {
		sections = append(sections, export.Section{Heading: "Report", Lines: strings.Split(result.Report, "\n")})
	}
	return sections
}
