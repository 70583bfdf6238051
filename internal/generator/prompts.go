package generator

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

const generationSystemPrompt = `You are a master scheduler AI. Your task is to generate a conflict-free, weekly academic timetable and then immediately write a detailed analysis report on the schedule you just created. Your response MUST be a single, valid JSON object containing "timetable", "conflicts" and "report" keys.`

var generationTemplate = template.Must(template.New("generation").Funcs(template.FuncMap{
	"list": jsonList,
}).Parse(`You will be given the following data as JSON strings:
- Student Data: {{.StudentData}}
- Faculty Data: {{.FacultyData}}
- ALL Course Data: {{.CourseData}}
- Room Data: {{.RoomData}}
- Scheduling Constraints: {{.Constraints}}
- Programs to Schedule For (optional): {{list .Programs}}
- Days to Schedule For (optional): {{list .Days}}
- Existing Timetable (optional, for modification): {{if .ExistingTimetable}}{{.ExistingTimetable}}{{end}}

The timetable runs for 7 time slots per day: {{.Slots}}.
The default days are Monday to Friday (5 days). If the 'days' array is provided, only schedule classes on those specific days.

The timetable is a grid: rows are the time slots, columns are the selected days, and each cell holds the course for that day and slot.

Scheduling rules:
- Every time slot except the lunch break must have a class. The lunch break ({{.Lunch}}) stays empty.
- Use DIFFERENT courses across the timetable and distribute them evenly across days and slots. Repeat courses only if needed to fill slots.
- Only generate entries for the days listed in 'days'.

Step 1: Generate the Timetable
1. Filter Courses by Program: if 'programs' is non-empty (e.g. ["B.Ed.", "FYUP"]), schedule ONLY the courses of those programs. If it is empty, schedule ALL courses from the course data.
2. Modify, Don't Erase: if an existing timetable is provided, treat it as the source of truth. ADD the new courses to it and do not remove or alter existing entries unless it is absolutely necessary to resolve a high-priority conflict for a course you are newly adding.
3. No Double Bookings (highest priority): a faculty member, a student group (by enrolled courses) or a room cannot be in two places at once.
4. Constraint Adherence: enforce faculty availability, room capacity, course requirements (e.g. labs) and program-specific time blocks such as internships or teaching practice. Use "currentDate" in the constraints to resolve date ranges.
5. Dense Schedule: fill as many slots as possible for the requested courses and days. An empty timetable is a failure unless no courses were requested.
6. Conflict Logging: if a conflict is unavoidable, schedule one class and log the other in the "conflicts" array instead of leaving the slot empty.

Step 2: Generate the Analysis Report
Write a detailed report in the "report" field covering: a summary of changes, constraint adherence for newly added classes, faculty workload (hours assigned vs expected), room utilization percentage with peak and off-peak hours, and actionable recommendations.

Fallback Protocol:
If none of the requested courses can be scheduled because of a fundamental contradiction, return the existing timetable unmodified (if provided), otherwise leave "timetable" empty, and explain the exact reason in "report". Do not error out.

Output format:
Each timetable entry has exactly: day (Monday-Saturday), time (one of the 7 slot labels), course, courseCode, faculty, room.
Each conflict has: type, description, involved (array of identifiers).
`))

const suggestionSystemPrompt = `You are an expert academic scheduling assistant. Recommend the single best faculty member to teach a course and explain why. Respond with a JSON object with exactly two keys: "facultyName" and "justification".`

var suggestionTemplate = template.Must(template.New("suggestion").Parse(`Course: {{.Course}}
Faculty: {{.FacultyData}}
Current timetable: {{.Timetable}}

Pick the faculty member whose expertise and department best match the course, who has spare capacity against their workload, and who is not already teaching in the same slots. "facultyName" must be a name taken from the faculty list.
`))

type generationPromptData struct {
	GenerationRequest
	Slots string
	Lunch string
}

func renderGenerationPrompt(req GenerationRequest, slots []string, lunch string) (string, error) {
	quoted := make([]string, len(slots))
	for i, s := range slots {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	var buf bytes.Buffer
	err := generationTemplate.Execute(&buf, generationPromptData{
		GenerationRequest: req,
		Slots:             strings.Join(quoted, ", "),
		Lunch:             lunch,
	})
	if err != nil {
		return "", fmt.Errorf("render generation prompt: %w", err)
	}
	return buf.String(), nil
}

func renderSuggestionPrompt(req SuggestFacultyRequest) (string, error) {
	var buf bytes.Buffer
	if err := suggestionTemplate.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("render suggestion prompt: %w", err)
	}
	return buf.String(), nil
}

func jsonList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return "[" + strings.Join(quoted, ",") + "]"
}
