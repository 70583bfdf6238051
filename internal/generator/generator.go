// Package generator talks to the external LLM services that produce timetables
// and faculty suggestions.
//
// Gemini is reached through google.golang.org/genai; any OpenAI-compatible
// endpoint through github.com/openai/openai-go/v3. Providers are tried in the
// configured order until one returns a decodable answer.
package generator

import (
	"context"
	"errors"
	"time"

	"github.com/anubhav0108/timetable-ace-api/internal/models"
)

// Provider names an LLM backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// ErrNoOutput is returned when a provider answers with nothing usable.
var ErrNoOutput = errors.New("AI model returned no output.")

// GenerationRequest is the payload sent to the timetable generator. Data fields are JSON text.
type GenerationRequest struct {
	StudentData       string   `json:"studentData"`
	FacultyData       string   `json:"facultyData"`
	CourseData        string   `json:"courseData"`
	RoomData          string   `json:"roomData"`
	Constraints       string   `json:"constraints"`
	Programs          []string `json:"programs"`
	Days              []string `json:"days"`
	ExistingTimetable *string  `json:"existingTimetable,omitempty"`
}

// SuggestFacultyRequest asks for the best faculty member for a course. Fields are JSON text.
type SuggestFacultyRequest struct {
	Course      string `json:"course"`
	FacultyData string `json:"facultyData"`
	Timetable   string `json:"timetable"`
}

// FacultySuggestion is the suggester's answer.
type FacultySuggestion struct {
	FacultyName   string `json:"facultyName"`
	Justification string `json:"justification"`
}

// TimetableGenerator produces a timetable for a request.
type TimetableGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (*models.TimetableResult, error)
}

// FacultySuggester proposes a faculty member for a timetable cell.
type FacultySuggester interface {
	SuggestFaculty(ctx context.Context, req SuggestFacultyRequest) (*FacultySuggestion, error)
}

// Schema selects the structured output shape a completion must follow.
type Schema int

const (
	SchemaTimetable Schema = iota
	SchemaSuggestion
)

// Completion is a single prompt sent to a provider.
type Completion struct {
	System string
	User   string
	Schema Schema
}

// Completer is a provider that turns a prompt into raw JSON text.
type Completer interface {
	Provider() Provider
	Complete(ctx context.Context, c Completion) (string, error)
}

// Observer receives one call per provider attempt.
type Observer interface {
	ObserveCompletion(provider string, operation string, err error, duration time.Duration)
}
