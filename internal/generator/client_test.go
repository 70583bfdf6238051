package generator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anubhav0108/timetable-ace-api/pkg/config"
)

type stubCompleter struct {
	provider Provider
	text     string
	err      error
	calls    int
	last     Completion
}

func (s *stubCompleter) Provider() Provider { return s.provider }

func (s *stubCompleter) Complete(_ context.Context, c Completion) (string, error) {
	s.calls++
	s.last = c
	return s.text, s.err
}

type recordingObserver struct {
	providers []string
	failures  int
}

func (r *recordingObserver) ObserveCompletion(provider, _ string, err error, _ time.Duration) {
	r.providers = append(r.providers, provider)
	if err != nil {
		r.failures++
	}
}

func fixedClient(completers ...Completer) *Client {
	c := NewClient(completers, nil, nil)
	c.now = func() time.Time { return time.Date(2025, 1, 6, 8, 30, 0, 0, time.UTC) }
	return c
}

func TestGenerateCoercesMissingFields(t *testing.T) {
	stub := &stubCompleter{provider: ProviderGemini, text: `{"timetable":[{"day":"Monday","time":"09:00 - 10:00","course":"Algorithms","courseCode":"CS101","faculty":"Dr. A Rao","room":"R1"}]}`}
	client := fixedClient(stub)

	result, err := client.Generate(context.Background(), GenerationRequest{Constraints: `{}`, Programs: []string{}, Days: []string{"Monday"}})
	require.NoError(t, err)
	assert.Len(t, result.Timetable, 1)
	assert.NotNil(t, result.Conflicts)
	assert.Empty(t, result.Conflicts)
	assert.Equal(t, DefaultReport, result.Report)
}

func TestGenerateInjectsCurrentDate(t *testing.T) {
	stub := &stubCompleter{provider: ProviderGemini, text: `{"timetable":[],"conflicts":[],"report":"ok"}`}
	client := fixedClient(stub)

	existing := "[]"
	_, err := client.Generate(context.Background(), GenerationRequest{
		CourseData:        "[]",
		Constraints:       `{"maxHoursPerDay":6}`,
		ExistingTimetable: &existing,
	})
	require.NoError(t, err)

	assert.Contains(t, stub.last.User, `"currentDate": "2025-01-06T08:30:00.000Z"`)
	assert.Contains(t, stub.last.User, `"maxHoursPerDay": 6`)
	assert.Contains(t, stub.last.User, "Existing Timetable (optional, for modification): []")
	assert.Contains(t, stub.last.User, `"12:00 - 01:00 (Lunch Break)"`)
	assert.Equal(t, SchemaTimetable, stub.last.Schema)
}

func TestGenerateRejectsInvalidConstraints(t *testing.T) {
	stub := &stubCompleter{provider: ProviderGemini}
	_, err := fixedClient(stub).Generate(context.Background(), GenerationRequest{Constraints: `not json`})
	require.Error(t, err)
	assert.Equal(t, 0, stub.calls)
}

func TestGenerateNoOutput(t *testing.T) {
	stub := &stubCompleter{provider: ProviderGemini, text: "  "}
	_, err := fixedClient(stub).Generate(context.Background(), GenerationRequest{})
	require.ErrorIs(t, err, ErrNoOutput)
	assert.Equal(t, "Timetable generation failed: AI model returned no output.", err.Error())
}

func TestGenerateFallsBackToNextProvider(t *testing.T) {
	primary := &stubCompleter{provider: ProviderGemini, err: errors.New("503 unavailable")}
	secondary := &stubCompleter{provider: ProviderOpenAI, text: "```json\n{\"timetable\":[],\"conflicts\":[],\"report\":\"fallback\"}\n```"}
	obs := &recordingObserver{}
	client := NewClient([]Completer{primary, secondary}, obs, nil)

	result, err := client.Generate(context.Background(), GenerationRequest{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", result.Report)
	assert.Equal(t, []string{"gemini", "openai"}, obs.providers)
	assert.Equal(t, 1, obs.failures)
	assert.Equal(t, "gemini>openai", client.Name())
}

func TestGenerateAllProvidersFail(t *testing.T) {
	primary := &stubCompleter{provider: ProviderGemini, err: errors.New("quota exceeded")}
	secondary := &stubCompleter{provider: ProviderOpenAI, text: "not json at all"}

	_, err := NewClient([]Completer{primary, secondary}, nil, nil).Generate(context.Background(), GenerationRequest{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Timetable generation failed: all providers failed"))
}

func TestGenerateStopsOnCancelledContext(t *testing.T) {
	primary := &stubCompleter{provider: ProviderGemini}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fixedClient(primary).Generate(ctx, GenerationRequest{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, primary.calls)
}

func TestSuggestFaculty(t *testing.T) {
	stub := &stubCompleter{provider: ProviderOpenAI, text: `{"facultyName":"Dr. B Iyer","justification":"Free on Monday and teaches databases."}`}
	req := SuggestFacultyRequest{Course: `{"id":"c1"}`, FacultyData: `[]`, Timetable: `[]`}

	out, err := fixedClient(stub).SuggestFaculty(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Dr. B Iyer", out.FacultyName)
	assert.Equal(t, SchemaSuggestion, stub.last.Schema)
	assert.Contains(t, stub.last.User, `Course: {"id":"c1"}`)

	stub.text = `{"justification":"nobody"}`
	_, err = fixedClient(stub).SuggestFaculty(context.Background(), req)
	assert.Error(t, err)
}

func TestGenerationRequestWireShape(t *testing.T) {
	out, err := json.Marshal(GenerationRequest{Programs: []string{}, Days: []string{"Monday"}})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "existingTimetable")
	assert.Contains(t, string(out), `"programs":[]`)
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), config.GeneratorConfig{Providers: []string{"gemini", "openai"}}, nil, nil)
	assert.Error(t, err)

	_, err = New(context.Background(), config.GeneratorConfig{Providers: []string{"claude"}, GeminiAPIKey: "k"}, nil, nil)
	assert.Error(t, err)

	client, err := New(context.Background(), config.GeneratorConfig{Providers: []string{"openai"}, OpenAIAPIKey: "k"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", client.Name())
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("Here you go: {\"a\":1} thanks"))
	assert.Equal(t, "", extractJSON("null"))
	assert.Equal(t, "", extractJSON("no braces"))
}
