package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-1.5-flash"

type geminiCompleter struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func newGeminiCompleter(ctx context.Context, apiKey, model string, logger *zap.Logger) (*geminiCompleter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &geminiCompleter{client: client, model: model, logger: logger}, nil
}

func (g *geminiCompleter) Provider() Provider {
	return ProviderGemini
}

func (g *geminiCompleter) Complete(ctx context.Context, c Completion) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(c.System, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.4),
		MaxOutputTokens:   8192,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    geminiSchema(c.Schema),
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(c.User), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoOutput
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}

	if resp.UsageMetadata != nil {
		g.logger.Debug("gemini completion",
			zap.String("model", g.model),
			zap.Int32("input_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("output_tokens", resp.UsageMetadata.CandidatesTokenCount),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return sb.String(), nil
}

func geminiSchema(s Schema) *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	if s == SchemaSuggestion {
		return &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"facultyName":   str("Name of the suggested faculty member, copied from the faculty list."),
				"justification": str("Why this faculty member is the best fit."),
			},
			Required: []string{"facultyName", "justification"},
		}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"timetable": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"day":        str("Day of the week."),
						"time":       str("Time slot label."),
						"course":     str("Course name."),
						"courseCode": str("Course code."),
						"faculty":    str("Faculty name."),
						"room":       str("Room name."),
					},
					Required: []string{"day", "time", "course", "courseCode", "faculty", "room"},
				},
			},
			"conflicts": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"type":        str("Conflict category."),
						"description": str("What clashes and why."),
						"involved": {
							Type:  genai.TypeArray,
							Items: str("Identifier of an involved course, faculty member or room."),
						},
					},
					Required: []string{"type", "description", "involved"},
				},
			},
			"report": str("Analysis report of the generated schedule."),
		},
		Required: []string{"timetable", "conflicts", "report"},
	}
}
