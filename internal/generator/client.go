package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/anubhav0108/timetable-ace-api/internal/models"
)

// Client implements TimetableGenerator and FacultySuggester over an ordered provider chain.
type Client struct {
	completers []Completer
	observer   Observer
	logger     *zap.Logger
	now        func() time.Time
}

// NewClient builds a client trying completers in order.
func NewClient(completers []Completer, observer Observer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{completers: completers, observer: observer, logger: logger, now: time.Now}
}

// Name describes the provider chain, e.g. "gemini>openai".
func (c *Client) Name() string {
	names := make([]string, len(c.completers))
	for i, comp := range c.completers {
		names[i] = string(comp.Provider())
	}
	return strings.Join(names, ">")
}

// Generate injects currentDate into the constraints, renders the prompt and decodes the answer.
func (c *Client) Generate(ctx context.Context, req GenerationRequest) (*models.TimetableResult, error) {
	result, err := c.generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Timetable generation failed: %w", err)
	}
	return result, nil
}

func (c *Client) generate(ctx context.Context, req GenerationRequest) (*models.TimetableResult, error) {
	constraints, err := c.withCurrentDate(req.Constraints)
	if err != nil {
		return nil, err
	}
	req.Constraints = constraints

	slots := make([]string, len(models.TimeSlots))
	lunch := ""
	for i, s := range models.TimeSlots {
		slots[i] = s.Label
		if s.Lunch {
			lunch = s.Label
		}
	}
	prompt, err := renderGenerationPrompt(req, slots, lunch)
	if err != nil {
		return nil, err
	}

	var result *models.TimetableResult
	err = c.run(ctx, "generate", Completion{System: generationSystemPrompt, User: prompt, Schema: SchemaTimetable}, func(text string) error {
		decoded, err := decodeTimetable(text)
		if err != nil {
			return err
		}
		result = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SuggestFaculty asks the provider chain for a faculty recommendation.
func (c *Client) SuggestFaculty(ctx context.Context, req SuggestFacultyRequest) (*FacultySuggestion, error) {
	prompt, err := renderSuggestionPrompt(req)
	if err != nil {
		return nil, err
	}

	var suggestion *FacultySuggestion
	err = c.run(ctx, "suggest", Completion{System: suggestionSystemPrompt, User: prompt, Schema: SchemaSuggestion}, func(text string) error {
		decoded, err := decodeSuggestion(text)
		if err != nil {
			return err
		}
		suggestion = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return suggestion, nil
}

// run walks the chain until one provider yields text that accept takes.
// Context cancellation stops the chain immediately.
func (c *Client) run(ctx context.Context, op string, comp Completion, accept func(string) error) error {
	if len(c.completers) == 0 {
		return errors.New("no generator provider configured")
	}

	var lastErr error
	for _, completer := range c.completers {
		if err := ctx.Err(); err != nil {
			return err
		}

		provider := completer.Provider()
		start := time.Now()
		text, err := completer.Complete(ctx, comp)
		if err == nil {
			err = accept(text)
		}
		if c.observer != nil {
			c.observer.ObserveCompletion(string(provider), op, err, time.Since(start))
		}
		if err == nil {
			return nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return err
		}
		c.logger.Warn("generator provider failed",
			zap.String("provider", string(provider)),
			zap.String("operation", op),
			zap.Error(err),
		)
	}

	if len(c.completers) == 1 {
		return lastErr
	}
	return fmt.Errorf("all providers failed: %w", lastErr)
}

// withCurrentDate adds an ISO-8601 currentDate to the constraints object and pretty prints it.
func (c *Client) withCurrentDate(raw string) (string, error) {
	constraints := map[string]interface{}{}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &constraints); err != nil {
			return "", fmt.Errorf("parse constraints: %w", err)
		}
		if constraints == nil {
			constraints = map[string]interface{}{}
		}
	}
	constraints["currentDate"] = c.now().UTC().Format("2006-01-02T15:04:05.000Z")

	out, err := json.MarshalIndent(constraints, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode constraints: %w", err)
	}
	return string(out), nil
}
