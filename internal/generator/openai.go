package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const defaultOpenAIModel = "gpt-4o-mini"

type openaiCompleter struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// newOpenAICompleter works with any OpenAI-compatible endpoint when baseURL is set.
func newOpenAICompleter(apiKey, model, baseURL string, logger *zap.Logger) (*openaiCompleter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openaiCompleter{client: openai.NewClient(opts...), model: model, logger: logger}, nil
}

func (o *openaiCompleter) Provider() Provider {
	return ProviderOpenAI
}

func (o *openaiCompleter) Complete(ctx context.Context, c Completion) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.System),
			openai.UserMessage(c.User),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(0.4),
		MaxTokens:   openai.Int(8192),
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrNoOutput
	}

	o.logger.Debug("openai completion",
		zap.String("model", o.model),
		zap.Int64("input_tokens", resp.Usage.PromptTokens),
		zap.Int64("output_tokens", resp.Usage.CompletionTokens),
		zap.Duration("duration", time.Since(start)),
	)
	return resp.Choices[0].Message.Content, nil
}
