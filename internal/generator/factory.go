package generator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/anubhav0108/timetable-ace-api/pkg/config"
)

// New builds a Client from configuration. Providers without credentials are skipped
// with a warning; an empty chain is returned as an error.
func New(ctx context.Context, cfg config.GeneratorConfig, observer Observer, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	providers := cfg.Providers
	if len(providers) == 0 {
		providers = []string{string(ProviderGemini), string(ProviderOpenAI)}
	}

	completers := make([]Completer, 0, len(providers))
	for _, name := range providers {
		switch Provider(name) {
		case ProviderGemini:
			if cfg.GeminiAPIKey == "" {
				logger.Warn("gemini provider skipped: no api key")
				continue
			}
			g, err := newGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
			if err != nil {
				return nil, err
			}
			completers = append(completers, g)
		case ProviderOpenAI:
			if cfg.OpenAIAPIKey == "" {
				logger.Warn("openai provider skipped: no api key")
				continue
			}
			o, err := newOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, logger)
			if err != nil {
				return nil, err
			}
			completers = append(completers, o)
		default:
			return nil, fmt.Errorf("unknown generator provider %q", name)
		}
	}

	if len(completers) == 0 {
		return nil, fmt.Errorf("no generator provider has credentials (tried %v)", providers)
	}
	return NewClient(completers, observer, logger), nil
}
