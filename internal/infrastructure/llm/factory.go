package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/shelf-inspector/internal/core/ports"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/llm/claude"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/llm/openai"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/resilience"
)

type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// NewStructurer builds the product structuring backend named by
// cfg.Provider. The returned close func is never nil.
func NewStructurer(ctx context.Context, cfg Config, executor *resilience.Executor) (ports.ProductStructurer, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		return openai.New(cfg.APIKey, cfg.Model, cfg.BaseURL, executor), noop, nil

	case "gemini":
		s, err := gemini.New(ctx, cfg.APIKey, cfg.Model, executor)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil

	case "claude", "anthropic":
		return claude.New(cfg.APIKey, cfg.Model, cfg.BaseURL, executor), noop, nil

	case "", "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewStructurer(ollama.NewWithExecutor(baseURL, cfg.Model, executor)), noop, nil

	default:
		return nil, noop, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
