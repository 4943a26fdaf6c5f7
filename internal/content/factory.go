package content

import (
	"fmt"

	"github.com/AhmedAllulu/articles-backend-sub000/internal/cache"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/config"
)

// NewGenerator constructs the bare provider selected by config.
// Called once at server startup.
func NewGenerator(cfg config.ContentConfig) (Generator, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIGenerator(cfg.OpenAI), nil
	case "anthropic":
		return NewAnthropicGenerator(cfg.Anthropic), nil
	case "template":
		return NewTemplateGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown content provider %q: must be one of openai, anthropic, template", cfg.Provider)
	}
}

// NewPipeline wraps the configured provider in the full production stack:
// cache over retry over provider, with the template generator as the terminal
// fallback. The template provider itself is returned bare.
func NewPipeline(cfg config.ContentConfig, c cache.Cache) (Generator, error) {
	provider, err := NewGenerator(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Provider == "template" {
		return provider, nil
	}

	var g Generator = WithRetry(provider, cfg.MaxAttempts, cfg.RetryBase)
	g = WithCache(g, c, cfg.CacheTTL)
	return WithFallback(g, NewTemplateGenerator()), nil
}
