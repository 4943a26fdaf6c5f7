package content

import (
	"context"
	"log/slog"
	"time"

	"github.com/AhmedAllulu/articles-backend-sub000/pkg/models"
)

// RetryingGenerator retries the wrapped generator with exponential backoff.
// Context cancellation stops the attempt loop immediately.
type RetryingGenerator struct {
	next     Generator
	attempts int
	base     time.Duration
}

func WithRetry(next Generator, attempts int, base time.Duration) *RetryingGenerator {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingGenerator{next: next, attempts: attempts, base: base}
}

func (g *RetryingGenerator) Name() string { return g.next.Name() }

func (g *RetryingGenerator) Generate(ctx context.Context, keyword, language, country string) (*models.Draft, error) {
	var lastErr error
	delay := g.base

	for attempt := 1; attempt <= g.attempts; attempt++ {
		draft, err := g.next.Generate(ctx, keyword, language, country)
		if err == nil {
			return draft, nil
		}
		lastErr = err

		if attempt == g.attempts {
			break
		}
		slog.Warn("generation attempt failed, retrying",
			"provider", g.next.Name(),
			"keyword", keyword,
			"attempt", attempt,
			"error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, lastErr
}

var _ Generator = (*RetryingGenerator)(nil)
