package content

import (
	"context"
	"log/slog"

	"github.com/AhmedAllulu/articles-backend-sub000/pkg/models"
)

// FallbackGenerator returns the fallback's draft when the primary fails
// terminally. With a TemplateGenerator as fallback the composed stack never
// errors, so one partition's provider outage cannot fail a generation run.
type FallbackGenerator struct {
	primary  Generator
	fallback Generator
}

func WithFallback(primary, fallback Generator) *FallbackGenerator {
	return &FallbackGenerator{primary: primary, fallback: fallback}
}

func (g *FallbackGenerator) Name() string { return g.primary.Name() }

func (g *FallbackGenerator) Generate(ctx context.Context, keyword, language, country string) (*models.Draft, error) {
	draft, err := g.primary.Generate(ctx, keyword, language, country)
	if err == nil {
		return draft, nil
	}
	slog.Warn("primary generator failed, using fallback",
		"primary", g.primary.Name(),
		"fallback", g.fallback.Name(),
		"keyword", keyword,
		"error", err)
	return g.fallback.Generate(ctx, keyword, language, country)
}

var _ Generator = (*FallbackGenerator)(nil)
