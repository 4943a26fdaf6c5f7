package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/AhmedAllulu/articles-backend-sub000/pkg/models"
)

// TemplateGenerator is the deterministic fallback: a minimal article built
// from the keyword alone. It never fails, so wrapping any provider with it
// guarantees a terminal draft for every partition.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator { return &TemplateGenerator{} }

func (g *TemplateGenerator) Name() string { return "template" }

func (g *TemplateGenerator) Generate(_ context.Context, keyword, _, country string) (*models.Draft, error) {
	title := fmt.Sprintf("%s: what is trending now", strings.TrimSpace(keyword))
	body := fmt.Sprintf(
		"%s is currently one of the most searched topics in %s.\n\n"+
			"Interest in %s has risen sharply over the past days. This page tracks the "+
			"topic and will be replaced with a full report as soon as one is available.\n\n"+
			"Check back soon for updated coverage.",
		keyword, strings.ToUpper(country), keyword)

	return &models.Draft{
		Title:    title,
		Body:     body,
		Provider: g.Name(),
	}, nil
}

var _ Generator = (*TemplateGenerator)(nil)
