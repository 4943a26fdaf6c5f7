package content

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/AhmedAllulu/articles-backend-sub000/internal/config"
	"github.com/AhmedAllulu/articles-backend-sub000/pkg/models"
)

// AnthropicGenerator implements Generator using the Anthropic messages API.
type AnthropicGenerator struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicGenerator(cfg config.AnthropicConfig) *AnthropicGenerator {
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &AnthropicGenerator{client: &client, model: cfg.Model}
}

func (g *AnthropicGenerator) Name() string { return "anthropic" }

func (g *AnthropicGenerator) Generate(ctx context.Context, keyword, language, country string) (*models.Draft, error) {
	resp, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(keyword, language, country))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidResponse)
	}

	content := cleanJSONResponse(resp.Content[0].Text)

	var parsed struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if parsed.Title == "" || parsed.Body == "" {
		return nil, fmt.Errorf("%w: missing title or body", ErrInvalidResponse)
	}

	return &models.Draft{
		Title:    parsed.Title,
		Body:     parsed.Body,
		Provider: g.Name(),
		Model:    g.model,
	}, nil
}

var _ Generator = (*AnthropicGenerator)(nil)
