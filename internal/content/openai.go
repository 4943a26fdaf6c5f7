package content

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/AhmedAllulu/articles-backend-sub000/internal/config"
	"github.com/AhmedAllulu/articles-backend-sub000/pkg/models"
)

// OpenAIGenerator implements Generator using the OpenAI chat completions API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(cfg config.OpenAIConfig) *OpenAIGenerator {
	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &OpenAIGenerator{client: &client, model: cfg.Model}
}

func (g *OpenAIGenerator) Name() string { return "openai" }

func (g *OpenAIGenerator) Generate(ctx context.Context, keyword, language, country string) (*models.Draft, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(keyword, language, country)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrInvalidResponse)
	}

	content := cleanJSONResponse(resp.Choices[0].Message.Content)

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

var _ Generator = (*OpenAIGenerator)(nil)
