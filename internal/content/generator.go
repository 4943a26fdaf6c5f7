// Package content produces article drafts from trend keywords. Providers are
// wrapped in retry, cache and fallback layers; the orchestrator consumes the
// composed stack through the Generator interface.
package content

import (
	"context"
	"errors"

	"github.com/AhmedAllulu/articles-backend-sub000/pkg/models"
)

var (
	ErrProviderUnavailable = errors.New("content provider unavailable")
	ErrInvalidResponse     = errors.New("content provider returned invalid response")
)

// Generator turns a keyword into a localized article draft.
type Generator interface {
	Generate(ctx context.Context, keyword, language, country string) (*models.Draft, error)
	Name() string
}
