package content

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/AhmedAllulu/articles-backend-sub000/internal/cache"
	"github.com/AhmedAllulu/articles-backend-sub000/pkg/models"
)

// CachedGenerator caches successful drafts by (keyword, language, country) for
// a bounded window. Cache failures are soft: a broken cache degrades to
// calling the wrapped generator.
type CachedGenerator struct {
	next  Generator
	cache cache.Cache
	ttl   time.Duration
}

func WithCache(next Generator, c cache.Cache, ttl time.Duration) *CachedGenerator {
	return &CachedGenerator{next: next, cache: c, ttl: ttl}
}

func (g *CachedGenerator) Name() string { return g.next.Name() }

func (g *CachedGenerator) Generate(ctx context.Context, keyword, language, country string) (*models.Draft, error) {
	key := cache.DraftKey(keyword, language, country)

	if raw, found, err := g.cache.Get(ctx, key); err != nil {
		slog.Warn("draft cache read failed", "key", key, "error", err)
	} else if found {
		var draft models.Draft
		if err := json.Unmarshal(raw, &draft); err == nil {
			return &draft, nil
		}
		// Corrupt entry: drop it and regenerate.
		_ = g.cache.Delete(ctx, key)
	}

	draft, err := g.next.Generate(ctx, keyword, language, country)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(draft); err == nil {
		if err := g.cache.Set(ctx, key, raw, g.ttl); err != nil {
			slog.Warn("draft cache write failed", "key", key, "error", err)
		}
	}
	return draft, nil
}

var _ Generator = (*CachedGenerator)(nil)
