package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AhmedAllulu/articles-backend-sub000/internal/catalog"
	"github.com/AhmedAllulu/articles-backend-sub000/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
// Combination-scoped reads and writes cannot observe another combination's
// rows; the routing key is enforced by the query scope (see Router).
type Store interface {
	Ping(ctx context.Context) error

	// Trends
	InsertTrend(ctx context.Context, t *models.Trend) error
	CountUnusedTrends(ctx context.Context, comb catalog.Combination) (int, error)
	UnusedTrends(ctx context.Context, comb catalog.Combination, limit int) ([]*models.Trend, error)
	MarkTrendUsed(ctx context.Context, id uuid.UUID) error
	LastTrendFetchAt(ctx context.Context, comb catalog.Combination) (time.Time, error)

	// Articles
	InsertArticle(ctx context.Context, a *models.Article) error
	CountArticlesSince(ctx context.Context, since time.Time) (int, error)
	CountRecentArticles(ctx context.Context, comb catalog.Combination, since time.Time) (int, error)
	LastArticleAt(ctx context.Context, comb catalog.Combination) (time.Time, error)

	// Quota ledger
	MonthUsage(ctx context.Context, month, year int) (map[string]int, error)
	UpsertUsage(ctx context.Context, credentialID string, month, year, usageCount int) error
}
