package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AhmedAllulu/articles-backend-sub000/internal/catalog"
	"github.com/AhmedAllulu/articles-backend-sub000/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5. Combination-scoped
// statements run through the Router so the partition key is always bound.
type PostgresStore struct {
	pool   *pgxpool.Pool
	router *Router
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, cat *catalog.Catalog) *PostgresStore {
	return &PostgresStore{pool: pool, router: NewRouter(pool, cat)}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Trends ---

func (s *PostgresStore) InsertTrend(ctx context.Context, t *models.Trend) error {
	scope, err := s.router.Scope(catalog.Combination{Category: t.Category, CountryCode: t.CountryCode})
	if err != nil {
		return err
	}
	_, err = scope.Exec(ctx,
		`INSERT INTO trends (category, country_code, id, keyword, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Keyword, t.Status, t.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert trend: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountUnusedTrends(ctx context.Context, comb catalog.Combination) (int, error) {
	scope, err := s.router.Scope(comb)
	if err != nil {
		return 0, err
	}
	var count int
	err = scope.QueryRow(ctx,
		`SELECT COUNT(*) FROM trends
		 WHERE category = $1 AND country_code = $2 AND status = 'unused'`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unused trends: %w", err)
	}
	return count, nil
}

// UnusedTrends returns up to limit unused trends for the combination, newest
// first. Generation consumes the freshest signal first.
func (s *PostgresStore) UnusedTrends(ctx context.Context, comb catalog.Combination, limit int) ([]*models.Trend, error) {
	scope, err := s.router.Scope(comb)
	if err != nil {
		return nil, err
	}
	rows, err := scope.Query(ctx,
		`SELECT id, category, country_code, keyword, status, created_at, used_at
		 FROM trends
		 WHERE category = $1 AND country_code = $2 AND status = 'unused'
		 ORDER BY created_at DESC
		 LIMIT $3`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unused trends: %w", err)
	}
	defer rows.Close()

	var trends []*models.Trend
	for rows.Next() {
		var t models.Trend
		if err := rows.Scan(&t.ID, &t.Category, &t.CountryCode, &t.Keyword, &t.Status,
			&t.CreatedAt, &t.UsedAt); err != nil {
			return nil, fmt.Errorf("scan trend: %w", err)
		}
		trends = append(trends, &t)
	}
	return trends, rows.Err()
}

// MarkTrendUsed flips a trend to used. The status predicate makes repeated
// calls no-ops: used_at is written once and never changes.
func (s *PostgresStore) MarkTrendUsed(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE trends SET status = 'used', used_at = NOW()
		 WHERE id = $1 AND status = 'unused'`, id)
	if err != nil {
		return fmt.Errorf("mark trend used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM trends WHERE id = $1)`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("mark trend used: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

func (s *PostgresStore) LastTrendFetchAt(ctx context.Context, comb catalog.Combination) (time.Time, error) {
	scope, err := s.router.Scope(comb)
	if err != nil {
		return time.Time{}, err
	}
	var last *time.Time
	err = scope.QueryRow(ctx,
		`SELECT MAX(created_at) FROM trends
		 WHERE category = $1 AND country_code = $2`,
	).Scan(&last)
	if err != nil {
		return time.Time{}, fmt.Errorf("last trend fetch: %w", err)
	}
	if last == nil {
		return time.Time{}, nil
	}
	return *last, nil
}

// --- Articles ---

func (s *PostgresStore) InsertArticle(ctx context.Context, a *models.Article) error {
	scope, err := s.router.Scope(catalog.Combination{Category: a.Category, CountryCode: a.CountryCode})
	if err != nil {
		return err
	}
	_, err = scope.Exec(ctx,
		`INSERT INTO articles (category, country_code, id, title, body, source_keyword, language, media_ref, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Title, a.Body, a.SourceKeyword, a.Language, a.MediaRef, a.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// CountArticlesSince counts articles created since the given instant across
// all combinations, for the daily production cap.
func (s *PostgresStore) CountArticlesSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM articles WHERE created_at >= $1`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count articles since: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CountRecentArticles(ctx context.Context, comb catalog.Combination, since time.Time) (int, error) {
	scope, err := s.router.Scope(comb)
	if err != nil {
		return 0, err
	}
	var count int
	err = scope.QueryRow(ctx,
		`SELECT COUNT(*) FROM articles
		 WHERE category = $1 AND country_code = $2 AND created_at >= $3`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count recent articles: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) LastArticleAt(ctx context.Context, comb catalog.Combination) (time.Time, error) {
	scope, err := s.router.Scope(comb)
	if err != nil {
		return time.Time{}, err
	}
	var last *time.Time
	err = scope.QueryRow(ctx,
		`SELECT MAX(created_at) FROM articles
		 WHERE category = $1 AND country_code = $2`,
	).Scan(&last)
	if err != nil {
		return time.Time{}, fmt.Errorf("last article: %w", err)
	}
	if last == nil {
		return time.Time{}, nil
	}
	return *last, nil
}

// --- Quota ledger ---

func (s *PostgresStore) MonthUsage(ctx context.Context, month, year int) (map[string]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT credential_id, usage_count FROM api_usage WHERE month = $1 AND year = $2`,
		month, year)
	if err != nil {
		return nil, fmt.Errorf("load month usage: %w", err)
	}
	defer rows.Close()

	usage := make(map[string]int)
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		usage[id] = count
	}
	return usage, rows.Err()
}

func (s *PostgresStore) UpsertUsage(ctx context.Context, credentialID string, month, year, usageCount int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_usage (credential_id, month, year, usage_count, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (credential_id, month, year) DO UPDATE SET
		   usage_count = EXCLUDED.usage_count,
		   updated_at = NOW()`,
		credentialID, month, year, usageCount)
	if err != nil {
		return fmt.Errorf("upsert usage: %w", err)
	}
	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Store = (*PostgresStore)(nil)
