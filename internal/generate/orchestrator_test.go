package generate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmedAllulu/articles-backend-sub000/internal/catalog"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/config"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/images"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/store"
	"github.com/AhmedAllulu/articles-backend-sub000/pkg/models"
)

type memStore struct {
	trends   []*models.Trend
	articles []*models.Article
}

func (f *memStore) Ping(context.Context) error { return nil }

func (f *memStore) InsertTrend(_ context.Context, t *models.Trend) error {
	f.trends = append(f.trends, t)
	return nil
}

func (f *memStore) CountUnusedTrends(_ context.Context, comb catalog.Combination) (int, error) {
	n := 0
	for _, t := range f.trends {
		if t.Category == comb.Category && t.CountryCode == comb.CountryCode && t.Status == models.TrendStatusUnused {
			n++
		}
	}
	return n, nil
}

func (f *memStore) UnusedTrends(_ context.Context, comb catalog.Combination, limit int) ([]*models.Trend, error) {
	var out []*models.Trend
	for _, t := range f.trends {
		if t.Category == comb.Category && t.CountryCode == comb.CountryCode && t.Status == models.TrendStatusUnused {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *memStore) MarkTrendUsed(_ context.Context, id uuid.UUID) error {
	for _, t := range f.trends {
		if t.ID == id {
			t.Status = models.TrendStatusUsed
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *memStore) LastTrendFetchAt(context.Context, catalog.Combination) (time.Time, error) {
	return time.Time{}, nil
}

func (f *memStore) InsertArticle(_ context.Context, a *models.Article) error {
	f.articles = append(f.articles, a)
	return nil
}

func (f *memStore) CountArticlesSince(_ context.Context, since time.Time) (int, error) {
	n := 0
	for _, a := range f.articles {
		if !a.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *memStore) CountRecentArticles(context.Context, catalog.Combination, time.Time) (int, error) {
	return 0, nil
}

func (f *memStore) LastArticleAt(_ context.Context, comb catalog.Combination) (time.Time, error) {
	var last time.Time
	for _, a := range f.articles {
		if a.Category == comb.Category && a.CountryCode == comb.CountryCode && a.CreatedAt.After(last) {
			last = a.CreatedAt
		}
	}
	return last, nil
}

func (f *memStore) MonthUsage(context.Context, int, int) (map[string]int, error) {
	return map[string]int{}, nil
}

func (f *memStore) UpsertUsage(context.Context, string, int, int, int) error { return nil }

var _ store.Store = (*memStore)(nil)

type stubGenerator struct {
	err   error
	calls int
}

func (g *stubGenerator) Generate(_ context.Context, keyword, _, _ string) (*models.Draft, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &models.Draft{
		Title:    "About " + keyword,
		Body:     "Body for " + keyword,
		Provider: "stub",
		Model:    "stub-1",
	}, nil
}

func (g *stubGenerator) Name() string { return "stub" }

func generateConfig() config.GenerateConfig {
	return config.GenerateConfig{
		DailyCap:            24,
		MaxCombinations:     6,
		MinTrendsToGenerate: 3,
		WindowStartHour:     6,
		WindowEndHour:       23,
		WeightUnused:        0.6,
		WeightStaleness:     0.3,
		WeightImportance:    0.1,
	}
}

// noon is a fixed in-window instant all tests run at.
var noon = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func newOrchestrator(t *testing.T, fs *memStore, gen *stubGenerator) *Orchestrator {
	t.Helper()
	cat, err := catalog.New()
	require.NoError(t, err)
	o := NewOrchestrator(fs, cat, gen, images.Noop{}, generateConfig(), time.UTC)
	o.now = func() time.Time { return noon }
	return o
}

func seedTrends(fs *memStore, comb catalog.Combination, n int) {
	for i := 0; i < n; i++ {
		fs.trends = append(fs.trends, &models.Trend{
			ID:          uuid.New(),
			Category:    comb.Category,
			CountryCode: comb.CountryCode,
			Keyword:     fmt.Sprintf("%s-kw-%d", comb.Key(), i),
			Status:      models.TrendStatusUnused,
			CreatedAt:   noon.Add(-time.Duration(n-i) * time.Hour),
		})
	}
}

func TestRunCycleOutsideWindow(t *testing.T) {
	fs := &memStore{}
	o := newOrchestrator(t, fs, &stubGenerator{})
	o.now = func() time.Time { return time.Date(2026, time.March, 10, 3, 0, 0, 0, time.UTC) }

	stats, err := o.RunCycle(context.Background(), Options{DailyCap: 24, MaxCombinations: 6})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, stats.Outcome)
	assert.Equal(t, "outside_window", stats.Reason)
	assert.Empty(t, fs.articles)
}

func TestRunCycleForceBypassesWindow(t *testing.T) {
	fs := &memStore{}
	seedTrends(fs, catalog.Combination{Category: "technology", CountryCode: "us"}, 3)
	o := newOrchestrator(t, fs, &stubGenerator{})
	o.now = func() time.Time { return time.Date(2026, time.March, 10, 3, 0, 0, 0, time.UTC) }

	stats, err := o.RunCycle(context.Background(), Options{DailyCap: 24, MaxCombinations: 6, Force: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, stats.Outcome)
	assert.Equal(t, 1, stats.Succeeded)
}

func TestRunCycleDailyCapReached(t *testing.T) {
	fs := &memStore{}
	seedTrends(fs, catalog.Combination{Category: "technology", CountryCode: "us"}, 3)
	fs.articles = append(fs.articles,
		&models.Article{ID: uuid.New(), CreatedAt: noon.Add(-2 * time.Hour)},
		&models.Article{ID: uuid.New(), CreatedAt: noon.Add(-1 * time.Hour)},
	)
	o := newOrchestrator(t, fs, &stubGenerator{})

	stats, err := o.RunCycle(context.Background(), Options{DailyCap: 2, MaxCombinations: 6})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, stats.Outcome)
	assert.Equal(t, "daily_cap_reached", stats.Reason)
	assert.Len(t, fs.articles, 2)
}

func TestRunCycleForceStillHonorsDailyCap(t *testing.T) {
	fs := &memStore{}
	seedTrends(fs, catalog.Combination{Category: "technology", CountryCode: "us"}, 3)
	fs.articles = append(fs.articles,
		&models.Article{ID: uuid.New(), CreatedAt: noon.Add(-2 * time.Hour)},
		&models.Article{ID: uuid.New(), CreatedAt: noon.Add(-1 * time.Hour)},
	)
	o := newOrchestrator(t, fs, &stubGenerator{})
	o.now = func() time.Time { return time.Date(2026, time.March, 10, 3, 0, 0, 0, time.UTC) }

	stats, err := o.RunCycle(context.Background(), Options{DailyCap: 2, MaxCombinations: 6, Force: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, stats.Outcome)
	assert.Equal(t, "daily_cap_reached", stats.Reason)
	assert.Len(t, fs.articles, 2)
}

func TestRunCycleForcedBudgetCountsTodaysArticles(t *testing.T) {
	fs := &memStore{}
	seedTrends(fs, catalog.Combination{Category: "technology", CountryCode: "us"}, 5)
	seedTrends(fs, catalog.Combination{Category: "business", CountryCode: "de"}, 5)
	fs.articles = append(fs.articles,
		&models.Article{ID: uuid.New(), CreatedAt: noon.Add(-3 * time.Hour)},
	)
	o := newOrchestrator(t, fs, &stubGenerator{})

	stats, err := o.RunCycle(context.Background(), Options{DailyCap: 2, MaxCombinations: 6, Force: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, stats.Outcome)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Len(t, fs.articles, 2)
}

func TestRunCycleYesterdayDoesNotCount(t *testing.T) {
	fs := &memStore{}
	seedTrends(fs, catalog.Combination{Category: "technology", CountryCode: "us"}, 3)
	fs.articles = append(fs.articles,
		&models.Article{ID: uuid.New(), CreatedAt: noon.Add(-20 * time.Hour)}, // yesterday 16:00
	)
	o := newOrchestrator(t, fs, &stubGenerator{})

	stats, err := o.RunCycle(context.Background(), Options{DailyCap: 1, MaxCombinations: 6})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, stats.Outcome)
	assert.Equal(t, 1, stats.Succeeded)
}

func TestRunCycleProducesUnderBudget(t *testing.T) {
	fs := &memStore{}
	techUS := catalog.Combination{Category: "technology", CountryCode: "us"}
	bizDE := catalog.Combination{Category: "business", CountryCode: "de"}
	seedTrends(fs, techUS, 5)
	seedTrends(fs, bizDE, 5)

	gen := &stubGenerator{}
	o := newOrchestrator(t, fs, gen)

	stats, err := o.RunCycle(context.Background(), Options{DailyCap: 2, MaxCombinations: 6})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, stats.Outcome)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Len(t, fs.articles, 2)
	assert.Equal(t, 2, gen.calls)
	assert.Equal(t, map[string]int{"technology": 1, "business": 1}, stats.PerCategory)

	used := 0
	for _, tr := range fs.trends {
		if tr.Status == models.TrendStatusUsed {
			used++
		}
	}
	assert.Equal(t, 2, used)

	for _, a := range fs.articles {
		assert.NotEmpty(t, a.Title)
		assert.NotEmpty(t, a.Language)
		assert.NotEmpty(t, a.SourceKeyword)
	}
}

func TestRunCycleSpendsNewestTrend(t *testing.T) {
	fs := &memStore{}
	techUS := catalog.Combination{Category: "technology", CountryCode: "us"}
	seedTrends(fs, techUS, 4)

	o := newOrchestrator(t, fs, &stubGenerator{})

	stats, err := o.RunCycle(context.Background(), Options{DailyCap: 1, MaxCombinations: 1})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Succeeded)

	// Index 3 carries the most recent CreatedAt.
	require.Len(t, fs.articles, 1)
	assert.Equal(t, techUS.Key()+"-kw-3", fs.articles[0].SourceKeyword)
}

func TestRunCycleSkipsThinPartitions(t *testing.T) {
	fs := &memStore{}
	seedTrends(fs, catalog.Combination{Category: "technology", CountryCode: "us"}, 2)

	o := newOrchestrator(t, fs, &stubGenerator{})

	stats, err := o.RunCycle(context.Background(), Options{DailyCap: 5, MaxCombinations: 6})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, stats.Outcome)
	assert.Equal(t, "no_eligible_combinations", stats.Reason)
}

func TestFailedGenerationKeepsTrend(t *testing.T) {
	fs := &memStore{}
	techUS := catalog.Combination{Category: "technology", CountryCode: "us"}
	seedTrends(fs, techUS, 3)

	gen := &stubGenerator{err: errors.New("provider down")}
	o := newOrchestrator(t, fs, gen)

	stats, err := o.RunCycle(context.Background(), Options{DailyCap: 2, MaxCombinations: 6})
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, stats.Outcome)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Succeeded)
	assert.Empty(t, fs.articles)

	n, err := fs.CountUnusedTrends(context.Background(), techUS)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStalenessBreaksUnusedTie(t *testing.T) {
	fs := &memStore{}
	techUS := catalog.Combination{Category: "technology", CountryCode: "us"}
	techGB := catalog.Combination{Category: "technology", CountryCode: "gb"}
	seedTrends(fs, techUS, 5)
	seedTrends(fs, techGB, 5)

	// us published an hour ago, gb never has; gb should win the single slot
	// on staleness (importance favors us, but its weight is a tenth).
	fs.articles = append(fs.articles, &models.Article{
		ID:          uuid.New(),
		Category:    techUS.Category,
		CountryCode: techUS.CountryCode,
		CreatedAt:   noon.Add(-1 * time.Hour),
	})

	o := newOrchestrator(t, fs, &stubGenerator{})

	stats, err := o.RunCycle(context.Background(), Options{DailyCap: 5, MaxCombinations: 1, Force: true})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Succeeded)
	require.Len(t, fs.articles, 2)
	assert.Equal(t, "gb", fs.articles[1].CountryCode)
}
