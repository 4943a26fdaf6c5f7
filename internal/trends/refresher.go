package trends

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AhmedAllulu/articles-backend-sub000/internal/catalog"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/store"
	"github.com/AhmedAllulu/articles-backend-sub000/pkg/models"
)

// QuotaManager is the slice of the quota manager the refresher depends on.
type QuotaManager interface {
	SelectNextCombinations(ctx context.Context, count int, force bool) []catalog.Combination
	ShouldFetchNew(ctx context.Context, comb catalog.Combination) bool
	NextCredential() *models.Credential
	RecordUsage(ctx context.Context, cred *models.Credential)
	ShareBetweenPartitions(ctx context.Context) (int, error)
}

// RefreshStats summarizes one trend-refresh run.
type RefreshStats struct {
	Outcome       string `json:"outcome"` // completed | partial | skipped
	Reason        string `json:"reason,omitempty"`
	Selected      int    `json:"selected"`
	Fetched       int    `json:"fetched"`
	Failed        int    `json:"failed"`
	Skipped       int    `json:"skipped"`
	KeywordsAdded int    `json:"keywords_added"`
	Shared        int    `json:"shared"`
}

const (
	OutcomeCompleted = "completed"
	OutcomePartial   = "partial"
	OutcomeSkipped   = "skipped"
)

// Refresher drives the trend-refresh job: select combinations under the
// quota gate, fetch keywords for each, record credential usage, then share
// surplus trends across same-language markets.
type Refresher struct {
	quota     QuotaManager
	store     store.Store
	client    Client
	batchSize int
	now       func() time.Time
}

func NewRefresher(quota QuotaManager, st store.Store, client Client, batchSize int) *Refresher {
	return &Refresher{
		quota:     quota,
		store:     st,
		client:    client,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Run executes one refresh pass. A failed partition is counted and skipped;
// only an empty selection (the admission gate) short-circuits the run.
// Running out of credentials truncates the pass, counts the unserved
// combinations as skipped and reports a partial outcome.
func (r *Refresher) Run(ctx context.Context, count int, force bool) (*RefreshStats, error) {
	stats := &RefreshStats{}

	combos := r.quota.SelectNextCombinations(ctx, count, force)
	if len(combos) == 0 {
		stats.Outcome = OutcomeSkipped
		stats.Reason = "quota_exhausted"
		slog.Info("trend refresh skipped", "reason", stats.Reason)
		return stats, nil
	}
	stats.Selected = len(combos)

	truncated := false
	for i, comb := range combos {
		if !r.quota.ShouldFetchNew(ctx, comb) {
			stats.Skipped++
			continue
		}

		cred := r.quota.NextCredential()
		if cred == nil {
			truncated = true
			stats.Skipped += len(combos) - i
			stats.Reason = "all_credentials_saturated"
			slog.Warn("refresh stopped early", "reason", stats.Reason, "combination", comb.Key())
			break
		}

		keywords, err := r.client.Discover(ctx, DiscoverRequest{
			Category: comb.Category,
			Country:  comb.CountryCode,
			Limit:    r.batchSize,
			APIKey:   cred.Secret,
		})
		// The upstream charges the call whether or not it returns keywords;
		// quota-rejected calls are the one exception.
		if err == nil || !errors.Is(err, ErrDiscoveryQuota) {
			r.quota.RecordUsage(ctx, cred)
		}
		if err != nil {
			stats.Failed++
			slog.Warn("discovery failed", "combination", comb.Key(), "error", err)
			continue
		}

		added := r.insertKeywords(ctx, comb, keywords)
		stats.Fetched++
		stats.KeywordsAdded += added
		slog.Info("trends fetched", "combination", comb.Key(), "keywords", len(keywords), "added", added)
	}

	shared, err := r.quota.ShareBetweenPartitions(ctx)
	if err != nil {
		slog.Warn("trend sharing failed", "error", err)
	}
	stats.Shared = shared

	if stats.Failed > 0 || truncated {
		stats.Outcome = OutcomePartial
	} else {
		stats.Outcome = OutcomeCompleted
	}
	slog.Info("trend refresh finished",
		"outcome", stats.Outcome,
		"selected", stats.Selected,
		"fetched", stats.Fetched,
		"failed", stats.Failed,
		"keywords_added", stats.KeywordsAdded,
		"shared", stats.Shared)
	return stats, nil
}

// insertKeywords stores discovered keywords as unused trends. Duplicates are
// expected (the API repeats hot topics across calls) and silently skipped.
func (r *Refresher) insertKeywords(ctx context.Context, comb catalog.Combination, keywords []string) int {
	added := 0
	for _, kw := range keywords {
		err := r.store.InsertTrend(ctx, &models.Trend{
			ID:          uuid.New(),
			Category:    comb.Category,
			CountryCode: comb.CountryCode,
			Keyword:     kw,
			Status:      models.TrendStatusUnused,
			CreatedAt:   r.now().UTC(),
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				continue
			}
			slog.Warn("trend insert failed", "combination", comb.Key(), "keyword", kw, "error", err)
			continue
		}
		added++
	}
	return added
}
