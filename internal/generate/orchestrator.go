// Package generate runs the article production cycle: pick the combinations
// most starved for fresh content, spend one trend keyword on each, and
// persist the drafted article.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/AhmedAllulu/articles-backend-sub000/internal/catalog"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/config"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/content"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/images"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/store"
	"github.com/AhmedAllulu/articles-backend-sub000/pkg/models"
)

// neverProducedDays stands in for the staleness factor of a combination that
// has no articles yet, keeping cold partitions at the front of the queue.
const neverProducedDays = 30

const (
	OutcomeCompleted = "completed"
	OutcomePartial   = "partial"
	OutcomeSkipped   = "skipped"
)

// Options control one cycle. Force lets a manual trigger run outside the
// favorable window; the daily cap is enforced regardless.
type Options struct {
	DailyCap        int
	MaxCombinations int
	Force           bool
}

// CycleStats reports what one cycle did.
type CycleStats struct {
	Outcome         string         `json:"outcome"`
	Reason          string         `json:"reason,omitempty"`
	Attempted       int            `json:"attempted"`
	Succeeded       int            `json:"succeeded"`
	Failed          int            `json:"failed"`
	SkippedNoTrends int            `json:"skipped_no_trends"`
	PerCategory     map[string]int `json:"per_category,omitempty"`
}

type Orchestrator struct {
	store  store.Store
	cat    *catalog.Catalog
	gen    content.Generator
	images images.Client
	cfg    config.GenerateConfig
	loc    *time.Location
	now    func() time.Time
}

func NewOrchestrator(st store.Store, cat *catalog.Catalog, gen content.Generator, img images.Client, cfg config.GenerateConfig, loc *time.Location) *Orchestrator {
	return &Orchestrator{
		store:  st,
		cat:    cat,
		gen:    gen,
		images: img,
		cfg:    cfg,
		loc:    loc,
		now:    time.Now,
	}
}

// RunCycle executes one generation pass. A refused gate is a normal outcome,
// not an error; errors are reserved for conditions that abort the whole
// cycle before any work is attempted.
func (o *Orchestrator) RunCycle(ctx context.Context, opts Options) (*CycleStats, error) {
	now := o.now().In(o.loc)
	stats := &CycleStats{PerCategory: map[string]int{}}

	if !opts.Force && !o.inWindow(now) {
		stats.Outcome = OutcomeSkipped
		stats.Reason = "outside_window"
		slog.Info("generation skipped, outside favorable window", "hour", now.Hour())
		return stats, nil
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, o.loc)
	produced, err := o.store.CountArticlesSince(ctx, midnight)
	if err != nil {
		return nil, fmt.Errorf("counting today's articles: %w", err)
	}
	if produced >= opts.DailyCap {
		stats.Outcome = OutcomeSkipped
		stats.Reason = "daily_cap_reached"
		slog.Info("generation skipped, daily cap reached", "produced", produced, "cap", opts.DailyCap)
		return stats, nil
	}
	budget := opts.DailyCap - produced

	targets := o.selectTargets(ctx, min(budget, opts.MaxCombinations))
	if len(targets) == 0 {
		stats.Outcome = OutcomeSkipped
		stats.Reason = "no_eligible_combinations"
		return stats, nil
	}

	for _, comb := range targets {
		stats.Attempted++
		if err := o.produceOne(ctx, comb); err != nil {
			if errors.Is(err, errNoTrends) {
				stats.Attempted--
				stats.SkippedNoTrends++
				continue
			}
			stats.Failed++
			slog.Error("article production failed", "combination", comb.Key(), "error", err)
			continue
		}
		stats.Succeeded++
		stats.PerCategory[comb.Category]++
	}

	stats.Outcome = OutcomeCompleted
	if stats.Failed > 0 {
		stats.Outcome = OutcomePartial
	}
	slog.Info("generation cycle finished",
		"outcome", stats.Outcome,
		"attempted", stats.Attempted,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed)
	return stats, nil
}

func (o *Orchestrator) inWindow(now time.Time) bool {
	h := now.Hour()
	return h >= o.cfg.WindowStartHour && h < o.cfg.WindowEndHour
}

// selectTargets scores every combination holding enough unused trends and
// returns the top ones, highest need first.
func (o *Orchestrator) selectTargets(ctx context.Context, limit int) []catalog.Combination {
	if limit <= 0 {
		return nil
	}

	type scored struct {
		comb  catalog.Combination
		score float64
	}
	var eligible []scored
	for _, comb := range o.cat.All() {
		unused, err := o.store.CountUnusedTrends(ctx, comb)
		if err != nil {
			slog.Warn("target selection: unused count failed", "combination", comb.Key(), "error", err)
			continue
		}
		if unused < o.cfg.MinTrendsToGenerate {
			continue
		}
		eligible = append(eligible, scored{comb: comb, score: o.score(ctx, comb, unused)})
	}

	sort.SliceStable(eligible, func(i, j int) bool { return eligible[i].score > eligible[j].score })
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}

	out := make([]catalog.Combination, 0, len(eligible))
	for _, s := range eligible {
		out = append(out, s.comb)
	}
	return out
}

func (o *Orchestrator) score(ctx context.Context, comb catalog.Combination, unused int) float64 {
	days := float64(neverProducedDays)
	last, err := o.store.LastArticleAt(ctx, comb)
	if err != nil {
		slog.Warn("target selection: last article lookup failed", "combination", comb.Key(), "error", err)
	} else if !last.IsZero() {
		days = o.now().Sub(last).Hours() / 24
		if days > neverProducedDays {
			days = neverProducedDays
		}
	}

	return float64(unused)*o.cfg.WeightUnused +
		days*o.cfg.WeightStaleness +
		o.cat.Importance(comb)*o.cfg.WeightImportance
}

var errNoTrends = errors.New("no unused trends")

// produceOne spends the newest unused trend of the combination on a single
// article. The trend is marked used only after the article is stored, so a
// failed generation never burns a keyword.
func (o *Orchestrator) produceOne(ctx context.Context, comb catalog.Combination) error {
	trends, err := o.store.UnusedTrends(ctx, comb, 1)
	if err != nil {
		return fmt.Errorf("loading trends for %s: %w", comb.Key(), err)
	}
	if len(trends) == 0 {
		return errNoTrends
	}
	trend := trends[0]

	lang, ok := o.cat.LanguageOf(comb.CountryCode)
	if !ok {
		return fmt.Errorf("no language for country %s", comb.CountryCode)
	}

	draft, err := o.gen.Generate(ctx, trend.Keyword, lang, comb.CountryCode)
	if err != nil {
		return fmt.Errorf("generating draft for %q: %w", trend.Keyword, err)
	}

	article := &models.Article{
		ID:            uuid.New(),
		Category:      comb.Category,
		CountryCode:   comb.CountryCode,
		Title:         draft.Title,
		Body:          draft.Body,
		SourceKeyword: trend.Keyword,
		Language:      lang,
		CreatedAt:     o.now().UTC(),
	}

	if url, err := o.images.Search(ctx, trend.Keyword); err != nil {
		slog.Warn("image lookup failed, publishing without media", "keyword", trend.Keyword, "error", err)
	} else {
		article.MediaRef = &url
	}

	if err := o.store.InsertArticle(ctx, article); err != nil {
		return fmt.Errorf("storing article for %q: %w", trend.Keyword, err)
	}

	if err := o.store.MarkTrendUsed(ctx, trend.ID); err != nil {
		// The article is already stored; losing the mark means the keyword may
		// be spent twice, which is preferable to losing the article.
		slog.Warn("marking trend used failed", "trend", trend.ID, "error", err)
	}

	slog.Info("article generated",
		"combination", comb.Key(),
		"keyword", trend.Keyword,
		"provider", draft.Provider)
	return nil
}
