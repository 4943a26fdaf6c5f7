// Package quota owns the monthly discovery budget: per-credential usage
// tracking, combination priority, refresh selection and cross-partition
// trend sharing. The Manager is the single writer of quota state; all
// mutation happens under its mutex.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AhmedAllulu/articles-backend-sub000/internal/catalog"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/config"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/store"
	"github.com/AhmedAllulu/articles-backend-sub000/pkg/models"
)

// maxStaleHours caps the time factor for combinations that have never been
// fetched, so a cold start does not produce unbounded scores.
const maxStaleHours = 720

// Manager tracks credential usage against the monthly allocation and decides
// which combinations to refresh next.
type Manager struct {
	mu         sync.Mutex
	creds      []*models.Credential
	allocation int
	monthUsage int
	month      int
	year       int

	store  store.Store
	cat    *catalog.Catalog
	cfg    config.QuotaConfig
	trends config.TrendsConfig
	now    func() time.Time
}

func NewManager(st store.Store, cat *catalog.Catalog, cfg config.QuotaConfig, trends config.TrendsConfig) *Manager {
	return &Manager{
		store:  st,
		cat:    cat,
		cfg:    cfg,
		trends: trends,
		now:    time.Now,
	}
}

// LoadCredentials (re)builds the credential pool from config and loads the
// persisted usage for the current calendar month. Idempotent: called at
// startup, on manual reset, and by the month-boundary job. Absent ledger rows
// for a new month read as zero usage, which is the reset semantics.
func (m *Manager) LoadCredentials(ctx context.Context) error {
	if len(m.trends.APIKeys) == 0 {
		return fmt.Errorf("quota: no credentials configured")
	}

	now := m.now()
	month, year := int(now.Month()), now.Year()

	usage, err := m.store.MonthUsage(ctx, month, year)
	if err != nil {
		// Best-effort durability: start from zero and keep counting in memory.
		slog.Warn("quota ledger read failed, starting month from zero", "error", err)
		usage = map[string]int{}
	}

	creds := make([]*models.Credential, 0, len(m.trends.APIKeys))
	totalCap := 0
	used := 0
	for _, secret := range m.trends.APIKeys {
		cred := &models.Credential{
			ID:         models.CredentialID(secret),
			Secret:     secret,
			MonthlyCap: m.trends.MonthlyCapPerKey,
		}
		cred.UsageCount = usage[cred.ID]
		totalCap += cred.MonthlyCap
		used += cred.UsageCount
		creds = append(creds, cred)
	}

	m.mu.Lock()
	m.creds = creds
	m.allocation = int(math.Floor(float64(totalCap) * m.cfg.AllocationRatio))
	m.monthUsage = used
	m.month, m.year = month, year
	m.mu.Unlock()

	slog.Info("credentials loaded",
		"credentials", len(creds),
		"allocation", m.allocation,
		"used", used,
		"month", month,
		"year", year)
	return nil
}

// Remaining returns the unspent part of this month's allocation.
func (m *Manager) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.allocation - m.monthUsage
	if r < 0 {
		return 0
	}
	return r
}

// Priority scores one combination for refresh. A query failure while
// computing a factor degrades that factor to zero; a single partition's
// storage trouble must never abort a selection pass.
func (m *Manager) Priority(ctx context.Context, comb catalog.Combination) float64 {
	now := m.now()

	hours := 0.0
	last, err := m.store.LastTrendFetchAt(ctx, comb)
	switch {
	case err != nil:
		slog.Warn("priority: last fetch lookup failed", "combination", comb.Key(), "error", err)
	case last.IsZero():
		hours = maxStaleHours
	default:
		hours = now.Sub(last).Hours()
		if hours > maxStaleHours {
			hours = maxStaleHours
		}
	}

	recent := 0
	if n, err := m.store.CountRecentArticles(ctx, comb, now.Add(-m.cfg.RecentWindow)); err != nil {
		slog.Warn("priority: recent article count failed", "combination", comb.Key(), "error", err)
	} else {
		recent = n
	}

	scarcity := 0.0
	if unused, err := m.store.CountUnusedTrends(ctx, comb); err != nil {
		slog.Warn("priority: unused trend count failed", "combination", comb.Key(), "error", err)
	} else if short := m.cfg.TrendFloor - float64(unused); short > 0 {
		scarcity = short
	}

	return hours*m.cfg.WeightTime +
		float64(recent)*m.cfg.WeightUsage +
		m.cat.Importance(comb)*m.cfg.WeightImportance +
		scarcity*m.cfg.WeightScarcity
}

// SelectNextCombinations picks the next combinations to refresh, highest
// priority first. Unless forced, the call is refused outright when the
// remaining allocation cannot cover the request (the admission gate).
//
// Selection runs in two passes: the first takes at most one combination per
// language group so a burst of quota never concentrates on one market; the
// second fills leftover slots purely by score.
func (m *Manager) SelectNextCombinations(ctx context.Context, count int, force bool) []catalog.Combination {
	if count <= 0 {
		return nil
	}
	if !force && m.Remaining() < count {
		slog.Info("selection refused, insufficient quota", "requested", count, "remaining", m.Remaining())
		return nil
	}

	type scored struct {
		comb  catalog.Combination
		score float64
	}
	all := m.cat.All()
	list := make([]scored, 0, len(all))
	for _, comb := range all {
		list = append(list, scored{comb: comb, score: m.Priority(ctx, comb)})
	}
	// Stable sort over the catalog-ordered slice: ties keep catalog order.
	sort.SliceStable(list, func(i, j int) bool { return list[i].score > list[j].score })

	selected := make([]catalog.Combination, 0, count)
	taken := make([]bool, len(list))

	seenLang := make(map[string]bool)
	for i, s := range list {
		if len(selected) == count {
			break
		}
		lang, ok := m.cat.LanguageOf(s.comb.CountryCode)
		if !ok || seenLang[lang] {
			continue
		}
		seenLang[lang] = true
		taken[i] = true
		selected = append(selected, s.comb)
	}
	for i, s := range list {
		if len(selected) == count {
			break
		}
		if taken[i] {
			continue
		}
		selected = append(selected, s.comb)
	}
	return selected
}

// ShouldFetchNew applies the per-combination admission thresholds: enough
// stock, too-recent fetch, or an exhausted monthly allocation all refuse the
// fetch.
func (m *Manager) ShouldFetchNew(ctx context.Context, comb catalog.Combination) bool {
	m.mu.Lock()
	overBudget := m.monthUsage >= m.allocation
	m.mu.Unlock()
	if overBudget {
		return false
	}

	if unused, err := m.store.CountUnusedTrends(ctx, comb); err != nil {
		slog.Warn("shouldFetchNew: unused count failed", "combination", comb.Key(), "error", err)
	} else if unused >= m.cfg.MinUnusedTrends {
		return false
	}

	if last, err := m.store.LastTrendFetchAt(ctx, comb); err != nil {
		slog.Warn("shouldFetchNew: last fetch lookup failed", "combination", comb.Key(), "error", err)
	} else if !last.IsZero() && m.now().Sub(last) < m.cfg.MinRefreshInterval {
		return false
	}

	return true
}

// NextCredential returns the credential with the lowest usage that is still
// under its cap, or nil when all are saturated.
func (m *Manager) NextCredential() *models.Credential {
	m.mu.Lock()
	defer m.mu.Unlock()

	var best *models.Credential
	for _, c := range m.creds {
		if c.Saturated() {
			continue
		}
		if best == nil || c.UsageCount < best.UsageCount {
			best = c
		}
	}
	return best
}

// RecordUsage charges one call to the credential. The in-memory counter is
// authoritative; the ledger upsert is best-effort and a failed write only
// logs a warning.
func (m *Manager) RecordUsage(ctx context.Context, cred *models.Credential) {
	m.mu.Lock()
	cred.UsageCount++
	m.monthUsage++
	usage := cred.UsageCount
	month, year := m.month, m.year
	m.mu.Unlock()

	if err := m.store.UpsertUsage(ctx, cred.ID, month, year, usage); err != nil {
		slog.Warn("quota ledger write failed, in-memory counter remains authoritative",
			"credential", cred.ID, "error", err)
	}
}

// ShareBetweenPartitions copies surplus unused trends from the best-stocked
// country of each (category, language group) to its starved same-language
// peers. Zero-cost duplication instead of API calls where signal is reusable.
// Returns the total number of keywords copied.
func (m *Manager) ShareBetweenPartitions(ctx context.Context) (int, error) {
	total := 0
	groups := m.cat.LanguageGroups()

	for _, category := range m.cat.Categories() {
		for _, lang := range m.cat.Languages() {
			members := groups[lang]
			if len(members) < 2 {
				continue
			}
			total += m.shareGroup(ctx, category, members)
		}
	}
	return total, nil
}

func (m *Manager) shareGroup(ctx context.Context, category string, members []string) int {
	counts := make(map[string]int, len(members))
	source := ""
	sourceCount := -1
	for _, code := range members {
		comb := catalog.Combination{Category: category, CountryCode: code}
		n, err := m.store.CountUnusedTrends(ctx, comb)
		if err != nil {
			slog.Warn("sharing: unused count failed", "combination", comb.Key(), "error", err)
			continue
		}
		counts[code] = n
		if n > sourceCount {
			sourceCount = n
			source = code
		}
	}
	if source == "" || sourceCount < m.cfg.ShareSourceMin {
		return 0
	}

	sourceComb := catalog.Combination{Category: category, CountryCode: source}
	var keywords []string

	copied := 0
	for _, code := range members {
		if code == source {
			continue
		}
		n, ok := counts[code]
		if !ok || n >= m.cfg.ShareTargetBelow {
			continue
		}

		if keywords == nil {
			trends, err := m.store.UnusedTrends(ctx, sourceComb, m.cfg.ShareBatch)
			if err != nil {
				slog.Warn("sharing: source read failed", "combination", sourceComb.Key(), "error", err)
				return copied
			}
			keywords = make([]string, 0, len(trends))
			for _, t := range trends {
				keywords = append(keywords, t.Keyword)
			}
		}

		target := catalog.Combination{Category: category, CountryCode: code}
		for _, kw := range keywords {
			err := m.store.InsertTrend(ctx, &models.Trend{
				ID:          uuid.New(),
				Category:    target.Category,
				CountryCode: target.CountryCode,
				Keyword:     kw,
				Status:      models.TrendStatusUnused,
				CreatedAt:   m.now().UTC(),
			})
			if errors.Is(err, store.ErrDuplicateKey) {
				continue
			}
			if err != nil {
				slog.Warn("sharing: copy failed", "combination", target.Key(), "keyword", kw, "error", err)
				continue
			}
			copied++
		}
		slog.Info("trends shared", "from", sourceComb.Key(), "to", target.Key())
	}
	return copied
}
