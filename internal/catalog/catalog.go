// Package catalog is the static enumeration of content categories and
// countries. A (category, country) pair, a Combination, is the unit of
// scheduling granularity everywhere else in the system.
package catalog

import (
	"fmt"
	"sort"
)

// Combination identifies one independent unit of work.
type Combination struct {
	Category    string `json:"category"`
	CountryCode string `json:"country_code"`
}

// Key returns the canonical "category:country" form, used in logs and cache keys.
func (c Combination) Key() string {
	return c.Category + ":" + c.CountryCode
}

// Country is one market with its content language.
type Country struct {
	Code     string
	Language string
}

var categories = []string{
	"technology",
	"business",
	"sports",
	"health",
	"science",
	"entertainment",
}

var countries = []Country{
	{Code: "us", Language: "en"},
	{Code: "gb", Language: "en"},
	{Code: "au", Language: "en"},
	{Code: "ca", Language: "en"},
	{Code: "de", Language: "de"},
	{Code: "at", Language: "de"},
	{Code: "fr", Language: "fr"},
	{Code: "es", Language: "es"},
	{Code: "mx", Language: "es"},
	{Code: "sa", Language: "ar"},
	{Code: "ae", Language: "ar"},
	{Code: "jp", Language: "ja"},
}

// Static importance tables, values in [0,1]. Larger markets and broader
// categories score higher; these feed both refresh and generation priority.
var categoryImportance = map[string]float64{
	"technology":    1.0,
	"business":      0.9,
	"sports":        0.7,
	"health":        0.8,
	"science":       0.6,
	"entertainment": 0.7,
}

var countryImportance = map[string]float64{
	"us": 1.0,
	"gb": 0.9,
	"au": 0.7,
	"ca": 0.7,
	"de": 0.8,
	"at": 0.5,
	"fr": 0.8,
	"es": 0.7,
	"mx": 0.6,
	"sa": 0.6,
	"ae": 0.6,
	"jp": 0.8,
}

// Catalog exposes the combination space. Construct once at startup with New;
// construction fails on an inconsistent importance table rather than letting
// a missing entry silently skew scheduling.
type Catalog struct {
	combos []Combination
	index  map[Combination]int
	langs  map[string]string
}

// New validates the static tables and builds the catalog.
func New() (*Catalog, error) {
	for _, cat := range categories {
		if _, ok := categoryImportance[cat]; !ok {
			return nil, fmt.Errorf("catalog: category %q missing from importance table", cat)
		}
	}
	for _, co := range countries {
		if _, ok := countryImportance[co.Code]; !ok {
			return nil, fmt.Errorf("catalog: country %q missing from importance table", co.Code)
		}
		if co.Language == "" {
			return nil, fmt.Errorf("catalog: country %q has no language", co.Code)
		}
	}

	c := &Catalog{
		index: make(map[Combination]int),
		langs: make(map[string]string, len(countries)),
	}
	for _, cat := range categories {
		for _, co := range countries {
			comb := Combination{Category: cat, CountryCode: co.Code}
			c.index[comb] = len(c.combos)
			c.combos = append(c.combos, comb)
		}
	}
	for _, co := range countries {
		c.langs[co.Code] = co.Language
	}
	return c, nil
}

// All returns every combination in catalog order. The slice is shared; callers
// must not mutate it.
func (c *Catalog) All() []Combination {
	return c.combos
}

// Categories returns the category list in catalog order.
func (c *Catalog) Categories() []string {
	return categories
}

// Countries returns the country list in catalog order.
func (c *Catalog) Countries() []Country {
	return countries
}

// Valid reports whether the combination exists in the catalog.
func (c *Catalog) Valid(comb Combination) bool {
	_, ok := c.index[comb]
	return ok
}

// Index returns the catalog-order position of a combination, used as the
// deterministic tie-break when priority scores are equal.
func (c *Catalog) Index(comb Combination) int {
	i, ok := c.index[comb]
	if !ok {
		return len(c.combos)
	}
	return i
}

// LanguageOf returns the content language for a country code.
func (c *Catalog) LanguageOf(code string) (string, bool) {
	l, ok := c.langs[code]
	return l, ok
}

// LanguageGroups maps each language to its country codes, catalog-ordered.
// Countries sharing a language form one market group for trend sharing and
// selection diversification.
func (c *Catalog) LanguageGroups() map[string][]string {
	groups := make(map[string][]string)
	for _, co := range countries {
		groups[co.Language] = append(groups[co.Language], co.Code)
	}
	return groups
}

// Languages returns the distinct languages, sorted for deterministic iteration.
func (c *Catalog) Languages() []string {
	seen := make(map[string]bool)
	var out []string
	for _, co := range countries {
		if !seen[co.Language] {
			seen[co.Language] = true
			out = append(out, co.Language)
		}
	}
	sort.Strings(out)
	return out
}

// Importance combines the static category and country weights for a
// combination. The two weights are averaged so the result stays in [0,1]
// and neither axis dominates.
func (c *Catalog) Importance(comb Combination) float64 {
	catW, ok := categoryImportance[comb.Category]
	if !ok {
		return 0
	}
	countryW, ok := countryImportance[comb.CountryCode]
	if !ok {
		return 0
	}
	return (catW + countryW) / 2
}
