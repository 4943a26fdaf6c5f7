package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TrendStatusUnused = "unused"
	TrendStatusUsed   = "used"
)

// Trend is a discovered keyword for one (category, country) combination.
// Keywords are unique within a combination; a trend is consumed exactly once
// by article generation, after which UsedAt is set and never changes.
type Trend struct {
	ID          uuid.UUID  `db:"id"           json:"id"`
	Category    string     `db:"category"     json:"category"`
	CountryCode string     `db:"country_code" json:"country_code"`
	Keyword     string     `db:"keyword"      json:"keyword"`
	Status      string     `db:"status"       json:"status"`
	CreatedAt   time.Time  `db:"created_at"   json:"created_at"`
	UsedAt      *time.Time `db:"used_at"      json:"used_at,omitempty"`
}
