package models

import (
	"time"

	"github.com/google/uuid"
)

// Article is one generated content item. SourceKeyword references the trend
// that spawned it by keyword rather than a foreign key: trends are swept by
// age and articles must outlive them.
type Article struct {
	ID            uuid.UUID  `db:"id"             json:"id"`
	Category      string     `db:"category"       json:"category"`
	CountryCode   string     `db:"country_code"   json:"country_code"`
	Title         string     `db:"title"          json:"title"`
	Body          string     `db:"body"           json:"body"`
	SourceKeyword string     `db:"source_keyword" json:"source_keyword"`
	Language      string     `db:"language"       json:"language"`
	MediaRef      *string    `db:"media_ref"      json:"media_ref,omitempty"`
	CreatedAt     time.Time  `db:"created_at"     json:"created_at"`
	UpdatedAt     *time.Time `db:"updated_at"     json:"updated_at,omitempty"`
}
