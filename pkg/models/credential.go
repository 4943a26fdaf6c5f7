package models

import (
	"crypto/sha256"
	"encoding/hex"
)

// Credential is one discovery API key with its own monthly call cap.
// UsageCount is monotonically increasing within a calendar month; the
// quota manager is the single writer.
type Credential struct {
	ID         string `json:"id"`
	Secret     string `json:"-"`
	UsageCount int    `json:"usage_count"`
	MonthlyCap int    `json:"monthly_cap"`
}

// Saturated reports whether the credential has no calls left this month.
func (c *Credential) Saturated() bool {
	return c.UsageCount >= c.MonthlyCap
}

// CredentialID derives a stable ledger identifier from a secret so the raw
// key never lands in the database. Reordering keys in config does not
// reassign usage rows.
func CredentialID(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])[:12]
}
