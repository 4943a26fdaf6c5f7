package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DraftKey identifies a cached generation result. Keywords are free text from
// the discovery API, so they are hashed rather than embedded in the key.
func DraftKey(keyword, language, country string) string {
	sum := sha256.Sum256([]byte(keyword + "\x00" + language + "\x00" + country))
	return fmt.Sprintf("draft:%s:%s:%s", language, country, hex.EncodeToString(sum[:])[:16])
}
