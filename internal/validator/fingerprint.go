package validator

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint derives the canonical listing id from what identifies a
// physical ad: where it was posted, who posted it, and what it says.
// Deterministic across processes; the sole deduplication key.
func Fingerprint(sourceURL, phoneClean, normalizedTitle string) string {
	h := sha256.New()
	h.Write([]byte(sourceURL))
	h.Write([]byte{'|'})
	h.Write([]byte(phoneClean))
	h.Write([]byte{'|'})
	h.Write([]byte(normalizedTitle))
	return hex.EncodeToString(h.Sum(nil))
}
