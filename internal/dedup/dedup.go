// Package dedup detects repeated article content within one ingestion run.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the hex SHA-256 digest of the UTF-8 text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Deduplicator remembers fingerprints seen during its lifetime. It is not
// safe for concurrent use; create one per run.
type Deduplicator struct {
	seen map[string]struct{}
}

// New returns an empty Deduplicator.
func New() *Deduplicator {
	return &Deduplicator{seen: map[string]struct{}{}}
}

// IsDuplicate reports whether text was already seen. Unseen text is
// recorded, so only the first call for a given text returns false.
func (d *Deduplicator) IsDuplicate(text string) bool {
	return d.Check(Fingerprint(text))
}

// Check is IsDuplicate for a precomputed fingerprint.
func (d *Deduplicator) Check(fingerprint string) bool {
	if d.seen == nil {
		d.seen = map[string]struct{}{}
	}
	if _, ok := d.seen[fingerprint]; ok {
		return true
	}
	d.seen[fingerprint] = struct{}{}
	return false
}

// Seen returns the number of distinct fingerprints recorded.
func (d *Deduplicator) Seen() int {
	return len(d.seen)
}
