package feeds

import (
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// Item is one candidate article pulled from a source feed.
type Item struct {
	Source      string
	URL         string
	Title       string
	Summary     string
	Author      string
	ImageURL    string
	PublishedAt *time.Time
	Fingerprint string
}

// Fingerprint derives the stable identity of a source item. The same source
// key and URL always produce the same fingerprint, which is what the exact
// dedup stage keys on.
func Fingerprint(sourceKey, itemURL string) string {
	sum := sha1.Sum([]byte(sourceKey + itemURL))
	return hex.EncodeToString(sum[:])
}
