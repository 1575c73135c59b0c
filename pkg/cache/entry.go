package cache

import (
	"time"
)

// Entry is a cached product page.
type Entry struct {
	// Data is the decoded (uncompressed, UTF-8) HTML body.
	Data []byte `json:"data"`

	// ETag for If-None-Match revalidation.
	ETag string `json:"etag,omitempty"`

	// LastModified for If-Modified-Since revalidation.
	LastModified time.Time `json:"last_modified,omitempty"`

	// Expires is when the entry stops being served.
	Expires time.Time `json:"expires"`

	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type,omitempty"`

	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, or 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
