package cache

import (
	"strings"
)

// keyPrefix namespaces all page entries in Redis.
const keyPrefix = "booktopia:page"

// Key identifies a cached product page.
type Key struct {
	ISBN string
}

// String returns the Redis key, e.g. booktopia:page:9780143127550.
func (k Key) String() string {
	return keyPrefix + ":" + strings.TrimSpace(k.ISBN)
}
