package cache

import (
	"context"
	"strings"
	"time"
)

// Entry is a cached HTTP response
type Entry struct {
	Status      int       `json:"status"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	StoredAt    time.Time `json:"stored_at"`
}

// ResponseStore holds cached responses keyed per owner
type ResponseStore interface {
	Get(ctx context.Context, ownerID, key string) (*Entry, bool, error)
	Set(ctx context.Context, ownerID, key string, entry *Entry, ttl time.Duration) error
	// InvalidateOwner drops every entry of the owner and returns how many went
	InvalidateOwner(ctx context.Context, ownerID string) (int, error)
	Close() error
}

// ownerKey builds "<prefix><owner>:<key>"
func ownerKey(prefix, ownerID, key string) string {
	var b strings.Builder
	b.Grow(len(prefix) + len(ownerID) + len(key) + 1)
	b.WriteString(prefix)
	b.WriteString(ownerID)
	b.WriteByte(':')
	b.WriteString(key)
	return b.String()
}

func ownerPrefix(prefix, ownerID string) string {
	return prefix + ownerID + ":"
}
