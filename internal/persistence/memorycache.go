package persistence

import (
	"context"
	"time"

	"github.com/allegro/bigcache/v3"
)

// NewSessionCache builds the in-memory cache backing ephemeral feedback
// sessions. Entries age out after the life window; sessions are short-lived
// UI state and are allowed to disappear.
func NewSessionCache() (*bigcache.BigCache, error) {
	return bigcache.New(context.Background(), bigcache.DefaultConfig(2*time.Hour))
}
