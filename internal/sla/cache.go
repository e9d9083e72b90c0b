package sla

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// maxTTL caps how stale a cached annotation may get. Dashboards poll; the
// cache only absorbs recomputation storms, it must never hide a tier change
// for more than a minute.
const maxTTL = 60 * time.Second

// Cache memoizes annotations for dashboard reads.
type Cache struct {
	store *gocache.Cache
}

// NewCache builds an annotation cache with the given TTL, capped at 60s.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 || ttl > maxTTL {
		ttl = maxTTL
	}
	return &Cache{store: gocache.New(ttl, 2*ttl)}
}

// Annotate returns the cached annotation for the item snapshot, computing
// and storing it on miss. The key includes the item version so any accepted
// transition invalidates naturally.
func (c *Cache) Annotate(item *domain.WorkItem, now time.Time) Annotation {
	if c == nil {
		return ComputeFor(item, now)
	}
	key := fmt.Sprintf("%s#%d", item.ID, item.Version)
	if cached, ok := c.store.Get(key); ok {
		if ann, ok := cached.(Annotation); ok {
			return ann
		}
	}
	ann := ComputeFor(item, now)
	c.store.SetDefault(key, ann)
	return ann
}
