package corbeille

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// maxSnapshotTTL keeps cached queue views inside the polling interval so a
// dashboard refresh never renders a snapshot older than one cycle.
const maxSnapshotTTL = 60 * time.Second

// SnapshotCache stores rendered corbeille views in Redis for the polling
// dashboards. A cache miss or unreachable Redis is never an error; callers
// fall back to recomputing.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSnapshotCache builds the cache. A nil client disables caching.
func NewSnapshotCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	if ttl <= 0 || ttl > maxSnapshotTTL {
		ttl = maxSnapshotTTL
	}
	return &SnapshotCache{client: client, ttl: ttl, logger: logger}
}

func snapshotKey(role, actorID string) string {
	return fmt.Sprintf("corbeille:%s:%s", role, actorID)
}

// Get returns the cached partition for the role/actor pair, if any.
func (c *SnapshotCache) Get(ctx context.Context, role, actorID string) (*Partition, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, snapshotKey(role, actorID)).Bytes()
	if err != nil {
		return nil, false
	}
	var partition Partition
	if err := json.Unmarshal(raw, &partition); err != nil {
		c.logger.Warn("corrupt corbeille snapshot", zap.Error(err))
		return nil, false
	}
	return &partition, true
}

// Set stores the partition. Failures are logged and ignored.
func (c *SnapshotCache) Set(ctx context.Context, role, actorID string, partition *Partition) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(partition)
	if err != nil {
		c.logger.Warn("marshal corbeille snapshot", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, snapshotKey(role, actorID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("store corbeille snapshot", zap.Error(err))
	}
}
