package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/mkelcec/scalewatch/internal/store"
)

const snapshotKey = "scalewatch::state-snapshot"

// SnapshotCache keeps a short lived JSON copy of the state tree in redis
// so bursts of dashboard reads skip the store. Any dispatch invalidates it.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSnapshotCache(rdb *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		rdb: rdb,
		ttl: ttl,
	}
}

// Get returns the cached snapshot, or (nil, nil) on a cache miss.
func (c *SnapshotCache) Get(ctx context.Context) ([]byte, error) {
	val, err := c.rdb.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (c *SnapshotCache) Set(ctx context.Context, state store.ApplicationState) error {
	stateJson, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, snapshotKey, stateJson, c.ttl).Err()
}

func (c *SnapshotCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, snapshotKey).Err(); err != nil {
		log.Errorf("snapshot cache: invalidate: %s", err)
	}
}
