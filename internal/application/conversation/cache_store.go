package conversation

import (
	"context"
	"time"

	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/database/redis"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

const snapshotKeyPrefix = "session:"

// CacheSnapshotStore keeps snapshots in the Redis cache with a TTL.
type CacheSnapshotStore struct {
	cache redis.Cache
	ttl   time.Duration
}

// NewCacheSnapshotStore stores snapshots for ttl (zero uses the cache
// default).
func NewCacheSnapshotStore(cache redis.Cache, ttl time.Duration) *CacheSnapshotStore {
	return &CacheSnapshotStore{cache: cache, ttl: ttl}
}

func (s *CacheSnapshotStore) Save(ctx context.Context, snap Snapshot) error {
	return s.cache.Set(ctx, snapshotKeyPrefix+snap.ID, snap, s.ttl)
}

func (s *CacheSnapshotStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	var snap Snapshot
	err := s.cache.Get(ctx, snapshotKeyPrefix+id, &snap)
	if err == redis.ErrCacheMiss {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail("id=" + id)
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *CacheSnapshotStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, snapshotKeyPrefix+id)
}

//Personal.AI order the ending
