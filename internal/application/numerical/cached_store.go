package numerical

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/database/redis"
)

const DefaultAggregateTTL = time.Minute

// CachedStore memoizes Count and Sum in the Redis cache. Query passes
// through because rows are bounded and change often.
type CachedStore struct {
	next  DataStore
	cache redis.Cache
	ttl   time.Duration
}

func NewCachedStore(next DataStore, cache redis.Cache, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultAggregateTTL
	}
	return &CachedStore{next: next, cache: cache, ttl: ttl}
}

func (c *CachedStore) Count(ctx context.Context, table string, filters []Predicate) (int64, error) {
	var n int64
	err := c.cache.GetOrSet(ctx, aggregateKey("count", table, "", filters), &n, c.ttl, func(ctx context.Context) (interface{}, error) {
		return c.next.Count(ctx, table, filters)
	})
	return n, err
}

func (c *CachedStore) Sum(ctx context.Context, table, column string, filters []Predicate) (float64, error) {
	var v float64
	err := c.cache.GetOrSet(ctx, aggregateKey("sum", table, column, filters), &v, c.ttl, func(ctx context.Context) (interface{}, error) {
		return c.next.Sum(ctx, table, column, filters)
	})
	return v, err
}

func (c *CachedStore) Query(ctx context.Context, table string, filters []Predicate, limit int) ([]Row, error) {
	return c.next.Query(ctx, table, filters, limit)
}

func aggregateKey(op, table, column string, filters []Predicate) string {
	b, _ := json.Marshal(filters)
	hash := sha256.Sum256(b)
	return fmt.Sprintf("num:%s:%s:%s:%s", op, table, column, hex.EncodeToString(hash[:8]))
}

//Personal.AI order the ending
