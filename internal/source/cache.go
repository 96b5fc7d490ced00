package source

import (
	"context"
	"encoding/json"
	"log"
	"time"

	redis "github.com/redis/go-redis/v9"

	"carpool/internal/plan"
)

// CachedDistanceSource is a Redis read-through cache in front of a slower
// DistanceSource. Cache failures are logged and fall through to the inner
// source: the cache is an optimization, never a correctness dependency.
type CachedDistanceSource struct {
	Inner DistanceSource
	RDB   *redis.Client
	Key   string
	TTL   time.Duration
}

func NewCachedDistanceSource(inner DistanceSource, rdb *redis.Client, tenantID string, ttl time.Duration) *CachedDistanceSource {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedDistanceSource{Inner: inner, RDB: rdb, Key: "distances:" + tenantID, TTL: ttl}
}

func (s *CachedDistanceSource) FetchDistances(ctx context.Context) (plan.DistanceTable, error) {
	if data, err := s.RDB.Get(ctx, s.Key).Bytes(); err == nil {
		var table plan.DistanceTable
		if err := json.Unmarshal(data, &table); err == nil {
			return table, nil
		}
		// A corrupt entry is dropped and refetched.
		_ = s.RDB.Del(ctx, s.Key).Err()
	}
	table, err := s.Inner.FetchDistances(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(table); err == nil {
		if err := s.RDB.Set(ctx, s.Key, data, s.TTL).Err(); err != nil {
			log.Printf("distance cache set failed: %v", err)
		}
	}
	return table, nil
}
