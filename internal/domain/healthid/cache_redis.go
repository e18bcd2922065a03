package healthid

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cacheKeyPrefix = "healthid:known:"

// DefaultCacheTTL is used when CachedDirectory is created with a zero TTL.
const DefaultCacheTTL = 10 * time.Minute

// cacheStore is the subset of redis.Cmdable used by CachedDirectory.
type cacheStore interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedDirectory answers from Redis for numbers known to be registered and
// asks the next Directory otherwise. Only positive answers are cached since
// an issued number is never released. Redis failures degrade to the next
// Directory.
type CachedDirectory struct {
	cache  cacheStore
	next   Directory
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedDirectory(cache cacheStore, next Directory, ttl time.Duration, logger zerolog.Logger) *CachedDirectory {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedDirectory{cache: cache, next: next, ttl: ttl, logger: logger}
}

func (d *CachedDirectory) Exists(ctx context.Context, healthID string) (bool, error) {
	n, err := d.cache.Exists(ctx, cacheKeyPrefix+healthID).Result()
	if err != nil {
		d.logger.Debug().Err(err).Msg("health id cache lookup failed")
	} else if n > 0 {
		return true, nil
	}

	if d.next == nil {
		return false, nil
	}
	found, err := d.next.Exists(ctx, healthID)
	if err != nil {
		return false, err
	}
	if found {
		d.Remember(ctx, healthID)
	}
	return found, nil
}

// Remember marks healthID as registered.
func (d *CachedDirectory) Remember(ctx context.Context, healthID string) {
	if err := d.cache.Set(ctx, cacheKeyPrefix+healthID, 1, d.ttl).Err(); err != nil {
		d.logger.Debug().Err(err).Str("health_id", healthID).Msg("health id cache write failed")
	}
}
