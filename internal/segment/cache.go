package segment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrCacheMiss is returned by Cache.Get when a key is absent or expired.
var ErrCacheMiss = errors.New("segment cache: key not found")

// Cache stores resolved segments between requests.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// redisCache implements Cache on top of Redis.
type redisCache struct {
	client redis.UniversalClient
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, addr, password string, db int) (Cache, func() error, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisCache{client: client}, client.Close, nil
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (c *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// memoryCache implements Cache in process. Expired entries are evicted on read.
type memoryCache struct {
	mu   sync.Mutex
	data map[string]cacheEntry
	now  func() time.Time
}

// NewMemoryCache creates an in-process Cache.
func NewMemoryCache() Cache {
	return &memoryCache{
		data: make(map[string]cacheEntry),
		now:  time.Now,
	}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return "", ErrCacheMiss
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.data, key)
		return "", ErrCacheMiss
	}
	return entry.value, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = cacheEntry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// noSegment marks a cached negative lookup. Segment identifiers are never empty.
const noSegment = ""

// cachingResolver memoises another Resolver, including users without a segment.
type cachingResolver struct {
	next   Resolver
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachingResolver wraps next with a cache. Cache failures are logged and
// the lookup falls through to next; resolution errors are never cached.
func NewCachingResolver(next Resolver, cache Cache, ttl time.Duration, logger zerolog.Logger) Resolver {
	return &cachingResolver{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "segment-cache").Logger(),
	}
}

func cacheKey(userID int64) string {
	return "segment:user:" + strconv.FormatInt(userID, 10)
}

func (r *cachingResolver) Resolve(ctx context.Context, userID int64) (string, bool, error) {
	key := cacheKey(userID)

	cached, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		return cached, cached != noSegment, nil
	case !errors.Is(err, ErrCacheMiss):
		r.logger.Warn().Err(err).Int64("user_id", userID).Msg("segment cache read failed")
	}

	segment, ok, err := r.next.Resolve(ctx, userID)
	if err != nil {
		return "", false, err
	}

	value := noSegment
	if ok {
		value = segment
	}
	if err := r.cache.Set(ctx, key, value, r.ttl); err != nil {
		r.logger.Warn().Err(err).Int64("user_id", userID).Msg("segment cache write failed")
	}

	return segment, ok, nil
}
