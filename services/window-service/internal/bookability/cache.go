package bookability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/window"
)

// Cache stores BookabilityMaps per event type and booker UTC offset.
type Cache interface {
	Get(ctx context.Context, eventTypeID string, bookerOffsetMinutes int) (window.BookabilityMap, bool, error)
	Put(ctx context.Context, eventTypeID string, bookerOffsetMinutes int, m window.BookabilityMap) error
}

type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration, prefix string) *RedisCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "bookability"
	}
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (c *RedisCache) key(eventTypeID string, bookerOffsetMinutes int) string {
	return Key(c.prefix, eventTypeID, bookerOffsetMinutes)
}

// Key is the cache key for an event type seen from a booker offset.
func Key(prefix, eventTypeID string, bookerOffsetMinutes int) string {
	return fmt.Sprintf("%s:%s:%d", prefix, eventTypeID, bookerOffsetMinutes)
}

func (c *RedisCache) Get(ctx context.Context, eventTypeID string, bookerOffsetMinutes int) (window.BookabilityMap, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(eventTypeID, bookerOffsetMinutes)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var m window.BookabilityMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false, fmt.Errorf("decode bookability: %w", err)
	}
	if m == nil {
		m = window.BookabilityMap{}
	}
	return m, true, nil
}

func (c *RedisCache) Put(ctx context.Context, eventTypeID string, bookerOffsetMinutes int, m window.BookabilityMap) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(eventTypeID, bookerOffsetMinutes), raw, c.ttl).Err()
}

func ReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if rdb == nil {
			return errors.New("redis not configured")
		}
		return rdb.Ping(ctx).Err()
	}
}
