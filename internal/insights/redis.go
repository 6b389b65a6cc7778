package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/julianstephens/moodlit/internal/constants"
	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/models"
)

// RedisCache shares insights between company service replicas. Each entry is
// a JSON value under prefix+key; a set per check-in id indexes the keys that
// contain it.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps client. A zero ttl keeps entries until invalidated.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: constants.InsightRedisPrefix, ttl: ttl}
}

// DialRedis connects and pings addr.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return client, nil
}

func (c *RedisCache) entryKey(key string) string {
	return c.prefix + key
}

func (c *RedisCache) indexKey(id int64) string {
	return c.prefix + "checkin:" + strconv.FormatInt(id, 10)
}

func (c *RedisCache) Get(ctx context.Context, key string) (models.Insight, error) {
	if key == "" {
		return models.Insight{}, ErrEmptyKey
	}
	raw, err := c.client.Get(ctx, c.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Insight{}, fmt.Errorf("insight %s: %w", key, apperrors.ErrNotFound)
	}
	if err != nil {
		return models.Insight{}, fmt.Errorf("redis get: %w", err)
	}

	var insight models.Insight
	if err := json.Unmarshal(raw, &insight); err != nil {
		return models.Insight{}, fmt.Errorf("decode insight %s: %w", key, err)
	}
	return insight, nil
}

func (c *RedisCache) Put(ctx context.Context, insight models.Insight) error {
	if insight.Key == "" {
		return ErrEmptyKey
	}
	if insight.CreatedAt.IsZero() {
		insight.CreatedAt = time.Now()
	}
	raw, err := json.Marshal(insight)
	if err != nil {
		return fmt.Errorf("encode insight: %w", err)
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.entryKey(insight.Key), raw, c.ttl)
		for _, id := range insight.CheckInIDs {
			idx := c.indexKey(id)
			pipe.SAdd(ctx, idx, insight.Key)
			if c.ttl > 0 {
				pipe.Expire(ctx, idx, c.ttl)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.entryKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *RedisCache) InvalidateCheckIn(ctx context.Context, id int64) (int, error) {
	idx := c.indexKey(id)
	keys, err := c.client.SMembers(ctx, idx).Result()
	if err != nil {
		return 0, fmt.Errorf("redis smembers: %w", err)
	}

	entries := make([]string, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, c.entryKey(k))
	}

	var removed int64
	if len(entries) > 0 {
		if removed, err = c.client.Del(ctx, entries...).Result(); err != nil {
			return 0, fmt.Errorf("redis del: %w", err)
		}
	}
	if err := c.client.Del(ctx, idx).Err(); err != nil {
		return int(removed), fmt.Errorf("redis del index: %w", err)
	}
	return int(removed), nil
}
