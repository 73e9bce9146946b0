// Package cache holds the shared cache backends.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	corecache "github.com/kilianp07/evsched/core/cache"
	"github.com/kilianp07/evsched/core/factory"
)

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr      string        `json:"addr"`
	Password  string        `json:"password"`
	DB        int           `json:"db"`
	TTL       time.Duration `json:"ttl"`
	KeyPrefix string        `json:"key_prefix"`
}

// RedisCache stores entries as JSON strings.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisClient creates a client and verifies connectivity.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}
	return client, nil
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, ttl time.Duration, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "evsched:solve:"
	}
	return &RedisCache{client: client, ttl: ttl, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (corecache.Entry, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return corecache.Entry{}, false, nil
	}
	if err != nil {
		return corecache.Entry{}, false, err
	}
	var e corecache.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return corecache.Entry{}, false, fmt.Errorf("redis: decode entry: %w", err)
	}
	return e, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, e corecache.Entry) error {
	if !corecache.Cacheable(e) {
		return corecache.ErrNotCacheable
	}
	if e.StoredAt.IsZero() {
		e.StoredAt = time.Now()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, b, c.ttl).Err()
}

// Close releases the client.
func (c *RedisCache) Close() error { return c.client.Close() }

func init() {
	_ = corecache.Register("redis", func(conf map[string]any) (corecache.Cache, error) {
		var cfg RedisConfig
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, err
		}
		if cfg.Addr == "" {
			return nil, errors.New("redis: addr is required")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewRedisCache(client, cfg.TTL, cfg.KeyPrefix), nil
	})
}
