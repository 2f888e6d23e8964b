package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"BNBChain-Agent/internal/web3"
	"BNBChain-Agent/pkg/logger"

	"github.com/redis/go-redis/v9"
)

var errCacheMiss = errors.New("cache miss")

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisConfig describes the Redis connection backing the token cache.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

type redisStore struct {
	client *redis.Client
}

func (s redisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", errCacheMiss
	}
	return value, err
}

func (s redisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// CachedDirectory memoises lookups of another directory. Cache failures are
// logged and never fail a lookup.
type CachedDirectory struct {
	store  kvStore
	next   Directory
	prefix string
	ttl    time.Duration
	closer func() error
	log    *slog.Logger
}

// NewRedisCache connects to Redis and wraps next.
func NewRedisCache(ctx context.Context, cfg RedisConfig, next Directory) (*CachedDirectory, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	cache := newCachedDirectory(redisStore{client: client}, next, cfg.Prefix, cfg.TTL)
	cache.closer = client.Close
	return cache, nil
}

func newCachedDirectory(store kvStore, next Directory, prefix string, ttl time.Duration) *CachedDirectory {
	if prefix == "" {
		prefix = "bnbagent:token"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedDirectory{
		store:  store,
		next:   next,
		prefix: prefix,
		ttl:    ttl,
		log:    logger.Named("tokens"),
	}
}

func (c *CachedDirectory) key(chain web3.Chain, symbol string) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, chain, NormalizeSymbol(symbol))
}

func (c *CachedDirectory) Lookup(ctx context.Context, chain web3.Chain, symbol string) (Token, error) {
	key := c.key(chain, symbol)
	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var token Token
		if decodeErr := json.Unmarshal([]byte(raw), &token); decodeErr == nil {
			return token, nil
		}
		c.log.Warn("discarding corrupt token cache entry", slog.String("key", key))
	case !errors.Is(err, errCacheMiss):
		c.log.Warn("token cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	token, err := c.next.Lookup(ctx, chain, symbol)
	if err != nil {
		return Token{}, err
	}
	if encoded, encErr := json.Marshal(token); encErr == nil {
		if setErr := c.store.Set(ctx, key, string(encoded), c.ttl); setErr != nil {
			c.log.Warn("token cache write failed", slog.String("key", key), slog.Any("error", setErr))
		}
	}
	return token, nil
}

// Close releases the Redis connection.
func (c *CachedDirectory) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}
	return c.closer()
}

var _ Directory = (*CachedDirectory)(nil)
