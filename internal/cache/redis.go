package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configure the redis-backed store.
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	Prefix      string
	DialTimeout time.Duration
}

// NewRedisClient dials redis and verifies the connection.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	timeout := opts.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return client, nil
}

// RedisStore keeps JSON-encoded entries in redis with a matching expiry.
type RedisStore[T any] struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client. Keys are namespaced by prefix.
func NewRedisStore[T any](client *redis.Client, prefix string) *RedisStore[T] {
	if prefix == "" {
		prefix = "livedash"
	}
	return &RedisStore[T]{client: client, prefix: prefix}
}

func (s *RedisStore[T]) Load(ctx context.Context, key string) (Entry[T], bool, error) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry[T]{}, false, nil
	}
	if err != nil {
		return Entry[T]{}, false, fmt.Errorf("redis get: %w", err)
	}
	var entry Entry[T]
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry[T]{}, false, fmt.Errorf("decode cache entry: %w", err)
	}
	return entry, true, nil
}

func (s *RedisStore[T]) Save(ctx context.Context, key string, entry Entry[T]) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := s.client.Set(ctx, s.redisKey(key), data, entry.TTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore[T]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// redisKey hashes the request url so keys stay short and free of spaces.
func (s *RedisStore[T]) redisKey(key string) string {
	return RedisKey(s.prefix, key)
}

// RedisKey renders the namespaced key used for a cache key.
func RedisKey(prefix, key string) string {
	sum := sha1.Sum([]byte(key))
	return fmt.Sprintf("%s:cache:%s", prefix, hex.EncodeToString(sum[:]))
}

var _ Store[int] = (*RedisStore[int])(nil)
