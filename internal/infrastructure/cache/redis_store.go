package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fablecraft/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint for SCAN during invalidation
const scanBatch = 200

// NewRedisClient connects to redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisStore is a ResponseStore shared by every API instance
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store on an existing client. The client is
// owned by the caller and is not closed by Close.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Get loads and decodes an entry
func (s *RedisStore) Get(ctx context.Context, ownerID, key string) (*Entry, bool, error) {
	data, err := s.client.Get(ctx, ownerKey(s.prefix, ownerID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return &entry, true, nil
}

// Set stores an entry with an expiry
func (s *RedisStore) Set(ctx context.Context, ownerID, key string, entry *Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := s.client.Set(ctx, ownerKey(s.prefix, ownerID, key), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// InvalidateOwner scans the owner's key space and deletes it
func (s *RedisStore) InvalidateOwner(ctx context.Context, ownerID string) (int, error) {
	pattern := ownerPrefix(s.prefix, ownerID) + "*"
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("cache scan: %w", err)
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("cache delete: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

// Close is a no-op; the client belongs to the caller
func (s *RedisStore) Close() error {
	return nil
}

var _ ResponseStore = (*RedisStore)(nil)
