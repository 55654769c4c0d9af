package cache

import (
	"github.com/fablecraft/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewResponseStore picks redis when a client is available and falls back
// to the in-memory store otherwise.
func NewResponseStore(cfg config.CacheConfig, client redis.UniversalClient, logger *zap.Logger) ResponseStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client != nil {
		logger.Info("Response cache using Redis", zap.String("prefix", cfg.KeyPrefix), zap.Duration("ttl", cfg.TTL))
		return NewRedisStore(client, cfg.KeyPrefix)
	}
	logger.Info("Response cache using in-memory store",
		zap.Int("max_entries", cfg.MaxEntries),
		zap.Duration("ttl", cfg.TTL),
	)
	return NewMemoryStore(cfg.KeyPrefix, cfg.MaxEntries, cfg.SweepInterval)
}
