package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore remembers tokens invalidated before their expiry.
//
// Single tokens are revoked by JTI on logout. Every session of a writer is
// revoked on password change by recording a cut-off time: tokens issued
// before it are rejected.
type RevocationStore interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error
	IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

const defaultRevocationPrefix = "fablecraft:revoked:"

// RedisRevocationStore keeps revocations in redis so they survive restarts
// and are shared between instances
type RedisRevocationStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRevocationStore uses an existing client
func NewRedisRevocationStore(client redis.UniversalClient) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, prefix: defaultRevocationPrefix}
}

func (s *RedisRevocationStore) jtiKey(jti string) string {
	return s.prefix + "jti:" + jti
}

func (s *RedisRevocationStore) userKey(userID string) string {
	return s.prefix + "user:" + userID
}

// RevokeToken implements RevocationStore
func (s *RedisRevocationStore) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked implements RevocationStore
func (s *RedisRevocationStore) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, s.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

// RevokeUser implements RevocationStore
func (s *RedisRevocationStore) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	cutoff := strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := s.client.Set(ctx, s.userKey(userID), cutoff, ttl).Err(); err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	return nil
}

// IsUserRevoked implements RevocationStore
func (s *RedisRevocationStore) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	raw, err := s.client.Get(ctx, s.userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check user revocation: %w", err)
	}
	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("parse revocation cutoff: %w", err)
	}
	return issuedAt.Before(time.Unix(0, cutoff).Truncate(time.Second)), nil
}

var _ RevocationStore = (*RedisRevocationStore)(nil)

// MemoryRevocationStore is the single-instance fallback used when redis is
// not configured
type MemoryRevocationStore struct {
	mu      sync.Mutex
	tokens  map[string]time.Time
	cutoffs map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocationStore creates an empty store
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		tokens:  make(map[string]time.Time),
		cutoffs: make(map[string]time.Time),
		now:     time.Now,
	}
}

// RevokeToken implements RevocationStore
func (s *MemoryRevocationStore) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[jti] = s.now().Add(ttl)
	return nil
}

// IsTokenRevoked implements RevocationStore. Expired entries are dropped
// lazily.
func (s *MemoryRevocationStore) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.tokens[jti]
	if !ok {
		return false, nil
	}
	if s.now().After(exp) {
		delete(s.tokens, jti)
		return false, nil
	}
	return true, nil
}

// RevokeUser implements RevocationStore
func (s *MemoryRevocationStore) RevokeUser(_ context.Context, userID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs[userID] = s.now()
	return nil
}

// IsUserRevoked implements RevocationStore. JWT timestamps have second
// precision, so tokens issued within the cut-off second stay valid and a
// login right after a password change works.
func (s *MemoryRevocationStore) IsUserRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff, ok := s.cutoffs[userID]
	if !ok {
		return false, nil
	}
	return issuedAt.Before(cutoff.Truncate(time.Second)), nil
}

var _ RevocationStore = (*MemoryRevocationStore)(nil)
