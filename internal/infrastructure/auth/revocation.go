package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revocations invalidates tokens before they expire.
// Single tokens are revoked by jti on logout; every session of a user is
// revoked on suspension or password change.
type Revocations interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	RevokeUserSessions(ctx context.Context, userID string, ttl time.Duration) error
	// IsSessionRevoked reports whether a token issued at issuedAt predates the
	// user's last session revocation. Token iat has second precision, so a token
	// issued within the revoking second is revoked too.
	IsSessionRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// RedisRevocations stores revocations in Redis with TTLs matching token lifetime
type RedisRevocations struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewRedisRevocations(client redis.UniversalClient, keyPrefix string) *RedisRevocations {
	return &RedisRevocations{client: client, keyPrefix: keyPrefix + "auth:revoked:"}
}

func (r *RedisRevocations) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.keyPrefix+"jti:"+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (r *RedisRevocations) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.keyPrefix+"jti:"+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

func (r *RedisRevocations) RevokeUserSessions(ctx context.Context, userID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.keyPrefix+"user:"+userID, time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}
	return nil
}

func (r *RedisRevocations) IsSessionRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	raw, err := r.client.Get(ctx, r.keyPrefix+"user:"+userID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check session revocation: %w", err)
	}
	revokedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation timestamp: %w", err)
	}
	return issuedAt.Unix() <= revokedAt, nil
}

var _ Revocations = (*RedisRevocations)(nil)

// InMemoryRevocations is the single-instance fallback used when Redis is disabled
type InMemoryRevocations struct {
	mu       sync.Mutex
	tokens   map[string]time.Time // jti -> expiry
	sessions map[string]int64     // userID -> revoked at (unix seconds)
}

func NewInMemoryRevocations() *InMemoryRevocations {
	return &InMemoryRevocations{
		tokens:   make(map[string]time.Time),
		sessions: make(map[string]int64),
	}
}

func (m *InMemoryRevocations) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[jti] = time.Now().Add(ttl)
	return nil
}

func (m *InMemoryRevocations) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.tokens[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(m.tokens, jti)
		return false, nil
	}
	return true, nil
}

func (m *InMemoryRevocations) RevokeUserSessions(_ context.Context, userID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = time.Now().Unix()
	return nil
}

func (m *InMemoryRevocations) IsSessionRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	revokedAt, ok := m.sessions[userID]
	if !ok {
		return false, nil
	}
	return issuedAt.Unix() <= revokedAt, nil
}

var _ Revocations = (*InMemoryRevocations)(nil)
