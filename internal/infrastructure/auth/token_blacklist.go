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

// TokenBlacklist revokes access tokens before they expire
type TokenBlacklist interface {
	// AddToBlacklist revokes a single token by its JTI for ttl
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error

	// IsBlacklisted checks if a token's JTI has been revoked
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// InvalidateUserTokens revokes every token of a user issued up to now
	InvalidateUserTokens(ctx context.Context, userID int64, ttl time.Duration) error

	// IsUserTokenInvalidated reports whether a token issued at issuedAt was revoked
	// by a later InvalidateUserTokens call. Token issue times have second
	// precision, so tokens issued within the invalidation second stay valid.
	IsUserTokenInvalidated(ctx context.Context, userID int64, issuedAt time.Time) (bool, error)
}

const blacklistKeyPrefix = "directory:token:"

// RedisTokenBlacklist implements TokenBlacklist using Redis so revocations are
// shared between instances
type RedisTokenBlacklist struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisTokenBlacklist creates a token blacklist on an existing Redis client
func NewRedisTokenBlacklist(client redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{
		client:    client,
		keyPrefix: blacklistKeyPrefix,
	}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) userKey(userID int64) string {
	return b.keyPrefix + "user:" + strconv.FormatInt(userID, 10)
}

// AddToBlacklist adds a token's JTI to the blacklist
func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsBlacklisted checks if a token's JTI is in the blacklist
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}

// InvalidateUserTokens stores the current Unix second; tokens issued before it are rejected
func (b *RedisTokenBlacklist) InvalidateUserTokens(ctx context.Context, userID int64, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.userKey(userID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to invalidate user tokens: %w", err)
	}
	return nil
}

// IsUserTokenInvalidated checks if a token was issued before the user's invalidation timestamp
func (b *RedisTokenBlacklist) IsUserTokenInvalidated(ctx context.Context, userID int64, issuedAt time.Time) (bool, error) {
	invalidatedAt, err := b.client.Get(ctx, b.userKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user token invalidation: %w", err)
	}
	return issuedAt.Unix() < invalidatedAt, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist keeps revocations in process memory. It is used when
// Redis is not configured and only suits a single instance.
type InMemoryTokenBlacklist struct {
	mu          sync.Mutex
	jtis        map[string]time.Time // JTI -> expiration time
	invalidated map[int64]time.Time  // user ID -> invalidation time
	now         func() time.Time
}

// NewInMemoryTokenBlacklist creates a new in-memory token blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		jtis:        make(map[string]time.Time),
		invalidated: make(map[int64]time.Time),
		now:         time.Now,
	}
}

// AddToBlacklist adds a token's JTI to the in-memory blacklist
func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.purgeLocked()
	b.jtis[jti] = b.now().Add(ttl)
	return nil
}

// IsBlacklisted checks if a token's JTI is blacklisted and not yet expired
func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiration, ok := b.jtis[jti]
	if !ok {
		return false, nil
	}
	if b.now().After(expiration) {
		delete(b.jtis, jti)
		return false, nil
	}
	return true, nil
}

// InvalidateUserTokens revokes every token of a user issued up to now
func (b *InMemoryTokenBlacklist) InvalidateUserTokens(_ context.Context, userID int64, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.invalidated[userID] = b.now().Truncate(time.Second)
	return nil
}

// IsUserTokenInvalidated checks if a token was issued before the user's invalidation time
func (b *InMemoryTokenBlacklist) IsUserTokenInvalidated(_ context.Context, userID int64, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	invalidatedAt, ok := b.invalidated[userID]
	if !ok {
		return false, nil
	}
	return issuedAt.Before(invalidatedAt), nil
}

// purgeLocked drops expired entries so the map does not grow without bound
func (b *InMemoryTokenBlacklist) purgeLocked() {
	now := b.now()
	for jti, exp := range b.jtis {
		if now.After(exp) {
			delete(b.jtis, jti)
		}
	}
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
