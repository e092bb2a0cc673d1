package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/orgdir/backend/internal/domain/directory"
)

const activityCatalogueKey = "directory:activities:catalogue"

// ActivityCache caches the flat activity catalogue used to build trees
type ActivityCache interface {
	Get(ctx context.Context) ([]directory.Activity, bool, error)
	Set(ctx context.Context, activities []directory.Activity) error
	Invalidate(ctx context.Context) error
}

// DefaultActivityTTL bounds how long a cached catalogue may be served
const DefaultActivityTTL = 10 * time.Minute

// cachedActivity is the wire form of an activity inside the cache
type cachedActivity struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	Level     int       `json:"level"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func encodeCatalogue(activities []directory.Activity) ([]byte, error) {
	rows := make([]cachedActivity, 0, len(activities))
	for _, a := range activities {
		rows = append(rows, cachedActivity{
			ID:        a.ID,
			Name:      a.Name,
			ParentID:  a.ParentID,
			Level:     a.Level,
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		})
	}
	return json.Marshal(rows)
}

func decodeCatalogue(data []byte) ([]directory.Activity, error) {
	var rows []cachedActivity
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	activities := make([]directory.Activity, 0, len(rows))
	for _, r := range rows {
		a := directory.Activity{Name: r.Name, ParentID: r.ParentID, Level: r.Level}
		a.ID = r.ID
		a.CreatedAt = r.CreatedAt
		a.UpdatedAt = r.UpdatedAt
		activities = append(activities, a)
	}
	return activities, nil
}

// RedisActivityCache keeps the flat activity catalogue in Redis so every
// instance builds trees from the same snapshot
type RedisActivityCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisActivityCache creates a catalogue cache on an existing client.
// The caller keeps ownership of the client.
func NewRedisActivityCache(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisActivityCache {
	if ttl <= 0 {
		ttl = DefaultActivityTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisActivityCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached catalogue; ok is false on a miss
func (c *RedisActivityCache) Get(ctx context.Context) ([]directory.Activity, bool, error) {
	data, err := c.client.Get(ctx, activityCatalogueKey).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("Activity catalogue cache miss")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read activity catalogue from cache: %w", err)
	}

	activities, err := decodeCatalogue(data)
	if err != nil {
		// a corrupt entry is treated as a miss and dropped
		c.logger.Warn("Discarding undecodable activity catalogue", zap.Error(err))
		_ = c.client.Del(ctx, activityCatalogueKey).Err()
		return nil, false, nil
	}
	return activities, true, nil
}

// Set stores the catalogue
func (c *RedisActivityCache) Set(ctx context.Context, activities []directory.Activity) error {
	data, err := encodeCatalogue(activities)
	if err != nil {
		return fmt.Errorf("failed to encode activity catalogue: %w", err)
	}
	if err := c.client.Set(ctx, activityCatalogueKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write activity catalogue to cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached catalogue
func (c *RedisActivityCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, activityCatalogueKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate activity catalogue: %w", err)
	}
	return nil
}

var _ ActivityCache = (*RedisActivityCache)(nil)

// InMemoryActivityCache keeps the catalogue in process memory
type InMemoryActivityCache struct {
	mu         sync.RWMutex
	activities []directory.Activity
	expiresAt  time.Time
	ttl        time.Duration
	now        func() time.Time
}

// NewInMemoryActivityCache creates an in-memory catalogue cache
func NewInMemoryActivityCache(ttl time.Duration) *InMemoryActivityCache {
	if ttl <= 0 {
		ttl = DefaultActivityTTL
	}
	return &InMemoryActivityCache{ttl: ttl, now: time.Now}
}

// Get returns a copy of the cached catalogue; ok is false on a miss or after expiry
func (c *InMemoryActivityCache) Get(_ context.Context) ([]directory.Activity, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.activities == nil || c.now().After(c.expiresAt) {
		return nil, false, nil
	}
	return cloneActivities(c.activities), true, nil
}

// Set stores a copy of the catalogue
func (c *InMemoryActivityCache) Set(_ context.Context, activities []directory.Activity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activities = cloneActivities(activities)
	c.expiresAt = c.now().Add(c.ttl)
	return nil
}

// Invalidate drops the cached catalogue
func (c *InMemoryActivityCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activities = nil
	return nil
}

func cloneActivities(in []directory.Activity) []directory.Activity {
	out := make([]directory.Activity, len(in))
	for i, a := range in {
		a.Children = nil
		if a.ParentID != nil {
			parentID := *a.ParentID
			a.ParentID = &parentID
		}
		out[i] = a
	}
	return out
}

var _ ActivityCache = (*InMemoryActivityCache)(nil)
