package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/cardroomlabs/cardroom/internal/engine/game"
)

const (
	snapshotCachePrefix = "game_snapshot:"
	snapshotCacheTTL    = 1 * time.Hour
)

// CachedStore decorates a GameStore with a Redis read-through/write-through
// snapshot cache. Cache failures degrade to the inner store; they never fail
// a save or load.
type CachedStore struct {
	inner  GameStore
	client *redis.Client
}

// NewCachedStore wraps the inner store with a Redis cache.
func NewCachedStore(inner GameStore, client *redis.Client) *CachedStore {
	return &CachedStore{inner: inner, client: client}
}

func (c *CachedStore) Save(ctx context.Context, g *game.Game) error {
	if err := c.inner.Save(ctx, g); err != nil {
		return err
	}
	if data, err := json.Marshal(g); err == nil {
		c.client.Set(ctx, snapshotCachePrefix+g.ID.String(), data, snapshotCacheTTL)
	}
	return nil
}

func (c *CachedStore) Load(ctx context.Context, id uuid.UUID) (*game.Game, error) {
	key := snapshotCachePrefix + id.String()
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var g game.Game
		if err := json.Unmarshal(data, &g); err == nil {
			return &g, nil
		}
	}

	g, err := c.inner.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(g); err == nil {
		c.client.Set(ctx, key, data, snapshotCacheTTL)
	}
	return g, nil
}

func (c *CachedStore) FindDueGames(ctx context.Context, now time.Time, window time.Duration) ([]uuid.UUID, error) {
	return c.inner.FindDueGames(ctx, now, window)
}
