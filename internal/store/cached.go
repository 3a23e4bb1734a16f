package store

import (
	"context"
	"log"
	"time"

	"github.com/Danikxd/maturita-web/internal/cache"
	"github.com/Danikxd/maturita-web/internal/models"
)

// Cache TTLs per snapshot kind.
const (
	ttlChannels   = 10 * time.Minute
	ttlProgrammes = 30 * time.Minute
	ttlReminders  = 5 * time.Minute
)

// CachedStore wraps a Store with a Redis read-through layer.
// Saves write through to both; sessions are never cached.
type CachedStore struct {
	inner Store
	cache *cache.Redis
}

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner Store, c *cache.Redis) *CachedStore {
	return &CachedStore{inner: inner, cache: c}
}

func (c *CachedStore) SaveChannels(ctx context.Context, channels []models.Channel) error {
	if err := c.inner.SaveChannels(ctx, channels); err != nil {
		return err
	}
	c.set(ctx, cache.Key(KindChannels), channels, ttlChannels)
	return nil
}

func (c *CachedStore) LoadChannels(ctx context.Context) ([]models.Channel, error) {
	return readThrough(ctx, c, cache.Key(KindChannels), ttlChannels, c.inner.LoadChannels)
}

func (c *CachedStore) SaveProgrammes(ctx context.Context, date string, programmes []models.Programme) error {
	if err := c.inner.SaveProgrammes(ctx, date, programmes); err != nil {
		return err
	}
	c.set(ctx, cache.Key(KindProgrammes, date), programmes, ttlProgrammes)
	return nil
}

func (c *CachedStore) LoadProgrammes(ctx context.Context, date string) ([]models.Programme, error) {
	return readThrough(ctx, c, cache.Key(KindProgrammes, date), ttlProgrammes,
		func(ctx context.Context) ([]models.Programme, error) { return c.inner.LoadProgrammes(ctx, date) })
}

func (c *CachedStore) SaveReminders(ctx context.Context, userID string, reminders []models.Reminder) error {
	if err := c.inner.SaveReminders(ctx, userID, reminders); err != nil {
		return err
	}
	c.set(ctx, cache.Key(KindReminders, userID), reminders, ttlReminders)
	return nil
}

func (c *CachedStore) LoadReminders(ctx context.Context, userID string) ([]models.Reminder, error) {
	return readThrough(ctx, c, cache.Key(KindReminders, userID), ttlReminders,
		func(ctx context.Context) ([]models.Reminder, error) { return c.inner.LoadReminders(ctx, userID) })
}

// --- pass-through session operations ---

func (c *CachedStore) SaveSession(ctx context.Context, s models.Session) error {
	return c.inner.SaveSession(ctx, s)
}

func (c *CachedStore) LoadSession(ctx context.Context) (models.Session, error) {
	return c.inner.LoadSession(ctx)
}

func (c *CachedStore) ClearSession(ctx context.Context) error {
	// reminder snapshots of the departing user stay in the backend but leave the cache
	if err := cache.DelPattern(ctx, c.cache, cache.Key(KindReminders, "*")); err != nil {
		log.Printf("cache: invalidate reminders: %v", err)
	}
	return c.inner.ClearSession(ctx)
}

func (c *CachedStore) Close() error {
	return c.inner.Close()
}

func (c *CachedStore) set(ctx context.Context, key string, v any, ttl time.Duration) {
	if err := cache.Set(ctx, c.cache, key, v, ttl); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
}

func readThrough[T any](ctx context.Context, c *CachedStore, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if v, err := cache.Get[T](ctx, c.cache, key); err == nil {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.set(ctx, key, v, ttl)
	return v, nil
}
