// internal/repository/cache.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"merchant-onboarding/internal/application"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/models"
)

const cacheKeyPrefix = "onboarding:application:"

func CacheKey(id string) string {
	return cacheKeyPrefix + id
}

// Cached is a read-through Redis cache in front of another Repository.
// Writes go to the backing store first and then overwrite the cached
// snapshot. Read-through fills only set an absent key, so a reader holding a
// row loaded before a write cannot replace the newer snapshot. Redis errors
// are logged and never fail a call.
type Cached struct {
	next   application.Repository
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCached(next application.Repository, client *redis.Client, ttl time.Duration, log logger.Logger) *Cached {
	return &Cached{
		next:   next,
		redis:  client,
		ttl:    ttl,
		logger: logger.Component(log, "application-cache"),
	}
}

func (c *Cached) Create(ctx context.Context, app *models.Application) error {
	if err := c.next.Create(ctx, app); err != nil {
		return err
	}
	c.store(ctx, app)
	return nil
}

func (c *Cached) Get(ctx context.Context, id string) (*models.Application, error) {
	key := CacheKey(id)

	val, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var app models.Application
		if err := json.Unmarshal(val, &app); err == nil {
			return &app, nil
		}
		c.logger.Warn("discarding undecodable cache entry", map[string]interface{}{"key": key})
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}

	app, err := c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, app)
	return app, nil
}

func (c *Cached) Update(ctx context.Context, app *models.Application, expected models.ApplicationStatus) error {
	if err := c.next.Update(ctx, app, expected); err != nil {
		return err
	}
	if c.store(ctx, app) {
		return nil
	}
	if err := c.redis.Del(ctx, CacheKey(app.ApplicationID)).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", map[string]interface{}{
			"applicationId": app.ApplicationID,
			"error":         err.Error(),
		})
	}
	return nil
}

// store overwrites the cached snapshot and reports whether it succeeded.
func (c *Cached) store(ctx context.Context, app *models.Application) bool {
	data, err := json.Marshal(app)
	if err != nil {
		return false
	}
	if err := c.redis.Set(ctx, CacheKey(app.ApplicationID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{
			"applicationId": app.ApplicationID,
			"error":         err.Error(),
		})
		return false
	}
	return true
}

// fill caches a snapshot read from the backing store unless a newer one
// is already there.
func (c *Cached) fill(ctx context.Context, app *models.Application) {
	data, err := json.Marshal(app)
	if err != nil {
		return
	}
	if err := c.redis.SetNX(ctx, CacheKey(app.ApplicationID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache fill failed", map[string]interface{}{
			"applicationId": app.ApplicationID,
			"error":         err.Error(),
		})
	}
}
