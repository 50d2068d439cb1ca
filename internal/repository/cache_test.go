package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/internal/application"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/models"
)

func newMiniredisCache(t *testing.T) (*Cached, *application.MemoryRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	backing := application.NewMemoryRepository()
	return NewCached(backing, client, 5*time.Minute, logger.NewTestLogger(t)), backing, mr
}

func TestCached_CreateWritesThrough(t *testing.T) {
	cache, backing, mr := newMiniredisCache(t)
	app := createTestApplication()

	require.NoError(t, cache.Create(context.Background(), app))

	assert.True(t, mr.Exists(CacheKey(app.ApplicationID)))
	assert.Equal(t, 5*time.Minute, mr.TTL(CacheKey(app.ApplicationID)))

	stored, err := backing.Get(context.Background(), app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, app.ApplicationID, stored.ApplicationID)
}

func TestCached_ReadThrough(t *testing.T) {
	cache, backing, mr := newMiniredisCache(t)
	ctx := context.Background()
	app := createTestApplication()
	require.NoError(t, backing.Create(ctx, app))

	got, err := cache.Get(ctx, app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	require.True(t, mr.Exists(CacheKey(app.ApplicationID)))

	// Served from Redis even though the backing store no longer agrees.
	contracted := app.Clone()
	contracted.Status = models.StatusContracted
	require.NoError(t, backing.Update(ctx, contracted, models.StatusApproved))

	cached, err := cache.Get(ctx, app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, cached.Status)
	assert.True(t, app.Terms.Rate.Equal(cached.Terms.Rate))
}

func TestCached_UpdateRefreshesEntry(t *testing.T) {
	cache, _, mr := newMiniredisCache(t)
	ctx := context.Background()
	app := createTestApplication()
	require.NoError(t, cache.Create(ctx, app))

	contracted := app.Clone()
	contracted.Status = models.StatusContracted
	contracted.ContractID = "CONTRACT-20240601-AAAAAAAA"
	require.NoError(t, cache.Update(ctx, contracted, models.StatusApproved))

	require.True(t, mr.Exists(CacheKey(app.ApplicationID)))
	assert.Equal(t, 5*time.Minute, mr.TTL(CacheKey(app.ApplicationID)))

	got, err := cache.Get(ctx, app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusContracted, got.Status)
	assert.Equal(t, contracted.ContractID, got.ContractID)
}

func TestCached_LateFillKeepsNewerSnapshot(t *testing.T) {
	cache, backing, mr := newMiniredisCache(t)
	ctx := context.Background()
	app := createTestApplication()
	require.NoError(t, backing.Create(ctx, app))

	// A reader misses and loads the APPROVED row before the contract is issued.
	stale, err := backing.Get(ctx, app.ApplicationID)
	require.NoError(t, err)

	contracted := app.Clone()
	contracted.Status = models.StatusContracted
	contracted.ContractID = "CONTRACT-20240601-AAAAAAAA"
	require.NoError(t, cache.Update(ctx, contracted, models.StatusApproved))

	cache.fill(ctx, stale)

	require.True(t, mr.Exists(CacheKey(app.ApplicationID)))
	got, err := cache.Get(ctx, app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusContracted, got.Status)
	assert.Equal(t, contracted.ContractID, got.ContractID)
}

func TestCached_FailedUpdateKeepsEntry(t *testing.T) {
	cache, _, mr := newMiniredisCache(t)
	ctx := context.Background()
	app := createTestApplication()
	require.NoError(t, cache.Create(ctx, app))

	err := cache.Update(ctx, app, models.StatusDenied)

	assert.True(t, errors.Is(err, application.ErrInvalidState))
	assert.True(t, mr.Exists(CacheKey(app.ApplicationID)))
}

func TestCached_NotFoundIsNotCached(t *testing.T) {
	cache, _, mr := newMiniredisCache(t)

	_, err := cache.Get(context.Background(), "APP-missing")

	assert.True(t, errors.Is(err, application.ErrNotFound))
	assert.False(t, mr.Exists(CacheKey("APP-missing")))
}

func TestCached_CorruptEntryFallsBack(t *testing.T) {
	cache, backing, mr := newMiniredisCache(t)
	ctx := context.Background()
	app := createTestApplication()
	require.NoError(t, backing.Create(ctx, app))
	require.NoError(t, mr.Set(CacheKey(app.ApplicationID), "{not json"))

	got, err := cache.Get(ctx, app.ApplicationID)

	require.NoError(t, err)
	assert.Equal(t, app.ApplicationID, got.ApplicationID)
}

func TestCached_RedisUnavailable(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	backing := application.NewMemoryRepository()
	cache := NewCached(backing, client, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	app := createTestApplication()
	require.NoError(t, backing.Create(ctx, app))
	data, err := json.Marshal(app)
	require.NoError(t, err)

	key := CacheKey(app.ApplicationID)
	redisMock.ExpectGet(key).SetErr(errors.New("READONLY You can't write against a read only replica"))
	redisMock.ExpectSetNX(key, data, time.Minute).SetErr(errors.New("READONLY You can't write against a read only replica"))

	got, err := cache.Get(ctx, app.ApplicationID)

	require.NoError(t, err)
	assert.Equal(t, app.ApplicationID, got.ApplicationID)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCached_RefreshFailureFallsBackToDelete(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	backing := application.NewMemoryRepository()
	cache := NewCached(backing, client, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	app := createTestApplication()
	require.NoError(t, backing.Create(ctx, app))

	contracted := app.Clone()
	contracted.Status = models.StatusContracted
	data, err := json.Marshal(contracted)
	require.NoError(t, err)

	key := CacheKey(app.ApplicationID)
	redisMock.ExpectSet(key, data, time.Minute).SetErr(errors.New("connection refused"))
	redisMock.ExpectDel(key).SetErr(errors.New("connection refused"))

	assert.NoError(t, cache.Update(ctx, contracted, models.StatusApproved))
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
