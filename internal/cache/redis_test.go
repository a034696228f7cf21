package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/clubhouse/internal/config"
	"github.com/magabrotheeeer/clubhouse/internal/models"
)

type testStruct struct {
	Name string
	Age  int
}

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := testStruct{Name: "Alice", Age: 30}
	require.NoError(t, cache.Set(ctx, "user:1", expected, time.Minute))

	var actual testStruct
	found, err := cache.Get(ctx, "user:1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out testStruct
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", "value", time.Minute))
	require.NoError(t, cache.Invalidate(ctx, "key"))
	require.NoError(t, cache.Invalidate(ctx))

	var out string
	found, err := cache.Get(ctx, "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Db.Set(ctx, "bad", []byte("not-json"), time.Minute).Err())

	var out testStruct
	found, err := cache.Get(ctx, "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
		DialTimeout:  100 * time.Millisecond,
	}

	cache, err := InitServer(context.Background(), cfg)
	assert.Nil(t, cache)
	assert.Error(t, err)
}

func TestPlanCache(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	plan := &models.SubscriptionPlan{ID: 2, Tier: models.TierMember, Name: "Member", GamesPerDayLimit: 20}
	require.NoError(t, cache.SetPlan(ctx, plan))

	assert.True(t, mr.Exists("plan:member"))
	assert.Equal(t, PlanTTL, mr.TTL("plan:member"))

	got, found, err := cache.GetPlan(ctx, models.TierMember)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, plan.Name, got.Name)
	assert.Equal(t, 20, got.GamesPerDayLimit)

	require.NoError(t, cache.InvalidatePlan(ctx, models.TierMember))
	_, found, err = cache.GetPlan(ctx, models.TierMember)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPlanCache_Expires(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetPlan(ctx, &models.SubscriptionPlan{Tier: models.TierPremium}))
	mr.FastForward(PlanTTL + time.Second)

	_, found, err := cache.GetPlan(ctx, models.TierPremium)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPing(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	assert.NoError(t, cache.Ping(ctx))

	mr.Close()
	assert.Error(t, cache.Ping(ctx))
}
