package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestRedisClient_Integration(t *testing.T) {
	_ = godotenv.Load("../../../.env")

	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, Options{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       1,
	})
	if err != nil {
		t.Skipf("Skipping Redis integration test: %v", err)
	}
	defer rdb.Close()

	require.NoError(t, rdb.FlushDB(ctx).Err(), "Failed to flush test DB")

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, rdb))
	})

	t.Run("Set and Get Value", func(t *testing.T) {
		require.NoError(t, rdb.Set(ctx, "levelup_key", "hello", time.Minute).Err())

		val, err := rdb.Get(ctx, "levelup_key").Result()
		assert.NoError(t, err)
		assert.Equal(t, "hello", val)
	})

	t.Run("Expire Check", func(t *testing.T) {
		require.NoError(t, rdb.Set(ctx, "levelup_expire", "x", time.Second).Err())
		time.Sleep(1100 * time.Millisecond)

		_, err := rdb.Get(ctx, "levelup_expire").Result()
		assert.ErrorIs(t, err, redis.Nil)
	})
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	_, err := NewRedisClient(context.Background(), Options{Host: "localhost", Port: "1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "localhost:1")
}

func TestOptions_Addr(t *testing.T) {
	assert.Equal(t, "redis:6380", Options{Host: "redis", Port: "6380"}.Addr())
}
