package infrastructure

import (
	"context"
	"fmt"
	"testing"
	"time"

	"starsgame/events"
	"starsgame/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestRedis(t *testing.T) *redis.Client {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
			Labels: map[string]string{
				"test":      "starsgame-infrastructure",
				"test-name": t.Name(),
				"cleanup":   "auto",
			},
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: Failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb, err := NewRedis(ctx, endpoint, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	return rdb
}

func TestRedisLiveFeed(t *testing.T) {
	rdb := setupTestRedis(t)
	ctx := context.Background()

	t.Run("empty feed", func(t *testing.T) {
		feed := NewRedisLiveFeed(rdb, 5)
		drops, err := feed.Recent(ctx, 5)
		require.NoError(t, err)
		assert.Empty(t, drops)
	})

	t.Run("keeps the newest drops up to the feed size", func(t *testing.T) {
		require.NoError(t, rdb.Del(ctx, KeyLiveDrops).Err())
		feed := NewRedisLiveFeed(rdb, 5)

		for i := 1; i <= 8; i++ {
			err := feed.Push(ctx, models.LiveDrop{
				UserID:    int64(i),
				CaseID:    "starter",
				ItemName:  fmt.Sprintf("item-%d", i),
				ItemValue: int64(i * 100),
				DroppedAt: fixedNow,
			})
			require.NoError(t, err)
		}

		length, err := rdb.LLen(ctx, KeyLiveDrops).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(5), length)

		drops, err := feed.Recent(ctx, 3)
		require.NoError(t, err)
		require.Len(t, drops, 3)
		assert.Equal(t, "item-8", drops[0].ItemName)
		assert.Equal(t, "item-7", drops[1].ItemName)
		assert.Equal(t, "item-6", drops[2].ItemName)

		all, err := feed.Recent(ctx, 100)
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})

	t.Run("bus handler stores case openings", func(t *testing.T) {
		require.NoError(t, rdb.Del(ctx, KeyLiveDrops).Err())
		feed := NewRedisLiveFeed(rdb, 30)
		feed.now = func() time.Time { return fixedNow }

		bus := events.NewBus()
		feed.Register(bus)
		bus.Emit(ctx, events.CaseOpenedEvent{
			UserID:    99,
			CaseID:    "premium",
			ItemName:  "Diamond",
			ItemValue: 5000,
			Rare:      true,
		})
		bus.Wait()

		drops, err := feed.Recent(ctx, 1)
		require.NoError(t, err)
		require.Len(t, drops, 1)
		assert.Equal(t, models.LiveDrop{
			UserID:    99,
			CaseID:    "premium",
			ItemName:  "Diamond",
			ItemValue: 5000,
			Rare:      true,
			DroppedAt: fixedNow,
		}, drops[0])
	})
}
