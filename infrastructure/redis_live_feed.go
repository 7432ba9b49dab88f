package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"starsgame/events"
	"starsgame/models"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// KeyLiveDrops is the Redis list holding the latest drops, newest first
const KeyLiveDrops = "live:drops"

// NewRedis connects to Redis and verifies the connection
func NewRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}

// RedisLiveFeed keeps a bounded list of recent drops for clients that join late
type RedisLiveFeed struct {
	rdb  *redis.Client
	size int64
	now  func() time.Time
}

// NewRedisLiveFeed creates a feed that keeps at most size drops
func NewRedisLiveFeed(rdb *redis.Client, size int) *RedisLiveFeed {
	if size <= 0 {
		size = 30
	}
	return &RedisLiveFeed{
		rdb:  rdb,
		size: int64(size),
		now:  time.Now,
	}
}

// Register subscribes the feed to case openings
func (f *RedisLiveFeed) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypeCaseOpened, f.Handle)
}

// Handle is an events.Handler; failures are logged only
func (f *RedisLiveFeed) Handle(ctx context.Context, event events.Event) {
	opened, ok := event.(events.CaseOpenedEvent)
	if !ok {
		return
	}
	if err := f.Push(ctx, DropFromEvent(opened, f.now())); err != nil {
		log.WithFields(log.Fields{
			"userID": opened.UserID,
			"caseID": opened.CaseID,
			"error":  err,
		}).Warn("Failed to store live drop")
	}
}

// Push prepends a drop and trims the list to the feed size
func (f *RedisLiveFeed) Push(ctx context.Context, drop models.LiveDrop) error {
	data, err := json.Marshal(drop)
	if err != nil {
		return fmt.Errorf("failed to marshal drop: %w", err)
	}

	pipe := f.rdb.TxPipeline()
	pipe.LPush(ctx, KeyLiveDrops, data)
	pipe.LTrim(ctx, KeyLiveDrops, 0, f.size-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push drop: %w", err)
	}
	return nil
}

// Recent returns up to n drops, newest first
func (f *RedisLiveFeed) Recent(ctx context.Context, n int) ([]models.LiveDrop, error) {
	if n <= 0 || int64(n) > f.size {
		n = int(f.size)
	}

	raw, err := f.rdb.LRange(ctx, KeyLiveDrops, 0, int64(n)-1).Result()
	if err == redis.Nil {
		return []models.LiveDrop{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read drops: %w", err)
	}

	drops := make([]models.LiveDrop, 0, len(raw))
	for _, item := range raw {
		var drop models.LiveDrop
		if err := json.Unmarshal([]byte(item), &drop); err != nil {
			log.WithError(err).Warn("Skipping malformed live drop")
			continue
		}
		drops = append(drops, drop)
	}
	return drops, nil
}
