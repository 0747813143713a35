package matching

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLock is a per-event advisory lock over Redis SETNX. It keeps two admins
// from racing recalculations for the same event; it is a hardening measure,
// not a correctness guarantee (the conflict fallback in the engine remains the
// safety net).
type RedisLock struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLock creates a recalculation lock with the given TTL.
func NewRedisLock(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLock {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLock{client: client, ttl: ttl, logger: logger}
}

// Acquire takes the event's lock or returns ErrCalculationInProgress.
func (l *RedisLock) Acquire(ctx context.Context, eventID uuid.UUID) (func(), error) {
	key := "matchcalc:" + eventID.String()
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCalculationInProgress
	}

	release := func() {
		// Release only our own token; an expired lock may have been re-taken.
		current, err := l.client.Get(context.Background(), key).Result()
		if err != nil || current != token {
			return
		}
		if err := l.client.Del(context.Background(), key).Err(); err != nil {
			l.logger.Warn("release match lock failed", zap.Error(err), zap.String("key", key))
		}
	}
	return release, nil
}
