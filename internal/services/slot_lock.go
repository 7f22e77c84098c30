package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aditinaik811/Pre-Bookings-VGO/internal/models"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds our token.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// ReleaseFunc gives a held slot lock back. Safe to call once the lock has expired.
type ReleaseFunc func()

// SlotLocker serialises check-then-write for one item on one date.
type SlotLocker interface {
	Acquire(ctx context.Context, itemID, date string) (ReleaseFunc, error)
}

type RedisSlotLocker struct {
	client   redis.Cmdable
	ttl      time.Duration
	logger   *slog.Logger
	newToken func() string
}

func NewRedisSlotLocker(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *RedisSlotLocker {
	return &RedisSlotLocker{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		newToken: uuid.NewString,
	}
}

func SlotLockKey(itemID, date string) string {
	return fmt.Sprintf("slotlock:%s:%s", itemID, date)
}

// Acquire fails closed: a redis error or a lock held elsewhere both return ErrConflict.
func (l *RedisSlotLocker) Acquire(ctx context.Context, itemID, date string) (ReleaseFunc, error) {
	key := SlotLockKey(itemID, date)
	token := l.newToken()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		l.logger.Error("slot lock unavailable", "item_id", itemID, "date", date, "error", err)
		return nil, errors.Mark(
			errors.WithSecondaryError(errors.New("booking is temporarily unavailable, please try again"), err),
			models.ErrConflict,
		)
	}
	if !ok {
		return nil, models.ConflictError("this slot is being booked right now, please try again")
	}

	return func() {
		// The caller's context may already be cancelled; the release must still run.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := l.client.Eval(releaseCtx, releaseScript, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release slot lock, it will expire", "key", key, "error", err)
		}
	}, nil
}
