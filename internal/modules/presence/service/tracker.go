package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	onlineKey     = "presence:online"
	DefaultWindow = 5 * time.Minute
)

// Tracker records last-seen times in a sorted set scored by unix seconds.
// A nil redis client makes every call a no-op.
type Tracker struct {
	rdb *redis.Client
	now func() time.Time
}

func NewTracker(rdb *redis.Client) *Tracker {
	return &Tracker{rdb: rdb, now: time.Now}
}

func (t *Tracker) Heartbeat(ctx context.Context, userID uuid.UUID) error {
	if t.rdb == nil {
		return nil
	}
	err := t.rdb.ZAdd(ctx, onlineKey, redis.Z{
		Score:  float64(t.now().Unix()),
		Member: userID.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("record heartbeat: %w", err)
	}
	return nil
}

// Online lists users seen within window, most recent first.
func (t *Tracker) Online(ctx context.Context, window time.Duration) ([]uuid.UUID, error) {
	if t.rdb == nil {
		return []uuid.UUID{}, nil
	}
	if window <= 0 {
		window = DefaultWindow
	}

	members, err := t.rdb.ZRevRangeByScore(ctx, onlineKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(t.now().Add(-window).Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list online users: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Prune drops entries older than olderThan and returns how many were removed.
func (t *Tracker) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if t.rdb == nil {
		return 0, nil
	}
	cutoff := t.now().Add(-olderThan).Unix()
	removed, err := t.rdb.ZRemRangeByScore(ctx, onlineKey, "-inf", "("+strconv.FormatInt(cutoff, 10)).Result()
	if err != nil {
		return 0, fmt.Errorf("prune presence: %w", err)
	}
	return removed, nil
}
