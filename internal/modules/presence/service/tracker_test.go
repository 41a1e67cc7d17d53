package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTracker(t *testing.T) (*Tracker, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(rdb)
	tr.now = func() time.Time { return now }
	return tr, &now
}

func TestHeartbeatAndOnline(t *testing.T) {
	tr, now := newTracker(t)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	require.NoError(t, tr.Heartbeat(ctx, a))
	*now = now.Add(2 * time.Minute)
	require.NoError(t, tr.Heartbeat(ctx, b))

	online, err := tr.Online(ctx, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b, a}, online)

	*now = now.Add(4 * time.Minute)
	online, err = tr.Online(ctx, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b}, online)
}

func TestHeartbeatRefreshesScore(t *testing.T) {
	tr, now := newTracker(t)
	ctx := context.Background()
	a := uuid.New()

	require.NoError(t, tr.Heartbeat(ctx, a))
	*now = now.Add(10 * time.Minute)
	require.NoError(t, tr.Heartbeat(ctx, a))

	online, err := tr.Online(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a}, online)
}

func TestPrune(t *testing.T) {
	tr, now := newTracker(t)
	ctx := context.Background()
	stale, fresh := uuid.New(), uuid.New()

	require.NoError(t, tr.Heartbeat(ctx, stale))
	*now = now.Add(20 * time.Minute)
	require.NoError(t, tr.Heartbeat(ctx, fresh))

	removed, err := tr.Prune(ctx, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	online, err := tr.Online(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{fresh}, online)
}

func TestNilClientIsNoop(t *testing.T) {
	tr := NewTracker(nil)
	ctx := context.Background()

	assert.NoError(t, tr.Heartbeat(ctx, uuid.New()))
	online, err := tr.Online(ctx, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, online)
	removed, err := tr.Prune(ctx, time.Minute)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
