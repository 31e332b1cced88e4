package cache

import (
	"context"
	"testing"
	"time"

	"gymcore-backend-go/internal/points"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type entry struct {
	UserID string `json:"userId"`
	Points int    `json:"points"`
}

func newLeaderboard(t *testing.T) (*Leaderboard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLeaderboard(client, 30*time.Second, zaptest.NewLogger(t)), mr
}

func TestLeaderboardRoundTrip(t *testing.T) {
	lb, mr := newLeaderboard(t)
	ctx := context.Background()

	var got []entry
	ok, err := lb.Get(ctx, "gym:7", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lb.Set(ctx, "gym:7", []entry{{UserID: "u1", Points: 50}}))
	ok, err = lb.Get(ctx, "gym:7", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []entry{{UserID: "u1", Points: 50}}, got)

	mr.FastForward(31 * time.Second)
	ok, err = lb.Get(ctx, "gym:7", &got)
	require.NoError(t, err)
	assert.False(t, ok, "entries expire after the ttl")
}

func TestPointsChangedInvalidatesEveryScope(t *testing.T) {
	lb, mr := newLeaderboard(t)
	ctx := context.Background()
	require.NoError(t, lb.Set(ctx, "all", []entry{}))
	require.NoError(t, lb.Set(ctx, "gym:7", []entry{}))

	lb.PointsChanged(ctx, nil)
	assert.True(t, mr.Exists(keyPrefix+"all"), "no changes, nothing dropped")

	lb.PointsChanged(ctx, []points.Change{{UserID: "u1", Delta: 5}})
	assert.False(t, mr.Exists(keyPrefix+"all"))
	assert.False(t, mr.Exists(keyPrefix+"gym:7"))
	assert.False(t, mr.Exists(scopesKey))
}

func TestNilLeaderboardIsDisabled(t *testing.T) {
	var lb *Leaderboard
	assert.Nil(t, NewLeaderboard(nil, time.Second, nil))

	var got []entry
	ok, err := lb.Get(context.Background(), "all", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, lb.Set(context.Background(), "all", got))
	assert.NoError(t, lb.Invalidate(context.Background()))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0", zaptest.NewLogger(t))
	require.NoError(t, err)
	_ = client.Close()

	_, err = Connect(context.Background(), "not a url", zaptest.NewLogger(t))
	assert.Error(t, err)
}
