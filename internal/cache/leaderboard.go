// Package cache keeps computed leaderboards in Redis between point changes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gymcore-backend-go/internal/observability"
	"gymcore-backend-go/internal/points"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix = "leaderboard:"
	scopesKey = "leaderboard:scopes"
)

// Connect opens a client for url (redis://...) and pings it.
func Connect(ctx context.Context, url string, logger *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("redis_connection_failed", zap.Error(err), zap.String("addr", opts.Addr))
		_ = client.Close()
		return nil, err
	}
	logger.Info("redis_connected", zap.String("addr", opts.Addr))
	return client, nil
}

// Leaderboard caches leaderboard pages per visibility scope. A nil
// *Leaderboard is a disabled cache: every lookup misses.
type Leaderboard struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewLeaderboard(client *redis.Client, ttl time.Duration, log *zap.Logger) *Leaderboard {
	if client == nil {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Leaderboard{client: client, ttl: ttl, log: log}
}

// Get loads the cached page for scope into dest and reports whether it was
// present.
func (l *Leaderboard) Get(ctx context.Context, scope string, dest any) (bool, error) {
	if l == nil {
		return false, nil
	}
	val, err := l.client.Get(ctx, keyPrefix+scope).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.RecordCacheLookup("miss")
		return false, nil
	}
	if err != nil {
		observability.RecordCacheLookup("error")
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		observability.RecordCacheLookup("error")
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	observability.RecordCacheLookup("hit")
	return true, nil
}

func (l *Leaderboard) Set(ctx context.Context, scope string, value any) error {
	if l == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keyPrefix+scope, data, l.ttl)
		pipe.SAdd(ctx, scopesKey, scope)
		return nil
	})
	return err
}

// Invalidate drops every cached scope.
func (l *Leaderboard) Invalidate(ctx context.Context) error {
	if l == nil {
		return nil
	}
	scopes, err := l.client.SMembers(ctx, scopesKey).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(scopes)+1)
	for _, scope := range scopes {
		keys = append(keys, keyPrefix+scope)
	}
	keys = append(keys, scopesKey)
	return l.client.Del(ctx, keys...).Err()
}

// PointsChanged invalidates the cache; any balance change can reorder any
// scope the user appears in.
func (l *Leaderboard) PointsChanged(ctx context.Context, changes []points.Change) {
	if l == nil || len(changes) == 0 {
		return
	}
	if err := l.Invalidate(ctx); err != nil {
		l.log.Warn("leaderboard_invalidate_failed", zap.Error(err))
	}
}
