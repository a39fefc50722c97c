package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"WebChat/logger"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// PresenceStore records which identities are currently online and when they
// were last seen. Session state itself is process-local; this is the
// durable-ish side channel other surfaces (user profiles, friend lists)
// read last_seen from.
type PresenceStore interface {
	SetPresence(ctx context.Context, userID int64, active bool, lastSeen time.Time) error
	LastSeen(ctx context.Context, userID int64) (time.Time, bool, error)
	IsOnline(ctx context.Context, userID int64) (bool, error)
}

type PresenceConfig struct {
	Addr     string
	Password string
	DB       int
	// TTL on the online flag; a crashed gateway stops refreshing and the
	// flag ages out instead of sticking forever.
	TTL time.Duration
}

type RedisPresence struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ PresenceStore = (*RedisPresence)(nil)

func NewRedisPresence(ctx context.Context, cfg PresenceConfig) (*RedisPresence, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "ping redis")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 90 * time.Second
	}
	logger.Info("presence: redis connected")
	return &RedisPresence{rdb: rdb, ttl: ttl}, nil
}

func onlineKey(userID int64) string   { return fmt.Sprintf("presence:online:%d", userID) }
func lastSeenKey(userID int64) string { return fmt.Sprintf("presence:last_seen:%d", userID) }

func (p *RedisPresence) SetPresence(ctx context.Context, userID int64, active bool, lastSeen time.Time) error {
	pipe := p.rdb.TxPipeline()
	if active {
		pipe.Set(ctx, onlineKey(userID), "1", p.ttl)
	} else {
		pipe.Del(ctx, onlineKey(userID))
	}
	pipe.Set(ctx, lastSeenKey(userID), strconv.FormatInt(lastSeen.UnixMilli(), 10), 0)
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "set presence")
}

func (p *RedisPresence) LastSeen(ctx context.Context, userID int64) (time.Time, bool, error) {
	v, err := p.rdb.Get(ctx, lastSeenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errors.Wrap(err, "get last_seen")
	}
	ms, perr := strconv.ParseInt(v, 10, 64)
	if perr != nil {
		return time.Time{}, false, errors.Wrap(perr, "parse last_seen")
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

func (p *RedisPresence) IsOnline(ctx context.Context, userID int64) (bool, error) {
	n, err := p.rdb.Exists(ctx, onlineKey(userID)).Result()
	if err != nil {
		return false, errors.Wrap(err, "presence exists")
	}
	return n > 0, nil
}

func (p *RedisPresence) Close() error {
	return p.rdb.Close()
}
