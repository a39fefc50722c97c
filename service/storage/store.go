package storage

import (
	"context"
	"time"

	"WebChat/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// ChatStore is the slice of storage the realtime subsystem depends on.
// The websocket handler, presence notifier, and sync reconciler see only
// this; tests substitute a fake.
type ChatStore interface {
	VerifyMembership(ctx context.Context, roomID, userID int64) (bool, error)
	CreateMessage(ctx context.Context, p CreateMessageParams) (*Message, error)
	CreateMessages(ctx context.Context, batch []CreateMessageParams) ([]Message, error)
	ListMessagesSince(ctx context.Context, roomIDs []int64, after time.Time, excludeSender int64) ([]MessageWithSender, error)
	RoomsSentInto(ctx context.Context, userID int64) ([]int64, error)
	ListAcceptedFriendIDs(ctx context.Context, userID int64) ([]int64, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	TouchLastSeen(ctx context.Context, userID int64, at time.Time) error
}

// Store is the pgx-backed implementation of every storage concern.
type Store struct {
	pool *pgxpool.Pool
}

var _ ChatStore = (*Store)(nil)

func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("storage: connected")
	return s, nil
}

func (s *Store) Close() {
	s.pool.Close()
}
