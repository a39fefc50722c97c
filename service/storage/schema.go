package storage

import (
	"context"

	"github.com/pkg/errors"
)

// Created at boot, mirroring the table layout the API was originally
// deployed against. Idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id               BIGSERIAL PRIMARY KEY,
		username         TEXT NOT NULL UNIQUE,
		email            TEXT NOT NULL UNIQUE,
		hashed_password  TEXT NOT NULL,
		display_name     TEXT NOT NULL DEFAULT '',
		avatar_url       TEXT NOT NULL DEFAULT '',
		bio              TEXT NOT NULL DEFAULT '',
		theme_preference TEXT NOT NULL DEFAULT 'dark',
		is_active        BOOLEAN NOT NULL DEFAULT TRUE,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_seen        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT,
		type       TEXT NOT NULL DEFAULT 'direct',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by BIGINT REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS room_members (
		room_id      BIGINT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
		user_id      BIGINT NOT NULL REFERENCES users(id),
		role         TEXT NOT NULL DEFAULT 'member',
		joined_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_read_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (room_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id           BIGSERIAL PRIMARY KEY,
		content      TEXT NOT NULL DEFAULT '',
		sender_id    BIGINT NOT NULL REFERENCES users(id),
		room_id      BIGINT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
		message_type TEXT NOT NULL DEFAULT 'text',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		is_deleted   BOOLEAN NOT NULL DEFAULT FALSE,
		is_edited    BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_room_created
		ON messages (room_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS read_receipts (
		id         BIGSERIAL PRIMARY KEY,
		message_id BIGINT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		user_id    BIGINT NOT NULL REFERENCES users(id),
		read_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (message_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS friend_requests (
		id          BIGSERIAL PRIMARY KEY,
		sender_id   BIGINT NOT NULL REFERENCES users(id),
		receiver_id BIGINT NOT NULL REFERENCES users(id),
		status      TEXT NOT NULL DEFAULT 'pending',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

func (s *Store) ensureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "ensure schema")
		}
	}
	return nil
}
