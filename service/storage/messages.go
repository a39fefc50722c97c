package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const messageColumns = `id, content, sender_id, room_id, message_type,
	created_at, updated_at, is_deleted, is_edited`

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.Content, &m.SenderID, &m.RoomID, &m.MessageType,
		&m.CreatedAt, &m.UpdatedAt, &m.IsDeleted, &m.IsEdited)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertMessage(ctx context.Context, q rowQuerier, p CreateMessageParams) (*Message, error) {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if p.MessageType == "" {
		p.MessageType = "text"
	}
	row := q.QueryRow(ctx, `
		INSERT INTO messages (content, sender_id, room_id, message_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING `+messageColumns,
		p.Content, p.SenderID, p.RoomID, p.MessageType, createdAt)
	m, err := scanMessage(row)
	if err != nil {
		return nil, errors.Wrap(err, "create message")
	}
	return m, nil
}

func (s *Store) CreateMessage(ctx context.Context, p CreateMessageParams) (*Message, error) {
	return insertMessage(ctx, s.pool, p)
}

// CreateMessages persists the whole batch in one transaction: a failure on
// any row leaves nothing behind, so a client can resubmit the same batch
// without duplicating the rows that went through the first time.
func (s *Store) CreateMessages(ctx context.Context, batch []CreateMessageParams) ([]Message, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin batch create")
	}
	defer tx.Rollback(ctx)

	out := make([]Message, 0, len(batch))
	for _, p := range batch {
		m, err := insertMessage(ctx, tx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit batch create")
	}
	return out, nil
}

func (s *Store) GetMessage(ctx context.Context, id int64) (*Message, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	m, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get message")
	}
	return m, nil
}

// ListRoomMessages returns history newest-first, deleted rows excluded.
func (s *Store) ListRoomMessages(ctx context.Context, roomID int64, skip, limit int) ([]MessageWithSender, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.content, m.sender_id, m.room_id, m.message_type,
			m.created_at, m.updated_at, m.is_deleted, m.is_edited,
			u.id, u.username, u.display_name, u.avatar_url
		FROM messages m JOIN users u ON u.id = m.sender_id
		WHERE m.room_id = $1 AND NOT m.is_deleted
		ORDER BY m.created_at DESC
		OFFSET $2 LIMIT $3`, roomID, skip, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list room messages")
	}
	defer rows.Close()
	return collectWithSender(rows)
}

func collectWithSender(rows pgx.Rows) ([]MessageWithSender, error) {
	var out []MessageWithSender
	for rows.Next() {
		var m MessageWithSender
		var sum UserSummary
		err := rows.Scan(&m.ID, &m.Content, &m.SenderID, &m.RoomID, &m.MessageType,
			&m.CreatedAt, &m.UpdatedAt, &m.IsDeleted, &m.IsEdited,
			&sum.ID, &sum.Username, &sum.DisplayName, &sum.AvatarURL)
		if err != nil {
			return nil, errors.Wrap(err, "scan message")
		}
		m.Sender = &sum
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateMessageContent applies an edit and stamps is_edited/updated_at.
func (s *Store) UpdateMessageContent(ctx context.Context, id int64, content string) (*Message, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE messages
		SET content = $2, is_edited = TRUE, updated_at = now()
		WHERE id = $1
		RETURNING `+messageColumns, id, content)
	m, err := scanMessage(row)
	if err != nil {
		return nil, errors.Wrap(err, "update message")
	}
	return m, nil
}

// RoomsSentInto lists distinct rooms the user has authored messages in.
// Used as the sync catch-up scope; see the note in chat.SyncReconciler.
func (s *Store) RoomsSentInto(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT room_id FROM messages WHERE sender_id = $1`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "rooms sent into")
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan room id")
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ListMessagesSince returns messages in the given rooms created strictly
// after `after`, authored by someone other than excludeSender, oldest first.
func (s *Store) ListMessagesSince(ctx context.Context, roomIDs []int64, after time.Time, excludeSender int64) ([]MessageWithSender, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.content, m.sender_id, m.room_id, m.message_type,
			m.created_at, m.updated_at, m.is_deleted, m.is_edited,
			u.id, u.username, u.display_name, u.avatar_url
		FROM messages m JOIN users u ON u.id = m.sender_id
		WHERE m.room_id = ANY($1)
		  AND m.created_at > $2
		  AND m.sender_id <> $3
		ORDER BY m.created_at ASC`, roomIDs, after, excludeSender)
	if err != nil {
		return nil, errors.Wrap(err, "list messages since")
	}
	defer rows.Close()
	return collectWithSender(rows)
}
