package storage

import (
	"context"

	"github.com/pkg/errors"
)

// MarkMessageRead is idempotent: a second read by the same user returns the
// existing receipt.
func (s *Store) MarkMessageRead(ctx context.Context, messageID, userID int64) (*ReadReceipt, error) {
	var r ReadReceipt
	err := s.pool.QueryRow(ctx, `
		INSERT INTO read_receipts (message_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (message_id, user_id) DO UPDATE SET user_id = read_receipts.user_id
		RETURNING id, message_id, user_id, read_at`,
		messageID, userID).
		Scan(&r.ID, &r.MessageID, &r.UserID, &r.ReadAt)
	if err != nil {
		return nil, errors.Wrap(err, "mark message read")
	}
	return &r, nil
}

func (s *Store) ListMessageReceipts(ctx context.Context, messageID int64) ([]ReadReceipt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, message_id, user_id, read_at FROM read_receipts
		WHERE message_id = $1 ORDER BY read_at`, messageID)
	if err != nil {
		return nil, errors.Wrap(err, "list receipts")
	}
	defer rows.Close()

	var out []ReadReceipt
	for rows.Next() {
		var r ReadReceipt
		if err := rows.Scan(&r.ID, &r.MessageID, &r.UserID, &r.ReadAt); err != nil {
			return nil, errors.Wrap(err, "scan receipt")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
