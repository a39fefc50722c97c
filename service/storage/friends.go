package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const friendColumns = `id, sender_id, receiver_id, status, created_at, updated_at`

func scanFriendRequest(row pgx.Row) (*FriendRequest, error) {
	var fr FriendRequest
	err := row.Scan(&fr.ID, &fr.SenderID, &fr.ReceiverID, &fr.Status,
		&fr.CreatedAt, &fr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &fr, nil
}

func (s *Store) CreateFriendRequest(ctx context.Context, senderID, receiverID int64) (*FriendRequest, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO friend_requests (sender_id, receiver_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING `+friendColumns, senderID, receiverID)
	fr, err := scanFriendRequest(row)
	if err != nil {
		return nil, errors.Wrap(err, "create friend request")
	}
	return fr, nil
}

func (s *Store) GetFriendRequest(ctx context.Context, id int64) (*FriendRequest, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+friendColumns+` FROM friend_requests WHERE id = $1`, id)
	fr, err := scanFriendRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get friend request")
	}
	return fr, nil
}

// FindRelation returns any non-rejected request between two users in either
// direction, nil when none exists. includeRejected widens the lookup.
func (s *Store) FindRelation(ctx context.Context, a, b int64, includeRejected bool) (*FriendRequest, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+friendColumns+` FROM friend_requests
		WHERE ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
		  AND ($3 OR status <> 'rejected')
		LIMIT 1`, a, b, includeRejected)
	fr, err := scanFriendRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find relation")
	}
	return fr, nil
}

func (s *Store) UpdateFriendRequestStatus(ctx context.Context, id int64, status string) (*FriendRequest, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE friend_requests SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+friendColumns, id, status)
	fr, err := scanFriendRequest(row)
	if err != nil {
		return nil, errors.Wrap(err, "update friend request")
	}
	return fr, nil
}

// ListFriends returns the full user rows for every accepted relation in
// which userID appears on either side.
func (s *Store) ListFriends(ctx context.Context, userID int64) ([]User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE id IN (
			SELECT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END
			FROM friend_requests
			WHERE status = 'accepted' AND (sender_id = $1 OR receiver_id = $1)
		)
		ORDER BY username`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list friends")
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan friend")
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// ListAcceptedFriendIDs is the presence-notifier view of ListFriends.
func (s *Store) ListAcceptedFriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END
		FROM friend_requests
		WHERE status = 'accepted' AND (sender_id = $1 OR receiver_id = $1)`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list friend ids")
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan friend id")
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) listRequests(ctx context.Context, where string, userID int64) ([]FriendRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+friendColumns+` FROM friend_requests
		WHERE `+where+` AND status = 'pending'
		ORDER BY created_at`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list friend requests")
	}
	defer rows.Close()

	var out []FriendRequest
	for rows.Next() {
		fr, err := scanFriendRequest(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan friend request")
		}
		out = append(out, *fr)
	}
	return out, rows.Err()
}

func (s *Store) ListReceivedRequests(ctx context.Context, userID int64) ([]FriendRequest, error) {
	return s.listRequests(ctx, `receiver_id = $1`, userID)
}

func (s *Store) ListSentRequests(ctx context.Context, userID int64) ([]FriendRequest, error) {
	return s.listRequests(ctx, `sender_id = $1`, userID)
}
