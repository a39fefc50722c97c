package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// FindDirectRoom locates an existing DM between two users, nil when absent.
func (s *Store) FindDirectRoom(ctx context.Context, userA, userB int64) (*Room, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		SELECT r.id FROM rooms r
		WHERE r.type = 'direct'
		  AND EXISTS (SELECT 1 FROM room_members WHERE room_id = r.id AND user_id = $1)
		  AND EXISTS (SELECT 1 FROM room_members WHERE room_id = r.id AND user_id = $2)
		LIMIT 1`, userA, userB).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find direct room")
	}
	return s.GetRoom(ctx, id)
}

func (s *Store) CreateDirectRoom(ctx context.Context, creatorID, targetID int64) (*Room, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin")
	}
	defer tx.Rollback(ctx)

	var roomID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO rooms (type, created_by) VALUES ('direct', $1) RETURNING id`,
		creatorID).Scan(&roomID)
	if err != nil {
		return nil, errors.Wrap(err, "create direct room")
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO room_members (room_id, user_id, role) VALUES
			($1, $2, 'admin'), ($1, $3, 'member')`,
		roomID, creatorID, targetID)
	if err != nil {
		return nil, errors.Wrap(err, "add dm members")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return s.GetRoom(ctx, roomID)
}

func (s *Store) CreateGroupRoom(ctx context.Context, creatorID int64, name string, memberIDs []int64) (*Room, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin")
	}
	defer tx.Rollback(ctx)

	var roomID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO rooms (name, type, created_by) VALUES ($1, 'group', $2) RETURNING id`,
		name, creatorID).Scan(&roomID)
	if err != nil {
		return nil, errors.Wrap(err, "create group room")
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO room_members (room_id, user_id, role) VALUES ($1, $2, 'admin')`,
		roomID, creatorID)
	if err != nil {
		return nil, errors.Wrap(err, "add group admin")
	}
	for _, uid := range memberIDs {
		if uid == creatorID {
			continue
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO room_members (room_id, user_id, role) VALUES ($1, $2, 'member')
			ON CONFLICT DO NOTHING`, roomID, uid)
		if err != nil {
			return nil, errors.Wrap(err, "add group member")
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return s.GetRoom(ctx, roomID)
}

// GetRoom loads a room with its members and their user rows. Nil when absent.
func (s *Store) GetRoom(ctx context.Context, roomID int64) (*Room, error) {
	var r Room
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, type, created_at, created_by FROM rooms WHERE id = $1`, roomID).
		Scan(&r.ID, &r.Name, &r.Type, &r.CreatedAt, &r.CreatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get room")
	}

	rows, err := s.pool.Query(ctx, `
		SELECT m.room_id, m.user_id, m.role, m.joined_at, m.last_read_at,
			u.id, u.username, u.email, u.hashed_password, u.display_name,
			u.avatar_url, u.bio, u.theme_preference, u.is_active, u.created_at, u.last_seen
		FROM room_members m JOIN users u ON u.id = m.user_id
		WHERE m.room_id = $1
		ORDER BY m.joined_at`, roomID)
	if err != nil {
		return nil, errors.Wrap(err, "get room members")
	}
	defer rows.Close()

	for rows.Next() {
		var m RoomMember
		var u User
		err := rows.Scan(&m.RoomID, &m.UserID, &m.Role, &m.JoinedAt, &m.LastReadAt,
			&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.DisplayName,
			&u.AvatarURL, &u.Bio, &u.ThemePreference, &u.IsActive, &u.CreatedAt, &u.LastSeen)
		if err != nil {
			return nil, errors.Wrap(err, "scan room member")
		}
		m.User = &u
		r.Members = append(r.Members, m)
	}
	return &r, rows.Err()
}

func (s *Store) ListUserRooms(ctx context.Context, userID int64) ([]Room, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id FROM rooms r
		JOIN room_members m ON m.room_id = r.id
		WHERE m.user_id = $1
		ORDER BY r.created_at`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list rooms")
	}
	ids := make([]int64, 0, 8)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan room id")
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Room, 0, len(ids))
	for _, id := range ids {
		r, err := s.GetRoom(ctx, id)
		if err != nil {
			return nil, err
		}
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *Store) VerifyMembership(ctx context.Context, roomID, userID int64) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, `
		SELECT 1 FROM room_members WHERE room_id = $1 AND user_id = $2`,
		roomID, userID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "verify membership")
	}
	return true, nil
}
