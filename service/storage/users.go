package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const userColumns = `id, username, email, hashed_password, display_name,
	avatar_url, bio, theme_preference, is_active, created_at, last_seen`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword,
		&u.DisplayName, &u.AvatarURL, &u.Bio, &u.ThemePreference,
		&u.IsActive, &u.CreatedAt, &u.LastSeen)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, username, email, hashedPassword, displayName string) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, hashed_password, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		username, email, hashedPassword, displayName)
	u, err := scanUser(row)
	if err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return u, nil
}

// GetUserByID returns (nil, nil) when no such user exists.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	return u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get user by username")
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get user by email")
	}
	return u, nil
}

// SearchUsers filters by username/display name substring when search is
// non-empty. excludeID trims the caller out of directory results; pass 0
// to keep everyone.
func (s *Store) SearchUsers(ctx context.Context, search string, excludeID int64, skip, limit int) ([]User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE ($1 = '' OR username ILIKE '%' || $1 || '%' OR display_name ILIKE '%' || $1 || '%')
		  AND ($2 = 0 OR id <> $2)
		ORDER BY id
		OFFSET $3 LIMIT $4`,
		search, excludeID, skip, limit)
	if err != nil {
		return nil, errors.Wrap(err, "search users")
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

type ProfileUpdate struct {
	DisplayName     *string
	AvatarURL       *string
	Bio             *string
	ThemePreference *string
}

func (s *Store) UpdateProfile(ctx context.Context, userID int64, p ProfileUpdate) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users SET
			display_name     = COALESCE($2, display_name),
			avatar_url       = COALESCE($3, avatar_url),
			bio              = COALESCE($4, bio),
			theme_preference = COALESCE($5, theme_preference)
		WHERE id = $1
		RETURNING `+userColumns,
		userID, p.DisplayName, p.AvatarURL, p.Bio, p.ThemePreference)
	u, err := scanUser(row)
	if err != nil {
		return nil, errors.Wrap(err, "update profile")
	}
	return u, nil
}

func (s *Store) TouchLastSeen(ctx context.Context, userID int64, at time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE users SET last_seen = $2 WHERE id = $1`, userID, at)
	return errors.Wrap(err, "touch last_seen")
}
