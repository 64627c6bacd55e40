package postgres

import (
	"context"
	"fmt"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, username, email, full_name, avatar, COALESCE(cover_image, ''),
password_hash, COALESCE(refresh_token, ''), created_at, updated_at`

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.FullName, &a.Avatar, &a.CoverImage,
		&a.PasswordHash, &a.RefreshToken, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, a *model.Account) error {
	const q = `
INSERT INTO users (id, username, email, full_name, avatar, cover_image, password_hash)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`
	_, err := r.db.Pool.Exec(ctx, q, a.ID, a.Username, a.Email, a.FullName, a.Avatar, a.CoverImage, a.PasswordHash)
	if isUniqueViolation(err) {
		return errs.Conflict("user with email or username already exists")
	}
	return err
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	a, err := scanAccount(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, notFound("get user", err)
	}
	return a, nil
}

// GetByLogin selects a user whose username or email matches. Empty inputs never match.
func (r *UserRepo) GetByLogin(ctx context.Context, username, email string) (*model.Account, error) {
	q := `SELECT ` + userColumns + ` FROM users
WHERE (username=$1 AND $1 <> '') OR (email=$2 AND $2 <> '')
LIMIT 1`
	a, err := scanAccount(r.db.Pool.QueryRow(ctx, q, username, email))
	if err != nil {
		return nil, notFound("get user by login", err)
	}
	return a, nil
}

// UpdateProfile applies non-nil fields of upd.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, upd model.ProfileUpdate) (*model.Account, error) {
	q := `
UPDATE users
SET username = COALESCE($2, username), email = COALESCE($3, email),
    full_name = COALESCE($4, full_name), updated_at = now()
WHERE id=$1
RETURNING ` + userColumns
	a, err := scanAccount(r.db.Pool.QueryRow(ctx, q, id, upd.Username, upd.Email, upd.FullName))
	if isUniqueViolation(err) {
		return nil, errs.Conflict("username or email already taken")
	}
	if err != nil {
		return nil, notFound("update user", err)
	}
	return a, nil
}

// UpdatePassword stores a new password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	const q = `UPDATE users SET password_hash=$2, updated_at=now() WHERE id=$1`
	return r.execOne(ctx, q, id, hash)
}

// UpdateAvatar stores a new avatar URL and returns the replaced one.
func (r *UserRepo) UpdateAvatar(ctx context.Context, id uuid.UUID, url string) (string, error) {
	return r.swapMedia(ctx, "avatar", id, url)
}

// UpdateCoverImage stores a new cover image URL and returns the replaced one.
func (r *UserRepo) UpdateCoverImage(ctx context.Context, id uuid.UUID, url string) (string, error) {
	return r.swapMedia(ctx, "cover_image", id, url)
}

// swapMedia replaces a media column; column is one of a fixed set, never user input.
func (r *UserRepo) swapMedia(ctx context.Context, column string, id uuid.UUID, url string) (string, error) {
	q := fmt.Sprintf(`
WITH old AS (SELECT COALESCE(%[1]s, '') AS prev FROM users WHERE id=$1 FOR UPDATE)
UPDATE users SET %[1]s=$2, updated_at=now()
FROM old WHERE users.id=$1
RETURNING old.prev`, column)
	var prev string
	if err := r.db.Pool.QueryRow(ctx, q, id, url).Scan(&prev); err != nil {
		return "", notFound("update "+column, err)
	}
	return prev, nil
}

// Delete removes a user; owned rows go with it via ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, `DELETE FROM users WHERE id=$1`, id)
}

// SetRefreshToken overwrites refresh_token without touching other columns.
func (r *UserRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	return r.execOne(ctx, `UPDATE users SET refresh_token=$2 WHERE id=$1`, id, token)
}

// SwapRefreshToken is a compare-and-swap on refresh_token.
func (r *UserRepo) SwapRefreshToken(ctx context.Context, id uuid.UUID, old, next string) (bool, error) {
	const q = `UPDATE users SET refresh_token=$3 WHERE id=$1 AND refresh_token=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, old, next)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ClearRefreshToken sets refresh_token to NULL.
func (r *UserRepo) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, `UPDATE users SET refresh_token=NULL WHERE id=$1`, id)
}

// ChannelProfile selects a channel with subscription counters.
func (r *UserRepo) ChannelProfile(ctx context.Context, username string, viewer uuid.UUID) (*model.ChannelProfile, error) {
	const q = `
SELECT u.id, u.username, u.full_name, u.email, u.avatar, COALESCE(u.cover_image, ''),
  (SELECT count(*) FROM subscriptions s WHERE s.channel_id = u.id),
  (SELECT count(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
  EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = $2)
FROM users u WHERE u.username=$1`
	var p model.ChannelProfile
	err := r.db.Pool.QueryRow(ctx, q, username, viewer).Scan(&p.ID, &p.Username, &p.FullName, &p.Email,
		&p.Avatar, &p.CoverImage, &p.SubscribersCount, &p.ChannelsSubscribedToCount, &p.IsSubscribed)
	if err != nil {
		return nil, notFound("channel profile", err)
	}
	return &p, nil
}

// WatchHistory lists watched videos with their owners, most recent first.
func (r *UserRepo) WatchHistory(ctx context.Context, id uuid.UUID) ([]model.Video, error) {
	q := `SELECT ` + videoOwnerColumns + `
FROM watch_history h
JOIN videos v ON v.id = h.video_id
JOIN users o ON o.id = v.owner_id
WHERE h.user_id=$1
ORDER BY h.watched_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return collectVideos(rows)
}

func (r *UserRepo) execOne(ctx context.Context, q string, args ...any) error {
	tag, err := r.db.Pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
