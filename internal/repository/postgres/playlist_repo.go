package postgres

import (
	"context"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// PlaylistRepo implements PlaylistRepository using PostgreSQL.
type PlaylistRepo struct{ db *DB }

// NewPlaylistRepo constructs a playlist repository.
func NewPlaylistRepo(db *DB) *PlaylistRepo { return &PlaylistRepo{db: db} }

const playlistColumns = `id, owner_id, name, description, created_at, updated_at`

func scanPlaylist(row pgx.Row) (*model.Playlist, error) {
	var p model.Playlist
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Videos = []model.Video{}
	return &p, nil
}

// Create inserts a playlist.
func (r *PlaylistRepo) Create(ctx context.Context, p *model.Playlist) error {
	const q = `
INSERT INTO playlists (id, owner_id, name, description)
VALUES ($1, $2, $3, $4)
RETURNING created_at, updated_at`
	if err := r.db.Pool.QueryRow(ctx, q, p.ID, p.OwnerID, p.Name, p.Description).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	if p.Videos == nil {
		p.Videos = []model.Video{}
	}
	return nil
}

// GetByID selects a playlist and its videos in insertion order.
func (r *PlaylistRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Playlist, error) {
	p, err := scanPlaylist(r.db.Pool.QueryRow(ctx, `SELECT `+playlistColumns+` FROM playlists WHERE id=$1`, id))
	if err != nil {
		return nil, notFound("get playlist", err)
	}
	if p.Videos, err = r.videos(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// ListByOwner selects all playlists of owner with their videos.
func (r *PlaylistRepo) ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.Playlist, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+playlistColumns+` FROM playlists WHERE owner_id=$1 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, err
	}
	out := []model.Playlist{}
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, *p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Videos, err = r.videos(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PlaylistRepo) videos(ctx context.Context, playlistID uuid.UUID) ([]model.Video, error) {
	q := `SELECT ` + videoOwnerColumns + `
FROM playlist_videos pv
JOIN videos v ON v.id = pv.video_id
JOIN users o ON o.id = v.owner_id
WHERE pv.playlist_id=$1
ORDER BY pv.position`
	rows, err := r.db.Pool.Query(ctx, q, playlistID)
	if err != nil {
		return nil, err
	}
	return collectVideos(rows)
}

// UpdateOwned changes name and description of a playlist owned by owner.
func (r *PlaylistRepo) UpdateOwned(ctx context.Context, id, owner uuid.UUID, name, description string) (*model.Playlist, error) {
	q := `
UPDATE playlists SET name=$3, description=$4, updated_at=now()
WHERE id=$1 AND owner_id=$2
RETURNING ` + playlistColumns
	p, err := scanPlaylist(r.db.Pool.QueryRow(ctx, q, id, owner, name, description))
	if err != nil {
		return nil, notFound("update playlist", err)
	}
	if p.Videos, err = r.videos(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteOwned removes a playlist owned by owner.
func (r *PlaylistRepo) DeleteOwned(ctx context.Context, id, owner uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM playlists WHERE id=$1 AND owner_id=$2`, id, owner)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// AddVideo appends a video to a playlist.
func (r *PlaylistRepo) AddVideo(ctx context.Context, playlistID, videoID uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `INSERT INTO playlist_videos (playlist_id, video_id) VALUES ($1, $2)`, playlistID, videoID)
	switch {
	case isUniqueViolation(err):
		return errs.ErrAlreadyExists
	case isForeignKeyViolation(err):
		return errs.ErrNotFound
	default:
		return err
	}
}

// RemoveVideo drops a video from a playlist.
func (r *PlaylistRepo) RemoveVideo(ctx context.Context, playlistID, videoID uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id=$1 AND video_id=$2`, playlistID, videoID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
