package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// VideoRepo implements VideoRepository using PostgreSQL.
type VideoRepo struct{ db *DB }

// NewVideoRepo constructs a video repository.
func NewVideoRepo(db *DB) *VideoRepo { return &VideoRepo{db: db} }

const videoColumns = `v.id, v.owner_id, v.video_file, v.thumbnail, v.title, v.description,
v.duration, v.views, v.is_published, v.created_at, v.updated_at`

// videoOwnerColumns expects videos aliased v joined with users aliased o.
const videoOwnerColumns = videoColumns + `, o.username, o.full_name, o.avatar`

func scanVideo(row pgx.Row) (*model.Video, error) {
	var v model.Video
	err := row.Scan(&v.ID, &v.OwnerID, &v.VideoFile, &v.Thumbnail, &v.Title, &v.Description,
		&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func scanVideoOwner(row pgx.Row) (*model.Video, error) {
	var v model.Video
	var o model.OwnerSummary
	err := row.Scan(&v.ID, &v.OwnerID, &v.VideoFile, &v.Thumbnail, &v.Title, &v.Description,
		&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
		&o.Username, &o.FullName, &o.Avatar)
	if err != nil {
		return nil, err
	}
	o.ID = v.OwnerID
	v.Owner = &o
	return &v, nil
}

// collectVideos drains rows selected with videoOwnerColumns.
func collectVideos(rows pgx.Rows) ([]model.Video, error) {
	defer rows.Close()
	out := []model.Video{}
	for rows.Next() {
		v, err := scanVideoOwner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// Create inserts a new video row.
func (r *VideoRepo) Create(ctx context.Context, v *model.Video) error {
	const q = `
INSERT INTO videos (id, owner_id, video_file, thumbnail, title, description, duration, is_published)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING views, created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q, v.ID, v.OwnerID, v.VideoFile, v.Thumbnail, v.Title, v.Description,
		v.Duration, v.IsPublished).Scan(&v.Views, &v.CreatedAt, &v.UpdatedAt)
	if isForeignKeyViolation(err) {
		return errs.NotFound("owner not found")
	}
	return err
}

// GetByID selects a video with its owner.
func (r *VideoRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	q := `SELECT ` + videoOwnerColumns + `
FROM videos v JOIN users o ON o.id = v.owner_id
WHERE v.id=$1`
	v, err := scanVideoOwner(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, notFound("get video", err)
	}
	return v, nil
}

var videoSortColumns = map[string]string{
	model.SortByCreatedAt: "v.created_at",
	model.SortByViews:     "v.views",
	model.SortByTitle:     "v.title",
	model.SortByDuration:  "v.duration",
}

// escapeLike escapes LIKE metacharacters so the query matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// List selects one page of videos visible to q.ViewerID.
func (r *VideoRepo) List(ctx context.Context, q model.VideoQuery) ([]model.Video, int64, error) {
	args := []any{q.ViewerID}
	where := []string{"(v.is_published OR v.owner_id = $1)"}
	if q.Query != "" {
		args = append(args, "%"+escapeLike(q.Query)+"%")
		where = append(where, fmt.Sprintf("v.title ILIKE $%d", len(args)))
	}
	if q.OwnerID != nil {
		args = append(args, *q.OwnerID)
		where = append(where, fmt.Sprintf("v.owner_id = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM videos v WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}

	col, ok := videoSortColumns[q.SortBy]
	if !ok {
		col = videoSortColumns[model.SortByCreatedAt]
	}
	dir := "DESC"
	if q.Asc {
		dir = "ASC"
	}
	args = append(args, q.Limit, pageOffset(q.Page, q.Limit))
	sql := fmt.Sprintf(`SELECT %s
FROM videos v JOIN users o ON o.id = v.owner_id
WHERE %s
ORDER BY %s %s, v.id
LIMIT $%d OFFSET $%d`, videoOwnerColumns, cond, col, dir, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list videos: %w", err)
	}
	videos, err := collectVideos(rows)
	if err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

// ListByOwner selects all videos of a channel, newest first.
func (r *VideoRepo) ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.Video, error) {
	q := `SELECT ` + videoOwnerColumns + `
FROM videos v JOIN users o ON o.id = v.owner_id
WHERE v.owner_id=$1
ORDER BY v.created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, owner)
	if err != nil {
		return nil, err
	}
	return collectVideos(rows)
}

// Update applies non-nil fields of upd.
func (r *VideoRepo) Update(ctx context.Context, id uuid.UUID, upd model.VideoUpdate) (*model.Video, error) {
	q := `
UPDATE videos v
SET title = COALESCE($2, v.title), description = COALESCE($3, v.description),
    thumbnail = COALESCE($4, v.thumbnail), updated_at = now()
WHERE v.id=$1
RETURNING ` + videoColumns
	v, err := scanVideo(r.db.Pool.QueryRow(ctx, q, id, upd.Title, upd.Description, upd.Thumbnail))
	if err != nil {
		return nil, notFound("update video", err)
	}
	return v, nil
}

// Delete removes a video row.
func (r *VideoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM videos WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// TogglePublish flips is_published.
func (r *VideoRepo) TogglePublish(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `UPDATE videos SET is_published = NOT is_published, updated_at = now() WHERE id=$1 RETURNING is_published`
	var published bool
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&published); err != nil {
		return false, notFound("toggle publish", err)
	}
	return published, nil
}

// RecordView counts the first view per viewer and refreshes the watch history entry.
func (r *VideoRepo) RecordView(ctx context.Context, videoID, viewer uuid.UUID) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `INSERT INTO video_views (video_id, viewer_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, videoID, viewer)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			if _, err := tx.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id=$1`, videoID); err != nil {
				return err
			}
		}
		const hist = `
INSERT INTO watch_history (user_id, video_id, watched_at) VALUES ($1, $2, now())
ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = now()`
		_, err = tx.Exec(ctx, hist, viewer, videoID)
		return err
	})
}
