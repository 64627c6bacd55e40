package postgres

import (
	"context"
	"fmt"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// CommentRepo implements CommentRepository using PostgreSQL.
type CommentRepo struct{ db *DB }

// NewCommentRepo constructs a comment repository.
func NewCommentRepo(db *DB) *CommentRepo { return &CommentRepo{db: db} }

// ListByVideo selects one page of comments with their authors, newest first.
func (r *CommentRepo) ListByVideo(ctx context.Context, videoID uuid.UUID, page, limit int) ([]model.Comment, int64, error) {
	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM comments WHERE video_id=$1`, videoID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	const q = `
SELECT c.id, c.video_id, c.owner_id, c.content, c.created_at, c.updated_at, o.username, o.full_name, o.avatar
FROM comments c JOIN users o ON o.id = c.owner_id
WHERE c.video_id=$1
ORDER BY c.created_at DESC, c.id
LIMIT $2 OFFSET $3`
	rows, err := r.db.Pool.Query(ctx, q, videoID, limit, pageOffset(page, limit))
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		var o model.OwnerSummary
		if err := rows.Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
			&o.Username, &o.FullName, &o.Avatar); err != nil {
			return nil, 0, err
		}
		o.ID = c.OwnerID
		c.Owner = &o
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// Create inserts a comment.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	const q = `
INSERT INTO comments (id, video_id, owner_id, content)
VALUES ($1, $2, $3, $4)
RETURNING created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q, c.ID, c.VideoID, c.OwnerID, c.Content).Scan(&c.CreatedAt, &c.UpdatedAt)
	if isForeignKeyViolation(err) {
		return errs.NotFound("video not found")
	}
	return err
}

// UpdateOwned changes content of a comment written by owner.
func (r *CommentRepo) UpdateOwned(ctx context.Context, id, owner uuid.UUID, content string) (*model.Comment, error) {
	const q = `
UPDATE comments SET content=$3, updated_at=now()
WHERE id=$1 AND owner_id=$2
RETURNING id, video_id, owner_id, content, created_at, updated_at`
	var c model.Comment
	err := r.db.Pool.QueryRow(ctx, q, id, owner, content).Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound("update comment", err)
	}
	return &c, nil
}

// DeleteOwned removes a comment written by owner.
func (r *CommentRepo) DeleteOwned(ctx context.Context, id, owner uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM comments WHERE id=$1 AND owner_id=$2`, id, owner)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
