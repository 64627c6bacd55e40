package postgres

import (
	"context"
	"fmt"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// LikeRepo implements LikeRepository using PostgreSQL.
type LikeRepo struct{ db *DB }

// NewLikeRepo constructs a like repository.
func NewLikeRepo(db *DB) *LikeRepo { return &LikeRepo{db: db} }

// ToggleVideo likes or unlikes a video.
func (r *LikeRepo) ToggleVideo(ctx context.Context, user, videoID uuid.UUID) (bool, error) {
	return r.toggle(ctx, "video_id", user, videoID)
}

// ToggleComment likes or unlikes a comment.
func (r *LikeRepo) ToggleComment(ctx context.Context, user, commentID uuid.UUID) (bool, error) {
	return r.toggle(ctx, "comment_id", user, commentID)
}

// toggle deletes an existing like or inserts a new one; target is a fixed column name.
func (r *LikeRepo) toggle(ctx context.Context, target string, user, id uuid.UUID) (bool, error) {
	del := fmt.Sprintf(`DELETE FROM likes WHERE liked_by=$1 AND %s=$2`, target)
	tag, err := r.db.Pool.Exec(ctx, del, user, id)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	likeID, err := uuid.NewV4()
	if err != nil {
		return false, err
	}
	ins := fmt.Sprintf(`INSERT INTO likes (id, liked_by, %s) VALUES ($1, $2, $3)`, target)
	_, err = r.db.Pool.Exec(ctx, ins, likeID, user, id)
	switch {
	case err == nil, isUniqueViolation(err):
		// a concurrent toggle inserted the same like
		return true, nil
	case isForeignKeyViolation(err):
		return false, errs.ErrNotFound
	default:
		return false, err
	}
}

// LikedVideos lists liked videos with their owners.
func (r *LikeRepo) LikedVideos(ctx context.Context, user uuid.UUID) ([]model.Video, error) {
	q := `SELECT ` + videoOwnerColumns + `
FROM likes l
JOIN videos v ON v.id = l.video_id
JOIN users o ON o.id = v.owner_id
WHERE l.liked_by=$1 AND l.video_id IS NOT NULL
ORDER BY l.created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, user)
	if err != nil {
		return nil, err
	}
	return collectVideos(rows)
}
