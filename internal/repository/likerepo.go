package repository

import (
	"context"

	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// LikeRepository stores likes on videos and comments.
type LikeRepository interface {
	// ToggleVideo likes or unlikes a video and reports the new state.
	ToggleVideo(ctx context.Context, user, videoID uuid.UUID) (bool, error)
	// ToggleComment likes or unlikes a comment and reports the new state.
	ToggleComment(ctx context.Context, user, commentID uuid.UUID) (bool, error)
	// LikedVideos lists videos the user liked, most recent like first.
	LikedVideos(ctx context.Context, user uuid.UUID) ([]model.Video, error)
}
