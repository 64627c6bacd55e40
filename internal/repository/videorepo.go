package repository

import (
	"context"

	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// VideoRepository stores videos and their view bookkeeping.
type VideoRepository interface {
	// Create inserts a new video.
	Create(ctx context.Context, v *model.Video) error
	// GetByID loads a video with its owner summary.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error)
	// List returns one page of videos matching q and the total match count.
	List(ctx context.Context, q model.VideoQuery) ([]model.Video, int64, error)
	// ListByOwner returns all videos of a channel, newest first.
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.Video, error)
	// Update changes title/description/thumbnail and returns the result.
	Update(ctx context.Context, id uuid.UUID, upd model.VideoUpdate) (*model.Video, error)
	// Delete removes a video.
	Delete(ctx context.Context, id uuid.UUID) error
	// TogglePublish flips is_published and returns the new value.
	TogglePublish(ctx context.Context, id uuid.UUID) (bool, error)
	// RecordView counts a unique view and appends the video to the viewer's history.
	RecordView(ctx context.Context, videoID, viewer uuid.UUID) error
}
