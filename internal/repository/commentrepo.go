package repository

import (
	"context"

	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// CommentRepository stores comments on videos.
type CommentRepository interface {
	ListByVideo(ctx context.Context, videoID uuid.UUID, page, limit int) ([]model.Comment, int64, error)
	Create(ctx context.Context, c *model.Comment) error
	// UpdateOwned changes content only when owner wrote the comment; errs.ErrNotFound otherwise.
	UpdateOwned(ctx context.Context, id, owner uuid.UUID, content string) (*model.Comment, error)
	// DeleteOwned removes the comment only when owner wrote it; errs.ErrNotFound otherwise.
	DeleteOwned(ctx context.Context, id, owner uuid.UUID) error
}
