package service

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/repository"
)

// LikeService toggles likes and lists liked videos.
type LikeService interface {
	ToggleVideo(ctx context.Context, user, videoID uuid.UUID) (bool, error)
	ToggleComment(ctx context.Context, user, commentID uuid.UUID) (bool, error)
	LikedVideos(ctx context.Context, user uuid.UUID) ([]model.Video, error)
}

type LikeServiceImpl struct {
	likes repository.LikeRepository
}

func NewLikeService(likes repository.LikeRepository) *LikeServiceImpl {
	return &LikeServiceImpl{likes: likes}
}

func (s *LikeServiceImpl) ToggleVideo(ctx context.Context, user, videoID uuid.UUID) (bool, error) {
	liked, err := s.likes.ToggleVideo(ctx, user, videoID)
	if errors.Is(err, errs.ErrNotFound) {
		return false, errs.NotFound("video not found")
	}
	return liked, err
}

func (s *LikeServiceImpl) ToggleComment(ctx context.Context, user, commentID uuid.UUID) (bool, error) {
	liked, err := s.likes.ToggleComment(ctx, user, commentID)
	if errors.Is(err, errs.ErrNotFound) {
		return false, errs.NotFound("comment not found")
	}
	return liked, err
}

func (s *LikeServiceImpl) LikedVideos(ctx context.Context, user uuid.UUID) ([]model.Video, error) {
	return s.likes.LikedVideos(ctx, user)
}
