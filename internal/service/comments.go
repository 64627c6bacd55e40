package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/repository"
)

const maxCommentLen = 2000

// CommentService manages comments on videos.
type CommentService interface {
	List(ctx context.Context, videoID uuid.UUID, page, limit int) (model.Page[model.Comment], error)
	Add(ctx context.Context, videoID, owner uuid.UUID, content string) (*model.Comment, error)
	Update(ctx context.Context, id, owner uuid.UUID, content string) (*model.Comment, error)
	Delete(ctx context.Context, id, owner uuid.UUID) error
}

type CommentServiceImpl struct {
	comments repository.CommentRepository
	videos   repository.VideoRepository
}

func NewCommentService(comments repository.CommentRepository, videos repository.VideoRepository) *CommentServiceImpl {
	return &CommentServiceImpl{comments: comments, videos: videos}
}

var errCommentNotOwned = errs.NotFound("comment not found or not authorized")

func commentContent(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errs.Validation("content is required")
	}
	if len([]rune(s)) > maxCommentLen {
		return "", errs.Validation(fmt.Sprintf("content must be at most %d characters", maxCommentLen))
	}
	return s, nil
}

func (s *CommentServiceImpl) List(ctx context.Context, videoID uuid.UUID, page, limit int) (model.Page[model.Comment], error) {
	if _, err := s.videos.GetByID(ctx, videoID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Page[model.Comment]{}, errs.NotFound("video not found")
		}
		return model.Page[model.Comment]{}, err
	}
	page, limit = pageBounds(page, limit)
	docs, total, err := s.comments.ListByVideo(ctx, videoID, page, limit)
	if err != nil {
		return model.Page[model.Comment]{}, err
	}
	return model.NewPage(docs, total, page, limit), nil
}

func (s *CommentServiceImpl) Add(ctx context.Context, videoID, owner uuid.UUID, content string) (*model.Comment, error) {
	content, err := commentContent(content)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInternal, err)
	}
	c := &model.Comment{ID: id, VideoID: videoID, OwnerID: owner, Content: content}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CommentServiceImpl) Update(ctx context.Context, id, owner uuid.UUID, content string) (*model.Comment, error) {
	content, err := commentContent(content)
	if err != nil {
		return nil, err
	}
	c, err := s.comments.UpdateOwned(ctx, id, owner, content)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errCommentNotOwned
	}
	return c, err
}

func (s *CommentServiceImpl) Delete(ctx context.Context, id, owner uuid.UUID) error {
	err := s.comments.DeleteOwned(ctx, id, owner)
	if errors.Is(err, errs.ErrNotFound) {
		return errCommentNotOwned
	}
	return err
}
