package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/media"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/repository"
)

// Listing limits.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	// MaxPage keeps (page-1)*limit inside int for any accepted limit.
	MaxPage = math.MaxInt / MaxPageLimit
)

// PublishInput is the metadata of a new video. Duration is capped at one day.
type PublishInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"required,max=5000"`
	Duration    float64 `json:"duration" validate:"gte=0,lte=86400"`
}

// VideoService manages videos and their visibility.
type VideoService interface {
	List(ctx context.Context, q model.VideoQuery) (model.Page[model.Video], error)
	// Publish uploads the files and stores an unpublished video.
	Publish(ctx context.Context, owner uuid.UUID, in PublishInput, video, thumbnail *media.File) (*model.Video, error)
	// Get returns a visible video and records the viewer's view.
	Get(ctx context.Context, id, viewer uuid.UUID) (*model.Video, error)
	Update(ctx context.Context, id, caller uuid.UUID, upd model.VideoUpdate, thumbnail *media.File) (*model.Video, error)
	Delete(ctx context.Context, id, caller uuid.UUID) error
	TogglePublish(ctx context.Context, id, caller uuid.UUID) (bool, error)
}

type VideoServiceImpl struct {
	videos repository.VideoRepository
	media  media.Storage
	log    *zap.Logger
}

func NewVideoService(videos repository.VideoRepository, store media.Storage, log *zap.Logger) *VideoServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &VideoServiceImpl{videos: videos, media: store, log: log}
}

// pageBounds applies the default page and clamps the limit.
func pageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

func (s *VideoServiceImpl) List(ctx context.Context, q model.VideoQuery) (model.Page[model.Video], error) {
	q.Page, q.Limit = pageBounds(q.Page, q.Limit)
	q.Query = strings.TrimSpace(q.Query)
	switch q.SortBy {
	case "":
		q.SortBy = model.SortByCreatedAt
	case model.SortByCreatedAt, model.SortByViews, model.SortByTitle, model.SortByDuration:
	default:
		return model.Page[model.Video]{}, errs.Validation("sortBy must be one of createdAt, views, title, duration")
	}
	docs, total, err := s.videos.List(ctx, q)
	if err != nil {
		return model.Page[model.Video]{}, err
	}
	return model.NewPage(docs, total, q.Page, q.Limit), nil
}

func (s *VideoServiceImpl) Publish(ctx context.Context, owner uuid.UUID, in PublishInput, video, thumbnail *media.File) (*model.Video, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	// NaN and ±Inf pass range tags but cannot be encoded as JSON
	if math.IsNaN(in.Duration) || math.IsInf(in.Duration, 0) {
		return nil, errs.Validation("duration must be a finite number of seconds")
	}
	if err := check(in); err != nil {
		return nil, err
	}
	if video == nil {
		return nil, errs.Validation("videoFile is required")
	}
	if thumbnail == nil {
		return nil, errs.Validation("thumbnail is required")
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInternal, err)
	}

	videoURL, err := s.media.Upload(ctx, media.KindVideo, *video)
	if err != nil {
		return nil, fmt.Errorf("%w: upload video: %v", errs.ErrInternal, err)
	}
	thumbURL, err := s.media.Upload(ctx, media.KindThumbnail, *thumbnail)
	if err != nil {
		discardMedia(ctx, s.media, s.log, videoURL)
		return nil, fmt.Errorf("%w: upload thumbnail: %v", errs.ErrInternal, err)
	}

	v := &model.Video{
		ID:          id,
		OwnerID:     owner,
		VideoFile:   videoURL,
		Thumbnail:   thumbURL,
		Title:       in.Title,
		Description: in.Description,
		Duration:    in.Duration,
	}
	if err := s.videos.Create(ctx, v); err != nil {
		discardMedia(ctx, s.media, s.log, videoURL, thumbURL)
		return nil, err
	}
	return v, nil
}

// Get hides unpublished videos from everyone but their owner.
func (s *VideoServiceImpl) Get(ctx context.Context, id, viewer uuid.UUID) (*model.Video, error) {
	v, err := s.visible(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	if err := s.videos.RecordView(ctx, id, viewer); err != nil {
		return nil, err
	}
	return s.videos.GetByID(ctx, v.ID)
}

func (s *VideoServiceImpl) visible(ctx context.Context, id, viewer uuid.UUID) (*model.Video, error) {
	v, err := s.videos.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.NotFound("video not found")
	}
	if err != nil {
		return nil, err
	}
	if !v.IsPublished && v.OwnerID != viewer {
		return nil, errs.NotFound("video not found")
	}
	return v, nil
}

// owned loads a video and checks that caller owns it.
func (s *VideoServiceImpl) owned(ctx context.Context, id, caller uuid.UUID) (*model.Video, error) {
	v, err := s.videos.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.NotFound("video not found")
	}
	if err != nil {
		return nil, err
	}
	if v.OwnerID != caller {
		return nil, errs.Forbidden("only the owner can modify this video")
	}
	return v, nil
}

func (s *VideoServiceImpl) Update(ctx context.Context, id, caller uuid.UUID, upd model.VideoUpdate, thumbnail *media.File) (*model.Video, error) {
	upd.Title = normalize(upd.Title, false)
	upd.Description = normalize(upd.Description, false)
	if (upd.Title != nil && *upd.Title == "") || (upd.Description != nil && *upd.Description == "") {
		return nil, errs.Validation("title and description must not be blank")
	}
	if upd.Title == nil && upd.Description == nil && thumbnail == nil {
		return nil, errs.Validation("nothing to update")
	}
	cur, err := s.owned(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	var thumbURL string
	if thumbnail != nil {
		thumbURL, err = s.media.Upload(ctx, media.KindThumbnail, *thumbnail)
		if err != nil {
			return nil, fmt.Errorf("%w: upload thumbnail: %v", errs.ErrInternal, err)
		}
		upd.Thumbnail = &thumbURL
	}

	v, err := s.videos.Update(ctx, id, upd)
	if err != nil {
		discardMedia(ctx, s.media, s.log, thumbURL)
		return nil, err
	}
	if thumbURL != "" {
		discardMedia(ctx, s.media, s.log, cur.Thumbnail)
	}
	return v, nil
}

func (s *VideoServiceImpl) Delete(ctx context.Context, id, caller uuid.UUID) error {
	v, err := s.owned(ctx, id, caller)
	if err != nil {
		return err
	}
	if err := s.videos.Delete(ctx, id); err != nil {
		return err
	}
	discardMedia(ctx, s.media, s.log, v.VideoFile, v.Thumbnail)
	return nil
}

func (s *VideoServiceImpl) TogglePublish(ctx context.Context, id, caller uuid.UUID) (bool, error) {
	if _, err := s.owned(ctx, id, caller); err != nil {
		return false, err
	}
	return s.videos.TogglePublish(ctx, id)
}
