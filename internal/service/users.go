package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/media"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/repository"
)

// UserService covers the signed-in account and public channel reads.
type UserService interface {
	Current(ctx context.Context, id uuid.UUID) (*model.Account, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd model.ProfileUpdate) (*model.Account, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, f *media.File) (*model.Account, error)
	UpdateCoverImage(ctx context.Context, id uuid.UUID, f *media.File) (*model.Account, error)
	// Delete removes the account, everything it owns and its stored media.
	Delete(ctx context.Context, id uuid.UUID) error
	ChannelProfile(ctx context.Context, username string, viewer uuid.UUID) (*model.ChannelProfile, error)
	WatchHistory(ctx context.Context, id uuid.UUID) ([]model.Video, error)
}

type UserServiceImpl struct {
	users  repository.UserRepository
	videos repository.VideoRepository
	media  media.Storage
	log    *zap.Logger
}

func NewUserService(users repository.UserRepository, videos repository.VideoRepository, store media.Storage, log *zap.Logger) *UserServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserServiceImpl{users: users, videos: videos, media: store, log: log}
}

func (s *UserServiceImpl) Current(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return s.users.GetByID(ctx, id)
}

type profileForm struct {
	Username *string `json:"username" validate:"omitnil,min=1,max=64"`
	Email    *string `json:"email" validate:"omitnil,email,max=254"`
	FullName *string `json:"fullName" validate:"omitnil,min=1,max=128"`
}

// UpdateProfile requires at least one field; present fields must not be blank.
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, id uuid.UUID, upd model.ProfileUpdate) (*model.Account, error) {
	if upd.Empty() {
		return nil, errs.Validation("at least one of username, email, fullName is required")
	}
	upd.Username = normalize(upd.Username, true)
	upd.Email = normalize(upd.Email, true)
	upd.FullName = normalize(upd.FullName, false)
	if err := check(profileForm{Username: upd.Username, Email: upd.Email, FullName: upd.FullName}); err != nil {
		return nil, err
	}
	return s.users.UpdateProfile(ctx, id, upd)
}

func normalize(p *string, lower bool) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if lower {
		v = strings.ToLower(v)
	}
	return &v
}

func (s *UserServiceImpl) UpdateAvatar(ctx context.Context, id uuid.UUID, f *media.File) (*model.Account, error) {
	if f == nil {
		return nil, errs.Validation("avatar file is missing")
	}
	return s.replaceMedia(ctx, id, media.KindAvatar, *f, s.users.UpdateAvatar)
}

func (s *UserServiceImpl) UpdateCoverImage(ctx context.Context, id uuid.UUID, f *media.File) (*model.Account, error) {
	if f == nil {
		return nil, errs.Validation("cover image file is missing")
	}
	return s.replaceMedia(ctx, id, media.KindCover, *f, s.users.UpdateCoverImage)
}

// replaceMedia uploads f, stores its URL and drops the previous object.
func (s *UserServiceImpl) replaceMedia(ctx context.Context, id uuid.UUID, kind media.Kind, f media.File,
	store func(context.Context, uuid.UUID, string) (string, error)) (*model.Account, error) {
	url, err := s.media.Upload(ctx, kind, f)
	if err != nil {
		return nil, fmt.Errorf("%w: upload %s: %v", errs.ErrInternal, kind, err)
	}
	prev, err := store(ctx, id, url)
	if err != nil {
		discardMedia(ctx, s.media, s.log, url)
		return nil, err
	}
	discardMedia(ctx, s.media, s.log, prev)
	return s.users.GetByID(ctx, id)
}

func (s *UserServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	videos, err := s.videos.ListByOwner(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	urls := []string{a.Avatar, a.CoverImage}
	for _, v := range videos {
		urls = append(urls, v.VideoFile, v.Thumbnail)
	}
	discardMedia(ctx, s.media, s.log, urls...)
	return nil
}

func (s *UserServiceImpl) ChannelProfile(ctx context.Context, username string, viewer uuid.UUID) (*model.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, errs.Validation("username is missing")
	}
	p, err := s.users.ChannelProfile(ctx, username, viewer)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.NotFound("channel does not exist")
	}
	return p, err
}

func (s *UserServiceImpl) WatchHistory(ctx context.Context, id uuid.UUID) ([]model.Video, error) {
	return s.users.WatchHistory(ctx, id)
}
