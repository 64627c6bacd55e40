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

// PlaylistInput is the editable part of a playlist.
type PlaylistInput struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=2000"`
}

// PlaylistService manages playlists and their videos.
type PlaylistService interface {
	Create(ctx context.Context, owner uuid.UUID, in PlaylistInput) (*model.Playlist, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Playlist, error)
	ListByUser(ctx context.Context, owner uuid.UUID) ([]model.Playlist, error)
	Update(ctx context.Context, id, caller uuid.UUID, in PlaylistInput) (*model.Playlist, error)
	Delete(ctx context.Context, id, caller uuid.UUID) error
	AddVideo(ctx context.Context, playlistID, videoID, caller uuid.UUID) (*model.Playlist, error)
	RemoveVideo(ctx context.Context, playlistID, videoID, caller uuid.UUID) (*model.Playlist, error)
}

type PlaylistServiceImpl struct {
	playlists repository.PlaylistRepository
	videos    repository.VideoRepository
}

func NewPlaylistService(playlists repository.PlaylistRepository, videos repository.VideoRepository) *PlaylistServiceImpl {
	return &PlaylistServiceImpl{playlists: playlists, videos: videos}
}

var errPlaylistNotOwned = errs.NotFound("playlist not found or not authorized")

func (in *PlaylistInput) clean() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	return check(*in)
}

func (s *PlaylistServiceImpl) Create(ctx context.Context, owner uuid.UUID, in PlaylistInput) (*model.Playlist, error) {
	if err := in.clean(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInternal, err)
	}
	p := &model.Playlist{ID: id, OwnerID: owner, Name: in.Name, Description: in.Description, Videos: []model.Video{}}
	if err := s.playlists.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PlaylistServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.Playlist, error) {
	p, err := s.playlists.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.NotFound("playlist not found")
	}
	return p, err
}

func (s *PlaylistServiceImpl) ListByUser(ctx context.Context, owner uuid.UUID) ([]model.Playlist, error) {
	return s.playlists.ListByOwner(ctx, owner)
}

func (s *PlaylistServiceImpl) Update(ctx context.Context, id, caller uuid.UUID, in PlaylistInput) (*model.Playlist, error) {
	if err := in.clean(); err != nil {
		return nil, err
	}
	p, err := s.playlists.UpdateOwned(ctx, id, caller, in.Name, in.Description)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errPlaylistNotOwned
	}
	return p, err
}

func (s *PlaylistServiceImpl) Delete(ctx context.Context, id, caller uuid.UUID) error {
	err := s.playlists.DeleteOwned(ctx, id, caller)
	if errors.Is(err, errs.ErrNotFound) {
		return errPlaylistNotOwned
	}
	return err
}

// owned loads a playlist and checks that caller owns it.
func (s *PlaylistServiceImpl) owned(ctx context.Context, id, caller uuid.UUID) (*model.Playlist, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != caller {
		return nil, errs.Forbidden("only the owner can modify this playlist")
	}
	return p, nil
}

func (s *PlaylistServiceImpl) AddVideo(ctx context.Context, playlistID, videoID, caller uuid.UUID) (*model.Playlist, error) {
	if _, err := s.owned(ctx, playlistID, caller); err != nil {
		return nil, err
	}
	v, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.NotFound("video not found")
		}
		return nil, err
	}
	// drafts of other channels stay invisible here as in GET /videos/:id
	if !v.IsPublished && v.OwnerID != caller {
		return nil, errs.NotFound("video not found")
	}
	switch err := s.playlists.AddVideo(ctx, playlistID, videoID); {
	case errors.Is(err, errs.ErrAlreadyExists):
		return nil, errs.Validation("video is already in the playlist")
	case errors.Is(err, errs.ErrNotFound):
		return nil, errs.NotFound("video not found")
	case err != nil:
		return nil, err
	}
	return s.Get(ctx, playlistID)
}

func (s *PlaylistServiceImpl) RemoveVideo(ctx context.Context, playlistID, videoID, caller uuid.UUID) (*model.Playlist, error) {
	if _, err := s.owned(ctx, playlistID, caller); err != nil {
		return nil, err
	}
	err := s.playlists.RemoveVideo(ctx, playlistID, videoID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.NotFound("video is not in the playlist")
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, playlistID)
}
