package repository

import (
	"context"

	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// PlaylistRepository stores playlists and their video lists.
type PlaylistRepository interface {
	Create(ctx context.Context, p *model.Playlist) error
	// GetByID loads a playlist with its videos.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Playlist, error)
	// ListByOwner loads all playlists of an account with their videos.
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.Playlist, error)
	// UpdateOwned changes name/description when owner matches; errs.ErrNotFound otherwise.
	UpdateOwned(ctx context.Context, id, owner uuid.UUID, name, description string) (*model.Playlist, error)
	// DeleteOwned removes the playlist when owner matches; errs.ErrNotFound otherwise.
	DeleteOwned(ctx context.Context, id, owner uuid.UUID) error
	// AddVideo appends a video; errs.ErrAlreadyExists when already present.
	AddVideo(ctx context.Context, playlistID, videoID uuid.UUID) error
	// RemoveVideo drops a video; errs.ErrNotFound when not present.
	RemoveVideo(ctx context.Context, playlistID, videoID uuid.UUID) error
}
