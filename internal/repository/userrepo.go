// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository is the credential store: accounts, their current refresh
// token and the channel reads built on top of them.
type UserRepository interface {
	// Create inserts a new account; errs.ErrAlreadyExists on duplicate username/email.
	Create(ctx context.Context, a *model.Account) error
	// GetByID loads an account by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	// GetByLogin loads an account whose username or email matches.
	GetByLogin(ctx context.Context, username, email string) (*model.Account, error)
	// UpdateProfile changes username/email/full name and returns the result.
	UpdateProfile(ctx context.Context, id uuid.UUID, upd model.ProfileUpdate) (*model.Account, error)
	// UpdatePassword stores a new password hash.
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	// UpdateAvatar stores a new avatar URL and returns the previous one.
	UpdateAvatar(ctx context.Context, id uuid.UUID, url string) (string, error)
	// UpdateCoverImage stores a new cover image URL and returns the previous one.
	UpdateCoverImage(ctx context.Context, id uuid.UUID, url string) (string, error)
	// Delete removes the account and everything it owns.
	Delete(ctx context.Context, id uuid.UUID) error

	// SetRefreshToken overwrites the current refresh token.
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	// SwapRefreshToken replaces old with next only while old is current.
	SwapRefreshToken(ctx context.Context, id uuid.UUID, old, next string) (bool, error)
	// ClearRefreshToken sets the current refresh token to NULL.
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error

	// ChannelProfile loads a channel by username with subscription counters
	// relative to viewer.
	ChannelProfile(ctx context.Context, username string, viewer uuid.UUID) (*model.ChannelProfile, error)
	// WatchHistory lists videos the account watched, most recent first.
	WatchHistory(ctx context.Context, id uuid.UUID) ([]model.Video, error)
}
