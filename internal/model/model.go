// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// TokenPair collects an issued access/refresh token pair.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Account represents a registered user (and their channel).
type Account struct {
	ID           uuid.UUID // PK
	Username     string    // unique, lowercase
	Email        string    // unique, lowercase
	FullName     string
	Avatar       string // media URL
	CoverImage   string // media URL, "" when unset
	PasswordHash string // argon2id, PHC encoded
	RefreshToken string // current refresh token, "" when no active session
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate lists account fields to change; nil means keep.
type ProfileUpdate struct {
	Username *string
	Email    *string
	FullName *string
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.Username == nil && p.Email == nil && p.FullName == nil
}

// OwnerSummary is the public projection of an account embedded in other entities.
type OwnerSummary struct {
	ID       uuid.UUID
	Username string
	FullName string
	Avatar   string
}

// ChannelProfile is an account as seen by another user.
type ChannelProfile struct {
	ID                        uuid.UUID
	Username                  string
	FullName                  string
	Email                     string
	Avatar                    string
	CoverImage                string
	SubscribersCount          int64
	ChannelsSubscribedToCount int64
	IsSubscribed              bool
}

// Video is a published (or draft) video owned by an account.
type Video struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	VideoFile   string // media URL
	Thumbnail   string // media URL
	Title       string
	Description string
	Duration    float64 // seconds
	Views       int64
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Owner *OwnerSummary // filled by read paths that join the owner
}

// VideoUpdate lists video fields to change; nil means keep.
type VideoUpdate struct {
	Title       *string
	Description *string
	Thumbnail   *string
}

// Sort keys accepted by video listings.
const (
	SortByCreatedAt = "createdAt"
	SortByViews     = "views"
	SortByTitle     = "title"
	SortByDuration  = "duration"
)

// VideoQuery filters and orders a video listing.
type VideoQuery struct {
	Page     int
	Limit    int
	Query    string     // case-insensitive title substring
	SortBy   string     // one of SortBy*
	Asc      bool       // ascending order when true
	OwnerID  *uuid.UUID // restrict to one channel
	ViewerID uuid.UUID  // unpublished videos are visible to their owner only
}

// Comment is a comment left on a video.
type Comment struct {
	ID        uuid.UUID
	VideoID   uuid.UUID
	OwnerID   uuid.UUID
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time

	Owner *OwnerSummary
}

// Playlist is an ordered set of videos curated by an account.
type Playlist struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Videos []Video
}

// ChannelStats aggregates counters for a channel dashboard.
type ChannelStats struct {
	TotalVideos      int64
	TotalViews       int64
	TotalLikes       int64
	TotalSubscribers int64
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Docs       []T
	TotalDocs  int64
	Limit      int
	Page       int
	TotalPages int
}

// NewPage computes pagination metadata for docs at page/limit out of total.
func NewPage[T any](docs []T, total int64, page, limit int) Page[T] {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	if docs == nil {
		docs = []T{}
	}
	return Page[T]{Docs: docs, TotalDocs: total, Limit: limit, Page: page, TotalPages: pages}
}

// HasNext reports whether a following page exists.
func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages }

// HasPrev reports whether a preceding page exists.
func (p Page[T]) HasPrev() bool { return p.Page > 1 }
