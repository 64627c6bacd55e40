// Package convert maps domain models to the JSON shapes served by the REST API.
package convert

import (
	"time"

	model "github.com/and161185/vidhub/internal/model"
	u "github.com/gofrs/uuid/v5"
)

// --- helpers ---

func ts(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}

func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}

// --- accounts ---

// Account is the private profile of the signed-in user.
// It never carries the password hash or the refresh token.
type Account struct {
	ID         u.UUID     `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FullName   string     `json:"fullName"`
	Avatar     string     `json:"avatar"`
	CoverImage string     `json:"coverImage"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

func ToAccount(a *model.Account) *Account {
	if a == nil {
		return nil
	}
	return &Account{
		ID:         a.ID,
		Username:   a.Username,
		Email:      a.Email,
		FullName:   a.FullName,
		Avatar:     a.Avatar,
		CoverImage: a.CoverImage,
		CreatedAt:  ts(a.CreatedAt),
		UpdatedAt:  ts(a.UpdatedAt),
	}
}

// Owner is the public projection of an account embedded in other objects.
type Owner struct {
	ID       u.UUID `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName,omitempty"`
	Avatar   string `json:"avatar"`
}

func ToOwner(o model.OwnerSummary) Owner {
	return Owner{ID: o.ID, Username: o.Username, FullName: o.FullName, Avatar: o.Avatar}
}

func ToOwners(in []model.OwnerSummary) []Owner { return mapSlice(in, ToOwner) }

type ChannelProfile struct {
	ID                        u.UUID `json:"id"`
	Username                  string `json:"username"`
	FullName                  string `json:"fullName"`
	Email                     string `json:"email"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

func ToChannelProfile(p *model.ChannelProfile) ChannelProfile {
	return ChannelProfile{
		ID:                        p.ID,
		Username:                  p.Username,
		FullName:                  p.FullName,
		Email:                     p.Email,
		Avatar:                    p.Avatar,
		CoverImage:                p.CoverImage,
		SubscribersCount:          p.SubscribersCount,
		ChannelsSubscribedToCount: p.ChannelsSubscribedToCount,
		IsSubscribed:              p.IsSubscribed,
	}
}

// Tokens is the body part carrying an issued pair.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func ToTokens(p model.TokenPair) Tokens {
	return Tokens{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}

// Login is the login response: the profile plus both tokens.
type Login struct {
	User *Account `json:"user"`
	Tokens
}

func ToLogin(a *model.Account, p model.TokenPair) Login {
	return Login{User: ToAccount(a), Tokens: ToTokens(p)}
}

// --- videos ---

type Video struct {
	ID          u.UUID     `json:"id"`
	VideoFile   string     `json:"videoFile"`
	Thumbnail   string     `json:"thumbnail"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Duration    float64    `json:"duration"`
	Views       int64      `json:"views"`
	IsPublished bool       `json:"isPublished"`
	OwnerID     u.UUID     `json:"ownerId"`
	Owner       *Owner     `json:"owner,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

func ToVideo(v model.Video) Video {
	out := Video{
		ID:          v.ID,
		VideoFile:   v.VideoFile,
		Thumbnail:   v.Thumbnail,
		Title:       v.Title,
		Description: v.Description,
		Duration:    v.Duration,
		Views:       v.Views,
		IsPublished: v.IsPublished,
		OwnerID:     v.OwnerID,
		CreatedAt:   ts(v.CreatedAt),
		UpdatedAt:   ts(v.UpdatedAt),
	}
	if v.Owner != nil {
		o := ToOwner(*v.Owner)
		out.Owner = &o
	}
	return out
}

func ToVideos(in []model.Video) []Video { return mapSlice(in, ToVideo) }

// --- comments ---

type Comment struct {
	ID        u.UUID     `json:"id"`
	VideoID   u.UUID     `json:"video"`
	OwnerID   u.UUID     `json:"ownerId"`
	Owner     *Owner     `json:"owner,omitempty"`
	Content   string     `json:"content"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func ToComment(c model.Comment) Comment {
	out := Comment{
		ID:        c.ID,
		VideoID:   c.VideoID,
		OwnerID:   c.OwnerID,
		Content:   c.Content,
		CreatedAt: ts(c.CreatedAt),
		UpdatedAt: ts(c.UpdatedAt),
	}
	if c.Owner != nil {
		o := ToOwner(*c.Owner)
		out.Owner = &o
	}
	return out
}

// --- playlists ---

type Playlist struct {
	ID          u.UUID     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	OwnerID     u.UUID     `json:"owner"`
	Videos      []Video    `json:"videos"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

func ToPlaylist(p model.Playlist) Playlist {
	return Playlist{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		Videos:      ToVideos(p.Videos),
		CreatedAt:   ts(p.CreatedAt),
		UpdatedAt:   ts(p.UpdatedAt),
	}
}

func ToPlaylists(in []model.Playlist) []Playlist { return mapSlice(in, ToPlaylist) }

// --- dashboard ---

type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalLikes       int64 `json:"totalLikes"`
	TotalSubscribers int64 `json:"totalSubscribers"`
}

func ToChannelStats(s model.ChannelStats) ChannelStats {
	return ChannelStats(s)
}

// --- pagination ---

type Page[T any] struct {
	Docs        []T   `json:"docs"`
	TotalDocs   int64 `json:"totalDocs"`
	Limit       int   `json:"limit"`
	Page        int   `json:"page"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// ToPage converts a page of domain values with fn.
func ToPage[T, R any](p model.Page[T], fn func(T) R) Page[R] {
	return Page[R]{
		Docs:        mapSlice(p.Docs, fn),
		TotalDocs:   p.TotalDocs,
		Limit:       p.Limit,
		Page:        p.Page,
		TotalPages:  p.TotalPages,
		HasNextPage: p.HasNext(),
		HasPrevPage: p.HasPrev(),
	}
}
