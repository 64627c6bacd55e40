package httpserver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/media"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/repository"
	"github.com/and161185/vidhub/internal/service"
)

// memUsers is an in-memory credential store with compare-and-swap rotation.
type memUsers struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.Account
}

var _ repository.UserRepository = (*memUsers)(nil)

func (m *memUsers) Create(_ context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == a.Username || u.Email == a.Email {
			return errs.Conflict("user with email or username already exists")
		}
	}
	c := *a
	m.byID[a.ID] = &c
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (m *memUsers) GetByLogin(_ context.Context, username, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if (username != "" && a.Username == username) || (email != "" && a.Email == email) {
			c := *a
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *memUsers) UpdateProfile(ctx context.Context, id uuid.UUID, upd model.ProfileUpdate) (*model.Account, error) {
	err := m.with(id, func(a *model.Account) {
		if upd.FullName != nil {
			a.FullName = *upd.FullName
		}
	})
	if err != nil {
		return nil, err
	}
	return m.GetByID(ctx, id)
}

func (m *memUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	return m.with(id, func(a *model.Account) { a.PasswordHash = hash })
}

func (m *memUsers) UpdateAvatar(_ context.Context, id uuid.UUID, url string) (string, error) {
	var prev string
	err := m.with(id, func(a *model.Account) { prev, a.Avatar = a.Avatar, url })
	return prev, err
}

func (m *memUsers) UpdateCoverImage(_ context.Context, id uuid.UUID, url string) (string, error) {
	var prev string
	err := m.with(id, func(a *model.Account) { prev, a.CoverImage = a.CoverImage, url })
	return prev, err
}

func (m *memUsers) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return errs.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) SetRefreshToken(_ context.Context, id uuid.UUID, token string) error {
	return m.with(id, func(a *model.Account) { a.RefreshToken = token })
}

func (m *memUsers) SwapRefreshToken(_ context.Context, id uuid.UUID, old, next string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok || a.RefreshToken != old {
		return false, nil
	}
	a.RefreshToken = next
	return true, nil
}

func (m *memUsers) ClearRefreshToken(_ context.Context, id uuid.UUID) error {
	return m.with(id, func(a *model.Account) { a.RefreshToken = "" })
}

func (m *memUsers) ChannelProfile(context.Context, string, uuid.UUID) (*model.ChannelProfile, error) {
	return nil, errs.ErrNotFound
}

func (m *memUsers) WatchHistory(context.Context, uuid.UUID) ([]model.Video, error) {
	return []model.Video{}, nil
}

func (m *memUsers) with(id uuid.UUID, fn func(*model.Account)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	fn(a)
	return nil
}

func (m *memUsers) refreshOf(id uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		return a.RefreshToken
	}
	return ""
}

// noVideos is an empty video store.
type noVideos struct{ repository.VideoRepository }

func (noVideos) ListByOwner(context.Context, uuid.UUID) ([]model.Video, error) {
	return []model.Video{}, nil
}

type memMedia struct {
	mu sync.Mutex
	n  int
}

func (m *memMedia) Upload(_ context.Context, kind media.Kind, f media.File) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	return fmt.Sprintf("https://cdn.test/%s/%d-%s", kind, m.n, f.Name), nil
}

func (m *memMedia) Delete(context.Context, string) error { return nil }

// stubVideos answers video calls with canned results. Calls it does not
// override, and List when a service is attached, reach the embedded service.
type stubVideos struct {
	service.VideoService
	err     error
	gotQ    model.VideoQuery
	gotID   uuid.UUID
	gotUpd  model.VideoUpdate
	gotFile *media.File
}

func (s *stubVideos) List(ctx context.Context, q model.VideoQuery) (model.Page[model.Video], error) {
	s.gotQ = q
	if s.VideoService != nil {
		return s.VideoService.List(ctx, q)
	}
	return model.NewPage([]model.Video{{Title: "x"}}, 1, 1, 10), s.err
}

func (s *stubVideos) Get(_ context.Context, id, _ uuid.UUID) (*model.Video, error) {
	s.gotID = id
	if s.err != nil {
		return nil, s.err
	}
	return &model.Video{ID: id, Title: "x"}, nil
}

func (s *stubVideos) Update(_ context.Context, id, _ uuid.UUID, upd model.VideoUpdate, f *media.File) (*model.Video, error) {
	s.gotID, s.gotUpd, s.gotFile = id, upd, f
	if s.err != nil {
		return nil, s.err
	}
	return &model.Video{ID: id}, nil
}

func (s *stubVideos) TogglePublish(_ context.Context, id, _ uuid.UUID) (bool, error) {
	s.gotID = id
	return true, s.err
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("db down") }

// oneVideo serves a single published video.
type oneVideo struct {
	noVideos
	v *model.Video
}

func (o oneVideo) GetByID(_ context.Context, id uuid.UUID) (*model.Video, error) {
	if id != o.v.ID {
		return nil, errs.ErrNotFound
	}
	c := *o.v
	return &c, nil
}

// pagedVideos records the query the list endpoint reaches the store with.
type pagedVideos struct {
	noVideos
	gotQ model.VideoQuery
}

func (p *pagedVideos) List(_ context.Context, q model.VideoQuery) ([]model.Video, int64, error) {
	p.gotQ = q
	return []model.Video{}, 0, nil
}

// memComments keeps comments on one video in memory and records the
// requested page.
type memComments struct {
	mu                sync.Mutex
	video             uuid.UUID
	byID              map[uuid.UUID]*model.Comment
	gotPage, gotLimit int
}

var _ repository.CommentRepository = (*memComments)(nil)

func (m *memComments) ListByVideo(_ context.Context, videoID uuid.UUID, page, limit int) ([]model.Comment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotPage, m.gotLimit = page, limit
	out := []model.Comment{}
	for _, c := range m.byID {
		if c.VideoID == videoID {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memComments) Create(_ context.Context, c *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.VideoID != m.video {
		return errs.NotFound("video not found")
	}
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memComments) UpdateOwned(_ context.Context, id, owner uuid.UUID, content string) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok || c.OwnerID != owner {
		return nil, errs.ErrNotFound
	}
	c.Content = content
	cp := *c
	return &cp, nil
}

func (m *memComments) DeleteOwned(_ context.Context, id, owner uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok || c.OwnerID != owner {
		return errs.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// memSubs flips subscription edges.
type memSubs struct {
	mu    sync.Mutex
	edges map[[2]uuid.UUID]bool
}

var _ repository.SubscriptionRepository = (*memSubs)(nil)

func (m *memSubs) Toggle(_ context.Context, subscriber, channel uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]uuid.UUID{subscriber, channel}
	m.edges[k] = !m.edges[k]
	return m.edges[k], nil
}

func (m *memSubs) Subscribers(context.Context, uuid.UUID) ([]model.OwnerSummary, error) {
	return []model.OwnerSummary{}, nil
}

func (m *memSubs) Channels(context.Context, uuid.UUID) ([]model.OwnerSummary, error) {
	return []model.OwnerSummary{}, nil
}

// stubLikes flips like state per target and returns err for comments when set.
type stubLikes struct {
	service.LikeService
	liked map[uuid.UUID]bool
	err   error
}

func (s *stubLikes) ToggleVideo(_ context.Context, _, id uuid.UUID) (bool, error) {
	s.liked[id] = !s.liked[id]
	return s.liked[id], nil
}

func (s *stubLikes) ToggleComment(_ context.Context, _, id uuid.UUID) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.liked[id] = !s.liked[id]
	return s.liked[id], nil
}

// stubPlaylists answers playlist calls with canned results.
type stubPlaylists struct {
	service.PlaylistService
	err                   error
	gotPlaylist, gotVideo uuid.UUID
}

func (s *stubPlaylists) Get(_ context.Context, id uuid.UUID) (*model.Playlist, error) {
	s.gotPlaylist = id
	if s.err != nil {
		return nil, s.err
	}
	return &model.Playlist{ID: id, Name: "p"}, nil
}

func (s *stubPlaylists) AddVideo(_ context.Context, playlistID, videoID, _ uuid.UUID) (*model.Playlist, error) {
	s.gotPlaylist, s.gotVideo = playlistID, videoID
	if s.err != nil {
		return nil, s.err
	}
	return &model.Playlist{ID: playlistID, Videos: []model.Video{{ID: videoID}}}, nil
}

// stubDashboard answers dashboard calls with canned results.
type stubDashboard struct {
	service.DashboardService
	err error
}

func (s *stubDashboard) Stats(context.Context, uuid.UUID) (model.ChannelStats, error) {
	return model.ChannelStats{TotalVideos: 2, TotalViews: 7}, s.err
}

func (s *stubDashboard) Videos(context.Context, uuid.UUID) ([]model.Video, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []model.Video{}, nil
}
