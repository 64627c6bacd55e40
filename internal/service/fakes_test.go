package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/limiter"
	"github.com/and161185/vidhub/internal/media"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/repository"
)

type fakeUsers struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.Account

	createErr error
	getErr    error
	swapErr   error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func newFakeUsers(accts ...*model.Account) *fakeUsers {
	f := &fakeUsers{byID: map[uuid.UUID]*model.Account{}}
	for _, a := range accts {
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, a *model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.byID {
		if u.Username == a.Username || u.Email == a.Email {
			return errs.Conflict("user with email or username already exists")
		}
	}
	c := *a
	f.byID[a.ID] = &c
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (f *fakeUsers) GetByLogin(_ context.Context, username, email string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, a := range f.byID {
		if (username != "" && a.Username == username) || (email != "" && a.Email == email) {
			c := *a
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id uuid.UUID, upd model.ProfileUpdate) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if upd.Username != nil {
		a.Username = *upd.Username
	}
	if upd.Email != nil {
		a.Email = *upd.Email
	}
	if upd.FullName != nil {
		a.FullName = *upd.FullName
	}
	c := *a
	return &c, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	return f.with(id, func(a *model.Account) { a.PasswordHash = hash })
}

func (f *fakeUsers) UpdateAvatar(_ context.Context, id uuid.UUID, url string) (string, error) {
	var prev string
	err := f.with(id, func(a *model.Account) { prev, a.Avatar = a.Avatar, url })
	return prev, err
}

func (f *fakeUsers) UpdateCoverImage(_ context.Context, id uuid.UUID, url string) (string, error) {
	var prev string
	err := f.with(id, func(a *model.Account) { prev, a.CoverImage = a.CoverImage, url })
	return prev, err
}

func (f *fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUsers) SetRefreshToken(_ context.Context, id uuid.UUID, token string) error {
	return f.with(id, func(a *model.Account) { a.RefreshToken = token })
}

func (f *fakeUsers) SwapRefreshToken(_ context.Context, id uuid.UUID, old, next string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.swapErr != nil {
		return false, f.swapErr
	}
	a, ok := f.byID[id]
	if !ok || a.RefreshToken != old {
		return false, nil
	}
	a.RefreshToken = next
	return true, nil
}

func (f *fakeUsers) ClearRefreshToken(_ context.Context, id uuid.UUID) error {
	return f.with(id, func(a *model.Account) { a.RefreshToken = "" })
}

func (f *fakeUsers) ChannelProfile(_ context.Context, username string, _ uuid.UUID) (*model.ChannelProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Username == username {
			return &model.ChannelProfile{ID: a.ID, Username: a.Username, FullName: a.FullName, Email: a.Email}, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) WatchHistory(context.Context, uuid.UUID) ([]model.Video, error) {
	return []model.Video{}, nil
}

func (f *fakeUsers) with(id uuid.UUID, fn func(*model.Account)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	fn(a)
	return nil
}

func (f *fakeUsers) refreshOf(id uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id].RefreshToken
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, time.Minute, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, time.Minute, l.failErr
}

// fakeMedia records uploads and deletions.
type fakeMedia struct {
	mu        sync.Mutex
	n         int
	uploaded  []string
	deleted   []string
	failKinds map[media.Kind]bool
	deleteErr error
}

var _ media.Storage = (*fakeMedia)(nil)

func (m *fakeMedia) Upload(_ context.Context, kind media.Kind, f media.File) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failKinds[kind] {
		return "", errors.New("upload failed")
	}
	if f.Body != nil {
		if _, err := io.Copy(io.Discard, f.Body); err != nil {
			return "", err
		}
	}
	m.n++
	url := fmt.Sprintf("https://cdn.test/%s/%d-%s", kind, m.n, f.Name)
	m.uploaded = append(m.uploaded, url)
	return url, nil
}

func (m *fakeMedia) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, url)
	return m.deleteErr
}

type fakeEvents struct {
	mu     sync.Mutex
	counts map[string]int
}

func (e *fakeEvents) AuthEvent(event, outcome string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.counts == nil {
		e.counts = map[string]int{}
	}
	e.counts[event+"/"+outcome]++
}

func (e *fakeEvents) get(key string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counts[key]
}

type fakeVideos struct {
	byID map[uuid.UUID]*model.Video
	// views per (video, viewer)
	views map[[2]uuid.UUID]bool

	listQ     model.VideoQuery
	listTotal int64
	getErr    error
	createErr error
}

var _ repository.VideoRepository = (*fakeVideos)(nil)

func newFakeVideos(vs ...*model.Video) *fakeVideos {
	f := &fakeVideos{byID: map[uuid.UUID]*model.Video{}, views: map[[2]uuid.UUID]bool{}}
	for _, v := range vs {
		f.byID[v.ID] = v
	}
	return f
}

func (f *fakeVideos) Create(_ context.Context, v *model.Video) error {
	if f.createErr != nil {
		return f.createErr
	}
	c := *v
	f.byID[v.ID] = &c
	return nil
}

func (f *fakeVideos) GetByID(_ context.Context, id uuid.UUID) (*model.Video, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *v
	return &c, nil
}

func (f *fakeVideos) List(_ context.Context, q model.VideoQuery) ([]model.Video, int64, error) {
	f.listQ = q
	out := []model.Video{}
	for _, v := range f.byID {
		out = append(out, *v)
	}
	return out, f.listTotal, nil
}

func (f *fakeVideos) ListByOwner(_ context.Context, owner uuid.UUID) ([]model.Video, error) {
	out := []model.Video{}
	for _, v := range f.byID {
		if v.OwnerID == owner {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeVideos) Update(_ context.Context, id uuid.UUID, upd model.VideoUpdate) (*model.Video, error) {
	v, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if upd.Title != nil {
		v.Title = *upd.Title
	}
	if upd.Description != nil {
		v.Description = *upd.Description
	}
	if upd.Thumbnail != nil {
		v.Thumbnail = *upd.Thumbnail
	}
	c := *v
	return &c, nil
}

func (f *fakeVideos) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeVideos) TogglePublish(_ context.Context, id uuid.UUID) (bool, error) {
	v, ok := f.byID[id]
	if !ok {
		return false, errs.ErrNotFound
	}
	v.IsPublished = !v.IsPublished
	return v.IsPublished, nil
}

func (f *fakeVideos) RecordView(_ context.Context, videoID, viewer uuid.UUID) error {
	key := [2]uuid.UUID{videoID, viewer}
	if !f.views[key] {
		f.views[key] = true
		f.byID[videoID].Views++
	}
	return nil
}

type fakeComments struct {
	byID              map[uuid.UUID]*model.Comment
	gotPage, gotLimit int
}

var _ repository.CommentRepository = (*fakeComments)(nil)

func (f *fakeComments) ListByVideo(_ context.Context, videoID uuid.UUID, page, limit int) ([]model.Comment, int64, error) {
	f.gotPage, f.gotLimit = page, limit
	var out []model.Comment
	for _, c := range f.byID {
		if c.VideoID == videoID {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeComments) Create(_ context.Context, c *model.Comment) error {
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeComments) UpdateOwned(_ context.Context, id, owner uuid.UUID, content string) (*model.Comment, error) {
	c, ok := f.byID[id]
	if !ok || c.OwnerID != owner {
		return nil, errs.ErrNotFound
	}
	c.Content = content
	cp := *c
	return &cp, nil
}

func (f *fakeComments) DeleteOwned(_ context.Context, id, owner uuid.UUID) error {
	c, ok := f.byID[id]
	if !ok || c.OwnerID != owner {
		return errs.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakePlaylists struct {
	byID map[uuid.UUID]*model.Playlist
}

var _ repository.PlaylistRepository = (*fakePlaylists)(nil)

func (f *fakePlaylists) Create(_ context.Context, p *model.Playlist) error {
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePlaylists) GetByID(_ context.Context, id uuid.UUID) (*model.Playlist, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *p
	cp.Videos = append([]model.Video{}, p.Videos...)
	return &cp, nil
}

func (f *fakePlaylists) ListByOwner(_ context.Context, owner uuid.UUID) ([]model.Playlist, error) {
	out := []model.Playlist{}
	for _, p := range f.byID {
		if p.OwnerID == owner {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePlaylists) UpdateOwned(_ context.Context, id, owner uuid.UUID, name, description string) (*model.Playlist, error) {
	p, ok := f.byID[id]
	if !ok || p.OwnerID != owner {
		return nil, errs.ErrNotFound
	}
	p.Name, p.Description = name, description
	cp := *p
	return &cp, nil
}

func (f *fakePlaylists) DeleteOwned(_ context.Context, id, owner uuid.UUID) error {
	p, ok := f.byID[id]
	if !ok || p.OwnerID != owner {
		return errs.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakePlaylists) AddVideo(_ context.Context, playlistID, videoID uuid.UUID) error {
	p := f.byID[playlistID]
	for _, v := range p.Videos {
		if v.ID == videoID {
			return errs.ErrAlreadyExists
		}
	}
	p.Videos = append(p.Videos, model.Video{ID: videoID})
	return nil
}

func (f *fakePlaylists) RemoveVideo(_ context.Context, playlistID, videoID uuid.UUID) error {
	p := f.byID[playlistID]
	for i, v := range p.Videos {
		if v.ID == videoID {
			p.Videos = append(p.Videos[:i], p.Videos[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

type fakeLikes struct {
	liked map[[2]uuid.UUID]bool
	known map[uuid.UUID]bool
}

var _ repository.LikeRepository = (*fakeLikes)(nil)

func (f *fakeLikes) toggle(user, target uuid.UUID) (bool, error) {
	if !f.known[target] {
		return false, errs.ErrNotFound
	}
	key := [2]uuid.UUID{user, target}
	f.liked[key] = !f.liked[key]
	return f.liked[key], nil
}

func (f *fakeLikes) ToggleVideo(_ context.Context, user, videoID uuid.UUID) (bool, error) {
	return f.toggle(user, videoID)
}

func (f *fakeLikes) ToggleComment(_ context.Context, user, commentID uuid.UUID) (bool, error) {
	return f.toggle(user, commentID)
}

func (f *fakeLikes) LikedVideos(context.Context, uuid.UUID) ([]model.Video, error) {
	return []model.Video{}, nil
}

type fakeSubs struct {
	edges map[[2]uuid.UUID]bool
}

var _ repository.SubscriptionRepository = (*fakeSubs)(nil)

func (f *fakeSubs) Toggle(_ context.Context, subscriber, channel uuid.UUID) (bool, error) {
	key := [2]uuid.UUID{subscriber, channel}
	f.edges[key] = !f.edges[key]
	return f.edges[key], nil
}

func (f *fakeSubs) Subscribers(_ context.Context, channel uuid.UUID) ([]model.OwnerSummary, error) {
	out := []model.OwnerSummary{}
	for k, on := range f.edges {
		if on && k[1] == channel {
			out = append(out, model.OwnerSummary{ID: k[0]})
		}
	}
	return out, nil
}

func (f *fakeSubs) Channels(_ context.Context, subscriber uuid.UUID) ([]model.OwnerSummary, error) {
	out := []model.OwnerSummary{}
	for k, on := range f.edges {
		if on && k[0] == subscriber {
			out = append(out, model.OwnerSummary{ID: k[1]})
		}
	}
	return out, nil
}

type fakeStats struct {
	stats model.ChannelStats
}

var _ repository.DashboardRepository = (*fakeStats)(nil)

func (f *fakeStats) ChannelStats(context.Context, uuid.UUID) (model.ChannelStats, error) {
	return f.stats, nil
}
