package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/vidhub/internal/auth"
	"github.com/and161185/vidhub/internal/config"
	pkgcrypto "github.com/and161185/vidhub/internal/crypto"
	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/limiter"
	"github.com/and161185/vidhub/internal/metrics"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/service"
)

var tokenCfg = auth.Config{
	AccessSecret:  []byte("access-secret"),
	RefreshSecret: []byte("refresh-secret"),
	AccessTTL:     time.Minute,
	RefreshTTL:    time.Hour,
	Issuer:        "vidhub-test",
}

type testServer struct {
	router *gin.Engine
	users  *memUsers
	tokens *auth.Service
	acct   *model.Account
	videos *stubVideos

	video     *model.Video
	comments  *memComments
	likes     *stubLikes
	playlists *stubPlaylists
	dashboard *stubDashboard
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := pkgcrypto.EncodePassword("pw1")
	require.NoError(t, err)
	acct := &model.Account{
		ID:           uuid.Must(uuid.NewV4()),
		Username:     "a",
		Email:        "a@example.com",
		FullName:     "A",
		PasswordHash: hash,
	}
	users := &memUsers{byID: map[uuid.UUID]*model.Account{acct.ID: acct}}
	tokens, err := auth.NewService(users, tokenCfg)
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	store := &memMedia{}
	videos := &stubVideos{}
	video := &model.Video{ID: uuid.Must(uuid.NewV4()), IsPublished: true}
	comments := &memComments{video: video.ID, byID: map[uuid.UUID]*model.Comment{}}
	likes := &stubLikes{liked: map[uuid.UUID]bool{}}
	playlists := &stubPlaylists{}
	dashboard := &stubDashboard{}
	r := NewRouter(Deps{
		Auth:          service.NewAuthService(users, tokens, limiter.Noop{}, store, nil, log),
		Users:         service.NewUserService(users, noVideos{}, store, log),
		Videos:        videos,
		Comments:      service.NewCommentService(comments, oneVideo{v: video}),
		Likes:         likes,
		Subscriptions: service.NewSubscriptionService(&memSubs{edges: map[[2]uuid.UUID]bool{}}),
		Playlists:     playlists,
		Dashboard:     dashboard,
		Tokens:        tokens,
		Metrics:       metrics.New(),
		Cookies:       NewCookiePolicy(config.CookieConfig{Secure: true, SameSite: "strict", Path: "/"}),
		Log:           log,
	})
	return &testServer{
		router: r, users: users, tokens: tokens, acct: acct, videos: videos,
		video: video, comments: comments, likes: likes, playlists: playlists, dashboard: dashboard,
	}
}

type apiBody struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

func (s *testServer) do(t *testing.T, method, path string, body any, opts ...func(*http.Request)) (*httptest.ResponseRecorder, apiBody) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out apiBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return w, out
}

func bearer(tok string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func withCookie(name, value string) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: value}) }
}

func cookieByName(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)

	// login
	w, body := s.do(t, http.MethodPost, "/api/v1/users/login", map[string]string{"username": "a", "password": "pw1"})
	require.Equal(t, http.StatusOK, w.Code, body.Message)
	require.True(t, body.Success)

	var login struct {
		User         map[string]any `json:"user"`
		AccessToken  string         `json:"accessToken"`
		RefreshToken string         `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &login))
	rt1 := login.RefreshToken
	require.NotEmpty(t, login.AccessToken)
	require.Equal(t, rt1, s.users.refreshOf(s.acct.ID))
	assert.NotContains(t, login.User, "passwordHash")
	assert.NotContains(t, login.User, "refreshToken")

	ac := cookieByName(w, AccessCookie)
	rc := cookieByName(w, RefreshCookie)
	require.NotNil(t, ac)
	require.NotNil(t, rc)
	assert.True(t, ac.HttpOnly && ac.Secure && rc.HttpOnly && rc.Secure)
	assert.Equal(t, http.SameSiteStrictMode, rc.SameSite)
	assert.Equal(t, rt1, rc.Value)

	// protected call with the access token, header or cookie
	w, body = s.do(t, http.MethodGet, "/api/v1/users/current-user", nil, bearer(login.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(body.Data), `"username":"a"`)
	w, _ = s.do(t, http.MethodGet, "/api/v1/users/current-user", nil, withCookie(AccessCookie, login.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)

	// refresh from cookie rotates
	w, body = s.do(t, http.MethodPost, "/api/v1/users/refresh-token", nil, withCookie(RefreshCookie, rt1))
	require.Equal(t, http.StatusOK, w.Code, body.Message)
	var pair struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &pair))
	rt2 := pair.RefreshToken
	require.NotEqual(t, rt1, rt2)
	require.Equal(t, rt2, s.users.refreshOf(s.acct.ID))
	require.Equal(t, rt2, cookieByName(w, RefreshCookie).Value)

	// reuse of RT1 from the body
	w, body = s.do(t, http.MethodPost, "/api/v1/users/refresh-token", map[string]string{"refreshToken": rt1})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.False(t, body.Success)
	require.Equal(t, rt2, s.users.refreshOf(s.acct.ID))

	// logout
	w, _ = s.do(t, http.MethodPost, "/api/v1/users/logout", nil, bearer(pair.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, s.users.refreshOf(s.acct.ID))
	require.Equal(t, -1, cookieByName(w, RefreshCookie).MaxAge)
	require.Equal(t, -1, cookieByName(w, AccessCookie).MaxAge)

	// RT2 no longer refreshes
	w, _ = s.do(t, http.MethodPost, "/api/v1/users/refresh-token", map[string]string{"refreshToken": rt2})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// access tokens stay valid until they expire
	w, _ = s.do(t, http.MethodGet, "/api/v1/users/current-user", nil, bearer(pair.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.acct.RefreshToken = "kept"

	w, body := s.do(t, http.MethodPost, "/api/v1/users/login", map[string]string{"email": "a@example.com", "password": "nope"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid user credentials", body.Message)
	require.NotNil(t, body.Errors)
	require.Empty(t, w.Result().Cookies())
	require.Equal(t, "kept", s.users.refreshOf(s.acct.ID))
}

func TestRefresh_MissingToken(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodPost, "/api/v1/users/refresh-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "unauthorized request", body.Message)
}

func TestSession_Rejects(t *testing.T) {
	s := newTestServer(t)

	past, err := auth.NewService(s.users, tokenCfg, auth.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }))
	require.NoError(t, err)
	expired, err := past.Issue(context.Background(), s.acct.ID)
	require.NoError(t, err)

	good, err := s.tokens.Issue(context.Background(), s.acct.ID)
	require.NoError(t, err)

	foreign := tokenCfg
	foreign.AccessSecret = []byte("someone-else")
	other, err := auth.NewService(s.users, foreign)
	require.NoError(t, err)
	forged, err := other.Issue(context.Background(), s.acct.ID)
	require.NoError(t, err)

	cases := map[string][]func(*http.Request){
		"no token":               nil,
		"garbage":                {bearer("not-a-jwt")},
		"expired":                {bearer(expired.AccessToken)},
		"wrong secret":           {bearer(forged.AccessToken)},
		"refresh used as access": {bearer(good.RefreshToken)},
	}
	for name, opts := range cases {
		w, body := s.do(t, http.MethodGet, "/api/v1/users/current-user", nil, opts...)
		require.Equal(t, http.StatusUnauthorized, w.Code, name)
		require.False(t, body.Success, name)
	}

	// a valid token for a deleted account
	require.NoError(t, s.users.Delete(context.Background(), s.acct.ID))
	w, _ := s.do(t, http.MethodGet, "/api/v1/users/current-user", nil, bearer(good.AccessToken))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t)
	pair, err := s.tokens.Issue(context.Background(), s.acct.ID)
	require.NoError(t, err)

	w, _ := s.do(t, http.MethodPost, "/api/v1/users/change-password", map[string]string{"oldPassword": "pw1"}, bearer(pair.AccessToken))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, body := s.do(t, http.MethodPost, "/api/v1/users/change-password",
		map[string]string{"oldPassword": "bad", "newPassword": "pw2"}, bearer(pair.AccessToken))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid old password", body.Message)

	w, _ = s.do(t, http.MethodPost, "/api/v1/users/change-password",
		map[string]string{"oldPassword": "pw1", "newPassword": "pw2"}, bearer(pair.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/users/login", map[string]string{"username": "a", "password": "pw2"})
	require.Equal(t, http.StatusOK, w.Code)
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, name := range files {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("data"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)
	fields := map[string]string{"username": "Bob", "email": "bob@example.com", "fullName": "Bob", "password": "pw"}

	post := func(files map[string]string) (*httptest.ResponseRecorder, apiBody) {
		buf, ct := multipartBody(t, fields, files)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", buf)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		var out apiBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return w, out
	}

	w, body := post(nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "avatar file is required", body.Message)

	w, body = post(map[string]string{"avatar": "me.png"})
	require.Equal(t, http.StatusCreated, w.Code, body.Message)
	assert.Contains(t, string(body.Data), `"username":"bob"`)
	assert.Contains(t, string(body.Data), `avatars/`)
	assert.NotContains(t, string(body.Data), "argon2")

	w, _ = post(map[string]string{"avatar": "me.png"})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestVideoRoutes_ErrorMapping(t *testing.T) {
	s := newTestServer(t)
	pair, err := s.tokens.Issue(context.Background(), s.acct.ID)
	require.NoError(t, err)
	authed := bearer(pair.AccessToken)

	w, body := s.do(t, http.MethodGet, "/api/v1/videos/not-a-uuid", nil, authed)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid videoId", body.Message)

	id := uuid.Must(uuid.NewV4())
	s.videos.err = errs.Forbidden("only the owner can modify this video")
	w, body = s.do(t, http.MethodPatch, "/api/v1/videos/toggle/publish/"+id.String(), nil, authed)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "only the owner can modify this video", body.Message)
	require.Equal(t, id, s.videos.gotID)

	s.videos.err = errs.ErrNotFound
	w, _ = s.do(t, http.MethodGet, "/api/v1/videos/"+id.String(), nil, authed)
	require.Equal(t, http.StatusNotFound, w.Code)

	s.videos.err = errs.ErrInternal
	w, body = s.do(t, http.MethodGet, "/api/v1/videos/"+id.String(), nil, authed)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "internal server error", body.Message)

	s.videos.err = nil
	owner := uuid.Must(uuid.NewV4())
	w, body = s.do(t, http.MethodGet, "/api/v1/videos?page=2&limit=5&query=cat&sortBy=views&sortType=asc&userId="+owner.String(), nil, authed)
	require.Equal(t, http.StatusOK, w.Code)
	q := s.videos.gotQ
	require.Equal(t, 2, q.Page)
	require.Equal(t, 5, q.Limit)
	require.Equal(t, "cat", q.Query)
	require.Equal(t, model.SortByViews, q.SortBy)
	require.True(t, q.Asc)
	require.NotNil(t, q.OwnerID)
	require.Equal(t, owner, *q.OwnerID)
	require.Equal(t, s.acct.ID, q.ViewerID)
	assert.Contains(t, string(body.Data), `"hasNextPage":false`)

	w, _ = s.do(t, http.MethodGet, "/api/v1/videos?userId=junk", nil, authed)
	require.Equal(t, http.StatusOK, w.Code)
	require.Nil(t, s.videos.gotQ.OwnerID)

	w, _ = s.do(t, http.MethodPatch, "/api/v1/videos/"+id.String(), map[string]string{"title": "new"}, authed)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, s.videos.gotUpd.Title)
	require.Equal(t, "new", *s.videos.gotUpd.Title)
	require.Nil(t, s.videos.gotFile)
}

func TestVideoRoutes_Boundaries(t *testing.T) {
	s := newTestServer(t)
	pair, err := s.tokens.Issue(context.Background(), s.acct.ID)
	require.NoError(t, err)
	authed := bearer(pair.AccessToken)
	store := &pagedVideos{}
	s.videos.VideoService = service.NewVideoService(store, &memMedia{}, zaptest.NewLogger(t))

	w, body := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/videos?page=%d&limit=10", math.MaxInt), nil, authed)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, service.MaxPage, store.gotQ.Page)
	require.GreaterOrEqual(t, (store.gotQ.Page-1)*store.gotQ.Limit, 0)
	assert.Contains(t, string(body.Data), fmt.Sprintf(`"page":%d`, service.MaxPage))

	for _, d := range []string{"Inf", "-Inf", "NaN", "+Inf", "1e400", "86401"} {
		buf, ct := multipartBody(t,
			map[string]string{"title": "t", "description": "d", "duration": d},
			map[string]string{"videoFile": "v.mp4", "thumbnail": "t.png"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", buf)
		req.Header.Set("Content-Type", ct)
		authed(req)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, "duration=%s: %s", d, rec.Body.String())
	}
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, body := s.do(t, http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "route not found", body.Message)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "vidhub_http_requests_total"))

	r := NewRouter(Deps{Ready: failingPinger{}, Log: zaptest.NewLogger(t)})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(zaptest.NewLogger(t)))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), `"success":false`)
}

func TestStatusOf(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		want int
	}{
		{errs.Validation("x"), http.StatusBadRequest},
		{errs.InvalidCredentials("x"), http.StatusBadRequest},
		{errs.Unauthorized("x"), http.StatusUnauthorized},
		{errs.Forbidden("x"), http.StatusForbidden},
		{errs.NotFound("x"), http.StatusNotFound},
		{errs.Conflict("x"), http.StatusConflict},
		{errs.ErrRateLimited, http.StatusTooManyRequests},
		{errs.ErrInternal, http.StatusInternalServerError},
		// internal wins over a wrapped sentinel
		{fmt.Errorf("%w: load: %w", errs.ErrInternal, errs.ErrNotFound), http.StatusInternalServerError},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

func TestCookiePolicy(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewCookiePolicy(config.CookieConfig{SameSite: "none", Secure: true, Domain: "example.com"})
	p.now = func() time.Time { return now }

	ck := p.cookie(AccessCookie, "tok", now.Add(15*time.Minute))
	assert.Equal(t, 900, ck.MaxAge)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, http.SameSiteNoneMode, ck.SameSite)
	assert.True(t, ck.HttpOnly)

	gone := p.cookie(RefreshCookie, "", time.Time{})
	assert.Equal(t, -1, gone.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, NewCookiePolicy(config.CookieConfig{SameSite: "lax"}).SameSite)
}
