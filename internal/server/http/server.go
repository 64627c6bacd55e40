// Package httpserver exposes the vidhub REST API over gin.
package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/vidhub/internal/metrics"
	"github.com/and161185/vidhub/internal/service"
)

// Pinger reports storage readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps wires services into handlers.
type Deps struct {
	Auth          service.AuthService
	Users         service.UserService
	Videos        service.VideoService
	Comments      service.CommentService
	Likes         service.LikeService
	Subscriptions service.SubscriptionService
	Playlists     service.PlaylistService
	Dashboard     service.DashboardService

	Tokens  AccessVerifier
	Ready   Pinger
	Metrics *metrics.Registry
	Cookies CookiePolicy

	MaxUploadBytes int64
	Log            *zap.Logger
}

type handler struct {
	Deps
}

// NewRouter builds the gin engine with every route.
func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	h := &handler{Deps: d}

	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(Recovery(d.Log), Logging(d.Log))
	if d.Metrics != nil {
		r.Use(d.Metrics.GinMiddleware())
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	r.NoRoute(func(c *gin.Context) { abortWith(c, http.StatusNotFound, "route not found") })

	r.GET("/healthz", func(c *gin.Context) { respond(c, http.StatusOK, gin.H{"status": "ok"}, "alive") })
	r.GET("/readyz", h.ready)

	api := r.Group("/api/v1", BodyLimit(d.MaxUploadBytes))
	auth := Session(d.Tokens, d.Users, d.Log)

	users := api.Group("/users")
	{
		users.POST("/register", h.register)
		users.POST("/login", h.login)
		users.POST("/refresh-token", h.refresh)

		users.POST("/logout", auth, h.logout)
		users.POST("/change-password", auth, h.changePassword)
		users.GET("/current-user", auth, h.currentUser)
		users.PATCH("/update-user", auth, h.updateUser)
		users.PATCH("/update-user-avatar", auth, h.updateAvatar)
		users.PATCH("/update-user-coverImage", auth, h.updateCoverImage)
		users.DELETE("/delete-user", auth, h.deleteUser)
		users.GET("/channel-profile/:username", auth, h.channelProfile)
		users.GET("/watch-history", auth, h.watchHistory)
	}

	videos := api.Group("/videos", auth)
	{
		videos.GET("", h.listVideos)
		videos.POST("", h.publishVideo)
		videos.GET("/:videoId", h.getVideo)
		videos.PATCH("/:videoId", h.updateVideo)
		videos.DELETE("/:videoId", h.deleteVideo)
		videos.PATCH("/toggle/publish/:videoId", h.togglePublish)
	}

	comments := api.Group("/comments", auth)
	{
		comments.GET("/:videoId", h.listComments)
		comments.POST("/:videoId", h.addComment)
		comments.PATCH("/c/:commentId", h.updateComment)
		comments.DELETE("/c/:commentId", h.deleteComment)
	}

	likes := api.Group("/likes", auth)
	{
		likes.POST("/toggle/v/:videoId", h.toggleVideoLike)
		likes.POST("/toggle/c/:commentId", h.toggleCommentLike)
		likes.GET("/videos", h.likedVideos)
	}

	subs := api.Group("/subscriptions", auth)
	{
		subs.POST("/c/:channelId", h.toggleSubscription)
		subs.GET("/c/:channelId", h.channelSubscribers)
		subs.GET("/u/:subscriberId", h.subscribedChannels)
	}

	playlists := api.Group("/playlist", auth)
	{
		playlists.POST("", h.createPlaylist)
		playlists.GET("/user/:userId", h.userPlaylists)
		playlists.GET("/:playlistId", h.getPlaylist)
		playlists.PATCH("/:playlistId", h.updatePlaylist)
		playlists.DELETE("/:playlistId", h.deletePlaylist)
		playlists.PATCH("/add/:videoId/:playlistId", h.addToPlaylist)
		playlists.PATCH("/remove/:videoId/:playlistId", h.removeFromPlaylist)
	}

	dash := api.Group("/dashboard", auth)
	{
		dash.GET("/stats", h.channelStats)
		dash.GET("/videos", h.channelVideos)
	}

	return r
}

func (h *handler) ready(c *gin.Context) {
	if h.Ready != nil {
		if err := h.Ready.Ping(c.Request.Context()); err != nil {
			h.Log.Warn("readiness check failed", zap.Error(err))
			abortWith(c, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	respond(c, http.StatusOK, gin.H{"status": "ok"}, "ready")
}
