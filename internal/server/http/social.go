package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vidhub/internal/convert"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/service"
)

// --- comments ---

type commentRequest struct {
	Content string `json:"content"`
}

func (h *handler) listComments(c *gin.Context) {
	videoID, err := idParam(c, "videoId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	page, err := h.Comments.List(c.Request.Context(), videoID, intQuery(c, "page"), intQuery(c, "limit"))
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToPage(page, convert.ToComment), "comments fetched successfully")
}

func (h *handler) addComment(c *gin.Context) {
	videoID, err := idParam(c, "videoId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, h.Log, err)
		return
	}
	cm, err := h.Comments.Add(c.Request.Context(), videoID, current(c).ID, req.Content)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusCreated, convert.ToComment(*cm), "comment added successfully")
}

func (h *handler) updateComment(c *gin.Context) {
	id, err := idParam(c, "commentId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, h.Log, err)
		return
	}
	cm, err := h.Comments.Update(c.Request.Context(), id, current(c).ID, req.Content)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToComment(*cm), "comment updated successfully")
}

func (h *handler) deleteComment(c *gin.Context) {
	id, err := idParam(c, "commentId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	if err := h.Comments.Delete(c.Request.Context(), id, current(c).ID); err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "comment deleted successfully")
}

// --- likes ---

func likeMessage(liked bool) string {
	if liked {
		return "liked successfully"
	}
	return "unliked successfully"
}

func (h *handler) toggleVideoLike(c *gin.Context) {
	id, err := idParam(c, "videoId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	liked, err := h.Likes.ToggleVideo(c.Request.Context(), current(c).ID, id)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"liked": liked}, likeMessage(liked))
}

func (h *handler) toggleCommentLike(c *gin.Context) {
	id, err := idParam(c, "commentId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	liked, err := h.Likes.ToggleComment(c.Request.Context(), current(c).ID, id)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"liked": liked}, likeMessage(liked))
}

func (h *handler) likedVideos(c *gin.Context) {
	vs, err := h.Likes.LikedVideos(c.Request.Context(), current(c).ID)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToVideos(vs), "liked videos fetched successfully")
}

// --- subscriptions ---

func (h *handler) toggleSubscription(c *gin.Context) {
	channel, err := idParam(c, "channelId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	on, err := h.Subscriptions.Toggle(c.Request.Context(), current(c).ID, channel)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	msg := "unsubscribed successfully"
	if on {
		msg = "subscribed successfully"
	}
	respond(c, http.StatusOK, gin.H{"subscribed": on}, msg)
}

func (h *handler) channelSubscribers(c *gin.Context) {
	channel, err := idParam(c, "channelId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	subs, err := h.Subscriptions.Subscribers(c.Request.Context(), channel)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToOwners(subs), "subscribers fetched successfully")
}

func (h *handler) subscribedChannels(c *gin.Context) {
	subscriber, err := idParam(c, "subscriberId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	chans, err := h.Subscriptions.Channels(c.Request.Context(), subscriber)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToOwners(chans), "subscribed channels fetched successfully")
}

// --- playlists ---

func (h *handler) createPlaylist(c *gin.Context) {
	var in service.PlaylistInput
	if err := bindJSON(c, &in); err != nil {
		fail(c, h.Log, err)
		return
	}
	p, err := h.Playlists.Create(c.Request.Context(), current(c).ID, in)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusCreated, convert.ToPlaylist(*p), "playlist created successfully")
}

func (h *handler) userPlaylists(c *gin.Context) {
	owner, err := idParam(c, "userId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	ps, err := h.Playlists.ListByUser(c.Request.Context(), owner)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToPlaylists(ps), "user playlists fetched successfully")
}

func (h *handler) getPlaylist(c *gin.Context) {
	id, err := idParam(c, "playlistId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	p, err := h.Playlists.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToPlaylist(*p), "playlist fetched successfully")
}

func (h *handler) updatePlaylist(c *gin.Context) {
	id, err := idParam(c, "playlistId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	var in service.PlaylistInput
	if err := bindJSON(c, &in); err != nil {
		fail(c, h.Log, err)
		return
	}
	p, err := h.Playlists.Update(c.Request.Context(), id, current(c).ID, in)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToPlaylist(*p), "playlist updated successfully")
}

func (h *handler) deletePlaylist(c *gin.Context) {
	id, err := idParam(c, "playlistId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	if err := h.Playlists.Delete(c.Request.Context(), id, current(c).ID); err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "playlist deleted successfully")
}

func (h *handler) addToPlaylist(c *gin.Context) {
	h.editPlaylist(c, h.Playlists.AddVideo, "video added to playlist")
}

func (h *handler) removeFromPlaylist(c *gin.Context) {
	h.editPlaylist(c, h.Playlists.RemoveVideo, "video removed from playlist")
}

func (h *handler) editPlaylist(c *gin.Context, edit func(ctx context.Context, playlistID, videoID, caller uuid.UUID) (*model.Playlist, error), msg string) {
	videoID, err := idParam(c, "videoId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	playlistID, err := idParam(c, "playlistId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	p, err := edit(c.Request.Context(), playlistID, videoID, current(c).ID)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToPlaylist(*p), msg)
}

// --- dashboard ---

func (h *handler) channelStats(c *gin.Context) {
	st, err := h.Dashboard.Stats(c.Request.Context(), current(c).ID)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToChannelStats(st), "channel stats fetched successfully")
}

func (h *handler) channelVideos(c *gin.Context) {
	vs, err := h.Dashboard.Videos(c.Request.Context(), current(c).ID)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToVideos(vs), "channel videos fetched successfully")
}
