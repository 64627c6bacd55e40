package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vidhub/internal/convert"
	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/media"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/service"
)

func (h *handler) listVideos(c *gin.Context) {
	q := model.VideoQuery{
		Page:     intQuery(c, "page"),
		Limit:    intQuery(c, "limit"),
		Query:    c.Query("query"),
		SortBy:   c.Query("sortBy"),
		Asc:      strings.EqualFold(c.Query("sortType"), "asc"),
		ViewerID: current(c).ID,
	}
	// an unparsable userId is ignored rather than rejected
	if id, err := uuid.FromString(c.Query("userId")); err == nil && id != uuid.Nil {
		q.OwnerID = &id
	}
	page, err := h.Videos.List(c.Request.Context(), q)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToPage(page, convert.ToVideo), "videos fetched successfully")
}

func (h *handler) publishVideo(c *gin.Context) {
	video, closeVideo, err := formFile(c, "videoFile")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	defer closeVideo()
	thumb, closeThumb, err := formFile(c, "thumbnail")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	defer closeThumb()

	in := service.PublishInput{Title: c.PostForm("title"), Description: c.PostForm("description")}
	if d := strings.TrimSpace(c.PostForm("duration")); d != "" {
		in.Duration, err = strconv.ParseFloat(d, 64)
		if err != nil {
			fail(c, h.Log, errs.Validation("duration must be a number of seconds"))
			return
		}
	}
	v, err := h.Videos.Publish(c.Request.Context(), current(c).ID, in, video, thumb)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusCreated, convert.ToVideo(*v), "video uploaded successfully")
}

func (h *handler) getVideo(c *gin.Context) {
	id, err := idParam(c, "videoId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	v, err := h.Videos.Get(c.Request.Context(), id, current(c).ID)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToVideo(*v), "video fetched successfully")
}

type videoUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (h *handler) updateVideo(c *gin.Context) {
	id, err := idParam(c, "videoId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	// the thumbnail is optional and only read from multipart bodies
	var thumb *media.File
	if isMultipart(c) {
		var closeThumb func()
		thumb, closeThumb, err = formFile(c, "thumbnail")
		if err != nil {
			fail(c, h.Log, err)
			return
		}
		defer closeThumb()
	}

	upd := model.VideoUpdate{Title: optionalForm(c, "title"), Description: optionalForm(c, "description")}
	if c.ContentType() == gin.MIMEJSON {
		var req videoUpdateRequest
		if err := bindJSON(c, &req); err != nil {
			fail(c, h.Log, err)
			return
		}
		upd = model.VideoUpdate{Title: req.Title, Description: req.Description}
	}
	v, err := h.Videos.Update(c.Request.Context(), id, current(c).ID, upd, thumb)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToVideo(*v), "video updated successfully")
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

func (h *handler) deleteVideo(c *gin.Context) {
	id, err := idParam(c, "videoId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	if err := h.Videos.Delete(c.Request.Context(), id, current(c).ID); err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "video deleted successfully")
}

func (h *handler) togglePublish(c *gin.Context) {
	id, err := idParam(c, "videoId")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	on, err := h.Videos.TogglePublish(c.Request.Context(), id, current(c).ID)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"isPublished": on}, "publish status toggled successfully")
}
