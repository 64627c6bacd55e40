package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vidhub/internal/convert"
	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/media"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/service"
)

func (h *handler) register(c *gin.Context) {
	avatar, closeAvatar, err := formFile(c, "avatar")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	defer closeAvatar()
	cover, closeCover, err := formFile(c, "coverImage")
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	defer closeCover()

	in := service.RegisterInput{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		FullName: c.PostForm("fullName"),
		Password: c.PostForm("password"),
	}
	a, err := h.Auth.Register(c.Request.Context(), in, avatar, cover)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusCreated, convert.ToAccount(a), "user registered successfully")
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, h.Log, err)
		return
	}
	a, pair, err := h.Auth.Login(c.Request.Context(), service.LoginInput(req), c.ClientIP())
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	h.Cookies.Set(c, pair)
	respond(c, http.StatusOK, convert.ToLogin(a, pair), "user logged in successfully")
}

func (h *handler) logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), current(c).ID); err != nil {
		fail(c, h.Log, err)
		return
	}
	h.Cookies.Clear(c)
	respond(c, http.StatusOK, gin.H{}, "user logged out")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// refresh prefers the cookie over the body. Every failure is a 401.
func (h *handler) refresh(c *gin.Context) {
	tok, _ := c.Cookie(RefreshCookie)
	if tok == "" {
		var req refreshRequest
		if c.Request.ContentLength != 0 {
			_ = c.ShouldBindJSON(&req)
		}
		tok = req.RefreshToken
	}
	pair, err := h.Auth.Refresh(c.Request.Context(), tok)
	if err != nil {
		if statusOf(err) == http.StatusInternalServerError {
			fail(c, h.Log, err)
			return
		}
		msg, ok := errs.Message(err)
		if !ok {
			msg = "invalid refresh token"
		}
		abortWith(c, http.StatusUnauthorized, msg)
		return
	}
	h.Cookies.Set(c, pair)
	respond(c, http.StatusOK, convert.ToTokens(pair), "access token refreshed")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func (h *handler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, h.Log, err)
		return
	}
	if err := h.Auth.ChangePassword(c.Request.Context(), current(c).ID, req.OldPassword, req.NewPassword); err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "password changed successfully")
}

func (h *handler) currentUser(c *gin.Context) {
	respond(c, http.StatusOK, convert.ToAccount(current(c)), "current user fetched successfully")
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	FullName *string `json:"fullName"`
}

func (h *handler) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, h.Log, err)
		return
	}
	a, err := h.Users.UpdateProfile(c.Request.Context(), current(c).ID, model.ProfileUpdate(req))
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToAccount(a), "account details updated successfully")
}

func (h *handler) updateAvatar(c *gin.Context) {
	h.updateMedia(c, "avatar", h.Users.UpdateAvatar, "avatar updated successfully")
}

func (h *handler) updateCoverImage(c *gin.Context) {
	h.updateMedia(c, "coverImage", h.Users.UpdateCoverImage, "cover image updated successfully")
}

func (h *handler) updateMedia(c *gin.Context, field string, update func(context.Context, uuid.UUID, *media.File) (*model.Account, error), msg string) {
	f, closeFile, err := formFile(c, field)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	defer closeFile()
	a, err := update(c.Request.Context(), current(c).ID, f)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToAccount(a), msg)
}

func (h *handler) deleteUser(c *gin.Context) {
	if err := h.Users.Delete(c.Request.Context(), current(c).ID); err != nil {
		fail(c, h.Log, err)
		return
	}
	h.Cookies.Clear(c)
	respond(c, http.StatusOK, gin.H{}, "user deleted successfully")
}

func (h *handler) channelProfile(c *gin.Context) {
	p, err := h.Users.ChannelProfile(c.Request.Context(), c.Param("username"), current(c).ID)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToChannelProfile(p), "user channel fetched successfully")
}

func (h *handler) watchHistory(c *gin.Context) {
	vs, err := h.Users.WatchHistory(c.Request.Context(), current(c).ID)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	respond(c, http.StatusOK, convert.ToVideos(vs), "watch history fetched successfully")
}
