package controller

import (
	"errors"
	"io"
	"net/http"
	"studynotes_backend/internal/service"
	"studynotes_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
	NoteService *service.NoteService
}

func NewUserController(userService *service.UserService, noteService *service.NoteService) *UserController {
	return &UserController{
		UserService: userService,
		NoteService: noteService,
	}
}

// Me godoc
// @Summary 获取当前用户
// @Tags 用户
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} util.Response{data=service.UserResponse}
// @Router /api/user [get]
func (c *UserController) Me(ctx *gin.Context) {
	user, err := c.UserService.Me(currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// GetUser godoc
// @Summary 获取用户公开资料
// @Tags 用户
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} util.Response{data=service.UserResponse}
// @Failure 404 {object} util.Response
// @Router /api/user/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	user, err := c.UserService.Profile(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// GetUserNotes godoc
// @Summary 获取用户的公开笔记
// @Tags 用户
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} util.Response{data=[]service.NoteResponse}
// @Router /api/user/{id}/notes [get]
func (c *UserController) GetUserNotes(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if _, err := c.UserService.Profile(id); err != nil {
		respondError(ctx, err)
		return
	}
	notes, err := c.NoteService.ListPublicByUser(id, currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, notes)
}

// GetAvatar godoc
// @Summary 获取用户头像
// @Tags 用户
// @Security ApiKeyAuth
// @Produce image/png,image/jpeg,image/webp,image/gif
// @Param id path int true "用户ID"
// @Success 200 {file} binary
// @Failure 404 {object} util.Response
// @Router /api/user/{id}/avatar [get]
func (c *UserController) GetAvatar(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	body, err := c.UserService.Avatar(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, util.MaxAvatarBytes+1))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	ctx.Header("Cache-Control", "private, max-age=60")
	ctx.Data(http.StatusOK, http.DetectContentType(data), data)
}

// PutAvatar godoc
// @Summary 上传头像
// @Description 请求体为原始图片数据，最大 2MiB，只能修改自己的头像
// @Tags 用户
// @Security ApiKeyAuth
// @Accept image/png,image/jpeg,image/webp,image/gif
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "不是图片"
// @Failure 403 {object} util.Response "不能修改他人头像"
// @Failure 413 {object} util.Response "文件过大"
// @Router /api/user/{id}/avatar [put]
func (c *UserController) PutAvatar(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, util.MaxAvatarBytes)
	data, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(ctx, util.ErrFileTooLarge)
			return
		}
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.UserService.SetAvatar(ctx.Request.Context(), id, currentUserID(ctx), data); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"hasProfilePicture": true})
}
