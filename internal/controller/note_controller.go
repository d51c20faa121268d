package controller

import (
	"studynotes_backend/internal/service"
	"studynotes_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type NoteController struct {
	NoteService *service.NoteService
}

func NewNoteController(noteService *service.NoteService) *NoteController {
	return &NoteController{NoteService: noteService}
}

// CreateNoteRequest swagger:model CreateNoteRequest
type CreateNoteRequest struct {
	Title   string `json:"title" binding:"required,max=255"`
	Content string `json:"content"`
	Public  bool   `json:"public"`
	FileIDs []uint `json:"fileIds"`
}

// UpdateNoteRequest 未提供的字段保持不变
// swagger:model UpdateNoteRequest
type UpdateNoteRequest struct {
	Title   *string `json:"title" binding:"omitempty,min=1,max=255"`
	Content *string `json:"content"`
	Public  *bool   `json:"public"`
}

// VoteRequest swagger:model VoteRequest
type VoteRequest struct {
	Value *int `json:"value" binding:"required,min=-1,max=1"`
}

// AttachFilesRequest swagger:model AttachFilesRequest
type AttachFilesRequest struct {
	FileIDs []uint `json:"fileIds" binding:"required,min=1"`
}

// CreateNote godoc
// @Summary 创建笔记
// @Tags 笔记
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body CreateNoteRequest true "笔记内容"
// @Success 201 {object} util.Response{data=service.NoteResponse}
// @Router /api/notes [post]
func (c *NoteController) CreateNote(ctx *gin.Context) {
	var req CreateNoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	note, err := c.NoteService.Create(ctx.Request.Context(), currentUserID(ctx), service.CreateNoteInput{
		Title:   req.Title,
		Content: req.Content,
		Public:  req.Public,
		FileIDs: req.FileIDs,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, note)
}

// ListNotes godoc
// @Summary 我的笔记
// @Tags 笔记
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} util.Response{data=[]service.NoteResponse}
// @Router /api/notes [get]
func (c *NoteController) ListNotes(ctx *gin.Context) {
	notes, err := c.NoteService.ListOwn(currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, notes)
}

// ListBookmarked godoc
// @Summary 我收藏的笔记
// @Tags 笔记
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} util.Response{data=[]service.NoteResponse}
// @Router /api/notes/bookmark [get]
func (c *NoteController) ListBookmarked(ctx *gin.Context) {
	notes, err := c.NoteService.ListBookmarked(currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, notes)
}

// GetNote godoc
// @Summary 获取笔记
// @Description 非公开笔记只对作者可见
// @Tags 笔记
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "笔记ID"
// @Success 200 {object} util.Response{data=service.NoteResponse}
// @Failure 404 {object} util.Response
// @Router /api/notes/{id} [get]
func (c *NoteController) GetNote(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	note, err := c.NoteService.Get(id, currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, note)
}

// UpdateNote godoc
// @Summary 修改笔记
// @Tags 笔记
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path int true "笔记ID"
// @Param body body UpdateNoteRequest true "修改内容"
// @Success 200 {object} util.Response{data=service.NoteResponse}
// @Failure 403 {object} util.Response
// @Router /api/notes/{id} [patch]
func (c *NoteController) UpdateNote(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req UpdateNoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	note, err := c.NoteService.Update(id, currentUserID(ctx), service.UpdateNoteInput{
		Title:   req.Title,
		Content: req.Content,
		Public:  req.Public,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, note)
}

// DeleteNote godoc
// @Summary 删除笔记
// @Tags 笔记
// @Security ApiKeyAuth
// @Param id path int true "笔记ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/notes/{id} [delete]
func (c *NoteController) DeleteNote(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.NoteService.Delete(id, currentUserID(ctx)); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// Vote godoc
// @Summary 投票
// @Description value 取 1、-1 或 0（撤销）
// @Tags 笔记
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path int true "笔记ID"
// @Param body body VoteRequest true "投票"
// @Success 200 {object} util.Response{data=service.NoteResponse}
// @Router /api/notes/{id}/vote [post]
func (c *NoteController) Vote(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req VoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	note, err := c.NoteService.Vote(id, currentUserID(ctx), *req.Value)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, note)
}

// ToggleBookmark godoc
// @Summary 收藏或取消收藏
// @Tags 笔记
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "笔记ID"
// @Success 200 {object} util.Response{data=object}
// @Router /api/notes/{id}/bookmark [post]
func (c *NoteController) ToggleBookmark(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	bookmarked, err := c.NoteService.ToggleBookmark(id, currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"bookmarked": bookmarked})
}

// AttachFiles godoc
// @Summary 为笔记关联文件
// @Tags 笔记
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path int true "笔记ID"
// @Param body body AttachFilesRequest true "文件ID列表"
// @Success 200 {object} util.Response{data=service.NoteResponse}
// @Router /api/notes/{id}/files [post]
func (c *NoteController) AttachFiles(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req AttachFilesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	note, err := c.NoteService.AttachFiles(id, currentUserID(ctx), req.FileIDs)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, note)
}

// Feed godoc
// @Summary 公开笔记流
// @Tags 动态
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} util.Response{data=[]service.NoteResponse}
// @Router /api/feed [get]
func (c *NoteController) Feed(ctx *gin.Context) {
	notes, err := c.NoteService.ListFeed(currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, notes)
}
