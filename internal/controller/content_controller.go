package controller

import (
	"fmt"
	"net/http"
	"studynotes_backend/internal/service"
	"studynotes_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ContentController 测验、闪卡与 AI 笔记
type ContentController struct {
	ContentService *service.ContentService
}

func NewContentController(contentService *service.ContentService) *ContentController {
	return &ContentController{ContentService: contentService}
}

// GenerateNoteRequest swagger:model GenerateNoteRequest
type GenerateNoteRequest struct {
	FileIDs []uint `json:"fileIds" binding:"required,min=1"`
	Title   string `json:"title" binding:"max=255"`
}

// GetQuiz godoc
// @Summary 获取笔记的测验
// @Tags 测验
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "笔记ID"
// @Success 200 {object} util.Response{data=service.QuizResponse}
// @Failure 404 {object} util.Response
// @Router /api/notes/{id}/quiz [get]
func (c *ContentController) GetQuiz(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	quiz, err := c.ContentService.GetQuiz(id, currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// CreateQuiz godoc
// @Summary 由 AI 为笔记生成测验
// @Tags 测验
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "笔记ID"
// @Success 201 {object} util.Response{data=service.QuizResponse}
// @Failure 403 {object} util.Response "不是笔记作者"
// @Failure 409 {object} util.Response "测验已存在"
// @Failure 502 {object} util.Response "AI 返回无效内容"
// @Router /api/notes/{id}/quiz [post]
func (c *ContentController) CreateQuiz(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	quiz, err := c.ContentService.CreateQuiz(ctx.Request.Context(), id, currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// GetFlashcards godoc
// @Summary 获取笔记的闪卡
// @Tags 闪卡
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "笔记ID"
// @Success 200 {object} util.Response{data=service.DeckResponse}
// @Failure 404 {object} util.Response
// @Router /api/notes/{id}/flashcards [get]
func (c *ContentController) GetFlashcards(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	deck, err := c.ContentService.GetDeck(id, currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, deck)
}

// CreateFlashcards godoc
// @Summary 由 AI 为笔记生成闪卡
// @Tags 闪卡
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "笔记ID"
// @Success 201 {object} util.Response{data=service.DeckResponse}
// @Failure 403 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/notes/{id}/flashcards [post]
func (c *ContentController) CreateFlashcards(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	deck, err := c.ContentService.CreateDeck(ctx.Request.Context(), id, currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, deck)
}

// ExportFlashcards godoc
// @Summary 导出闪卡为 Excel
// @Tags 闪卡
// @Security ApiKeyAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "笔记ID"
// @Success 200 {file} binary
// @Router /api/notes/{id}/flashcards/export [get]
func (c *ContentController) ExportFlashcards(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	data, err := c.ContentService.ExportDeck(id, currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", util.ContentDisposition("attachment", fmt.Sprintf("flashcards-%d.xlsx", id)))
	ctx.Data(http.StatusOK, util.MimeXLSX, data)
}

// GenerateNote godoc
// @Summary 由图片的 OCR 文本生成笔记
// @Description 文件需属于当前用户且已回填 OCR 文本，生成的笔记为私有
// @Tags 笔记
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body GenerateNoteRequest true "文件与可选标题"
// @Success 201 {object} util.Response{data=service.NoteResponse}
// @Failure 400 {object} util.Response "文件没有 OCR 文本"
// @Router /api/notes/ai [post]
func (c *ContentController) GenerateNote(ctx *gin.Context) {
	var req GenerateNoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	note, err := c.ContentService.GenerateNote(ctx.Request.Context(), currentUserID(ctx), req.FileIDs, req.Title)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, note)
}
