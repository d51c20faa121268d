package controller

import (
	"studynotes_backend/internal/service"
	"studynotes_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PracticeController struct {
	PracticeService *service.PracticeService
}

func NewPracticeController(practiceService *service.PracticeService) *PracticeController {
	return &PracticeController{PracticeService: practiceService}
}

// StartPracticeRequest swagger:model StartPracticeRequest
type StartPracticeRequest struct {
	NoteID uint `json:"noteId" binding:"required"`
}

// AnswerRequest swagger:model AnswerRequest
type AnswerRequest struct {
	Index *int `json:"index" binding:"required"`
}

// StartQuiz godoc
// @Summary 开始答题练习
// @Tags 练习
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body StartPracticeRequest true "笔记ID"
// @Success 201 {object} util.Response{data=service.QuizPracticeResponse}
// @Failure 404 {object} util.Response "笔记或测验不存在"
// @Router /api/practice/quiz [post]
func (c *PracticeController) StartQuiz(ctx *gin.Context) {
	var req StartPracticeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	resp, err := c.PracticeService.StartQuiz(ctx.Request.Context(), currentUserID(ctx), req.NoteID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, resp)
}

// GetQuiz godoc
// @Summary 获取答题练习状态
// @Tags 练习
// @Security ApiKeyAuth
// @Produce json
// @Param sid path string true "会话ID"
// @Success 200 {object} util.Response{data=service.QuizPracticeResponse}
// @Failure 404 {object} util.Response
// @Router /api/practice/quiz/{sid} [get]
func (c *PracticeController) GetQuiz(ctx *gin.Context) {
	resp, err := c.PracticeService.GetQuiz(ctx.Request.Context(), currentUserID(ctx), ctx.Param("sid"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// AnswerQuiz godoc
// @Summary 作答当前题目
// @Description 每题只能作答一次，已作答或已完成时返回 409，下标越界返回 400
// @Tags 练习
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param sid path string true "会话ID"
// @Param body body AnswerRequest true "选项下标"
// @Success 200 {object} util.Response{data=service.QuizPracticeResponse}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/practice/quiz/{sid}/answer [post]
func (c *PracticeController) AnswerQuiz(ctx *gin.Context) {
	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	resp, err := c.PracticeService.AnswerQuiz(ctx.Request.Context(), currentUserID(ctx), ctx.Param("sid"), *req.Index)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// AdvanceQuiz godoc
// @Summary 进入下一题
// @Description 当前题未作答时返回 409，最后一题之后进入完成状态
// @Tags 练习
// @Security ApiKeyAuth
// @Produce json
// @Param sid path string true "会话ID"
// @Success 200 {object} util.Response{data=service.QuizPracticeResponse}
// @Failure 409 {object} util.Response
// @Router /api/practice/quiz/{sid}/advance [post]
func (c *PracticeController) AdvanceQuiz(ctx *gin.Context) {
	resp, err := c.PracticeService.AdvanceQuiz(ctx.Request.Context(), currentUserID(ctx), ctx.Param("sid"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// RestartQuiz godoc
// @Summary 重新开始答题
// @Tags 练习
// @Security ApiKeyAuth
// @Produce json
// @Param sid path string true "会话ID"
// @Success 200 {object} util.Response{data=service.QuizPracticeResponse}
// @Router /api/practice/quiz/{sid}/restart [post]
func (c *PracticeController) RestartQuiz(ctx *gin.Context) {
	resp, err := c.PracticeService.RestartQuiz(ctx.Request.Context(), currentUserID(ctx), ctx.Param("sid"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// StartFlashcards godoc
// @Summary 开始闪卡练习
// @Tags 练习
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body StartPracticeRequest true "笔记ID"
// @Success 201 {object} util.Response{data=service.FlashcardPracticeResponse}
// @Router /api/practice/flashcards [post]
func (c *PracticeController) StartFlashcards(ctx *gin.Context) {
	var req StartPracticeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	resp, err := c.PracticeService.StartFlashcards(ctx.Request.Context(), currentUserID(ctx), req.NoteID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, resp)
}

// GetFlashcards godoc
// @Summary 获取闪卡练习状态
// @Tags 练习
// @Security ApiKeyAuth
// @Produce json
// @Param sid path string true "会话ID"
// @Success 200 {object} util.Response{data=service.FlashcardPracticeResponse}
// @Router /api/practice/flashcards/{sid} [get]
func (c *PracticeController) GetFlashcards(ctx *gin.Context) {
	resp, err := c.PracticeService.GetFlashcards(ctx.Request.Context(), currentUserID(ctx), ctx.Param("sid"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// EndQuiz godoc
// @Summary 结束答题练习
// @Tags 练习
// @Security ApiKeyAuth
// @Produce json
// @Param sid path string true "会话ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/practice/quiz/{sid} [delete]
func (c *PracticeController) EndQuiz(ctx *gin.Context) {
	c.end(ctx, service.PracticeQuiz)
}

// EndFlashcards godoc
// @Summary 结束闪卡练习
// @Tags 练习
// @Security ApiKeyAuth
// @Produce json
// @Param sid path string true "会话ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/practice/flashcards/{sid} [delete]
func (c *PracticeController) EndFlashcards(ctx *gin.Context) {
	c.end(ctx, service.PracticeFlashcards)
}

func (c *PracticeController) end(ctx *gin.Context, kind service.PracticeKind) {
	if err := c.PracticeService.End(ctx.Request.Context(), currentUserID(ctx), ctx.Param("sid"), kind); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

func (c *PracticeController) stepFlashcards(ctx *gin.Context, action string) {
	resp, err := c.PracticeService.StepFlashcards(ctx.Request.Context(), currentUserID(ctx), ctx.Param("sid"), action)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// NextFlashcard godoc
// @Summary 下一张闪卡
// @Tags 练习
// @Security ApiKeyAuth
// @Param sid path string true "会话ID"
// @Success 200 {object} util.Response{data=service.FlashcardPracticeResponse}
// @Router /api/practice/flashcards/{sid}/next [post]
func (c *PracticeController) NextFlashcard(ctx *gin.Context) {
	c.stepFlashcards(ctx, service.FlashcardNext)
}

// PrevFlashcard godoc
// @Summary 上一张闪卡
// @Tags 练习
// @Security ApiKeyAuth
// @Param sid path string true "会话ID"
// @Success 200 {object} util.Response{data=service.FlashcardPracticeResponse}
// @Router /api/practice/flashcards/{sid}/prev [post]
func (c *PracticeController) PrevFlashcard(ctx *gin.Context) {
	c.stepFlashcards(ctx, service.FlashcardPrev)
}

// RandomFlashcard godoc
// @Summary 随机一张闪卡
// @Tags 练习
// @Security ApiKeyAuth
// @Param sid path string true "会话ID"
// @Success 200 {object} util.Response{data=service.FlashcardPracticeResponse}
// @Router /api/practice/flashcards/{sid}/random [post]
func (c *PracticeController) RandomFlashcard(ctx *gin.Context) {
	c.stepFlashcards(ctx, service.FlashcardRandom)
}

// FlipFlashcard godoc
// @Summary 翻转当前闪卡
// @Tags 练习
// @Security ApiKeyAuth
// @Param sid path string true "会话ID"
// @Success 200 {object} util.Response{data=service.FlashcardPracticeResponse}
// @Router /api/practice/flashcards/{sid}/flip [post]
func (c *PracticeController) FlipFlashcard(ctx *gin.Context) {
	c.stepFlashcards(ctx, service.FlashcardFlip)
}
