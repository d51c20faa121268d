package controller

import (
	"studynotes_backend/internal/service"
	"studynotes_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FeedController struct {
	Hub *service.FeedHub
}

func NewFeedController(hub *service.FeedHub) *FeedController {
	return &FeedController{Hub: hub}
}

// Version godoc
// @Summary 当前动态流版本
// @Description 版本变化时客户端应重新拉取 /api/feed
// @Tags 动态
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} util.Response{data=service.FeedVersion}
// @Router /api/feed/version [get]
func (c *FeedController) Version(ctx *gin.Context) {
	util.Success(ctx, c.Hub.Version())
}

// Subscribe godoc
// @Summary 订阅动态流版本推送
// @Description WebSocket，消息格式 {"type":"FEED_VERSION","data":{"version":n}}，令牌可通过 ?token= 传递
// @Tags 动态
// @Security ApiKeyAuth
// @Router /api/feed/ws [get]
func (c *FeedController) Subscribe(ctx *gin.Context) {
	c.Hub.ServeWS(ctx.Writer, ctx.Request, currentUserID(ctx))
}
