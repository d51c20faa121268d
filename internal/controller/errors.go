package controller

import (
	"errors"
	"net/http"
	"studynotes_backend/internal/service"
	"studynotes_backend/internal/session"
	"studynotes_backend/internal/util"

	"github.com/gin-gonic/gin"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{util.ErrUserNotFound, http.StatusNotFound},
	{util.ErrNoteNotFound, http.StatusNotFound},
	{util.ErrFileNotFound, http.StatusNotFound},
	{util.ErrQuizNotFound, http.StatusNotFound},
	{util.ErrDeckNotFound, http.StatusNotFound},
	{util.ErrSessionNotFound, http.StatusNotFound},
	{service.ErrObjectNotFound, http.StatusNotFound},

	{util.ErrUsernameTaken, http.StatusConflict},
	{util.ErrEmailRegistered, http.StatusConflict},
	{util.ErrQuizExists, http.StatusConflict},
	{util.ErrDeckExists, http.StatusConflict},
	{session.ErrInvalidState, http.StatusConflict},
	{session.ErrNoQuestions, http.StatusConflict},

	{util.ErrInvalidCredentials, http.StatusUnauthorized},
	{util.ErrInvalidToken, http.StatusUnauthorized},
	{util.ErrPermissionDenied, http.StatusForbidden},

	{util.ErrInvalidFileType, http.StatusBadRequest},
	{util.ErrInvalidVote, http.StatusBadRequest},
	{util.ErrNoOCRText, http.StatusBadRequest},
	{session.ErrAnswerOutOfRange, http.StatusBadRequest},
	{util.ErrFileTooLarge, http.StatusRequestEntityTooLarge},

	{util.ErrAIUnavailable, http.StatusServiceUnavailable},
	{util.ErrAIResponse, http.StatusBadGateway},
}

// respondError 已知错误映射为对应状态码，其余记录日志并返回 500
func respondError(ctx *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			util.Error(ctx, e.status, err.Error())
			return
		}
	}
	util.LogInternalError(ctx, err)
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, ok := util.ParseID(ctx.Param(name))
	if !ok {
		util.BadRequest(ctx, "invalid "+name)
	}
	return id, ok
}

func currentUserID(ctx *gin.Context) uint {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return 0
	}
	return claims.UserID
}
