package middleware

import (
	"errors"
	"strings"
	"studynotes_backend/internal/util"
	"studynotes_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const TokenContextKey = "token"

// Authenticator 校验原始令牌
type Authenticator interface {
	Authenticate(token string) (*util.Claims, error)
}

// TokenFromRequest 支持 "Bearer <token>" 与裸令牌
func TokenFromRequest(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, auth, TokenFromRequest(c))
	}
}

// WSAuthMiddleware 仅用于 websocket 握手，浏览器无法设置请求头时可用 ?token=
func WSAuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			token = c.Query("token")
		}
		authenticate(c, auth, token)
	}
}

func authenticate(c *gin.Context, auth Authenticator, tokenString string) {
	if tokenString == "" {
		util.Unauthorized(c)
		c.Abort()
		return
	}

	claims, err := auth.Authenticate(tokenString)
	if err != nil {
		if !errors.Is(err, util.ErrInvalidToken) {
			logger.Log.Error("Token verification failed", zap.Error(err))
		}
		util.Unauthorized(c)
		c.Abort()
		return
	}

	c.Set("user", claims)
	c.Set(TokenContextKey, tokenString)
	c.Next()
}
