package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/onetake/mediaupload/app/pkg/utils"
	"github.com/onetake/mediaupload/app/pkg/web"
	"github.com/onetake/mediaupload/bootstrap"
	"go.uber.org/zap"
)

/*
身份由上游网关注入 user-id 头，这里只做存在性校验
*/

const userIdKey = "userId"

// Auth .
type Auth struct {
	Logger *bootstrap.LangGoLogger
}

// NewAuth .
func NewAuth(logger *bootstrap.LangGoLogger) *Auth {
	return &Auth{Logger: logger}
}

// Handler 缺少身份时直接 401
func (a *Auth) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetHeader(utils.HeaderUserID)
		if userId == "" {
			web.UnAuthorization(c, "缺少用户身份")
			return
		}
		c.Set(userIdKey, userId)
		a.Logger.NewContext(c, zap.String("userId", userId))
		c.Next()
	}
}

// UserId 当前请求的调用方
func UserId(c *gin.Context) string {
	return c.GetString(userIdKey)
}
