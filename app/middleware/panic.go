package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/onetake/mediaupload/app/pkg/web"
	"github.com/onetake/mediaupload/bootstrap"
	"go.uber.org/zap"
)

// PanicRecover .
type PanicRecover struct {
	Logger *bootstrap.LangGoLogger
}

// NewPanicRecover _
func NewPanicRecover(logger *bootstrap.LangGoLogger) *PanicRecover {
	return &PanicRecover{
		Logger: logger,
	}
}

// Handler _
func (p *PanicRecover) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				p.Logger.WithContext(c).Error("recovered from panic",
					zap.String("panic", fmt.Sprintf("%v", err)),
					zap.String("stack", string(debug.Stack())))
				c.AbortWithStatusJSON(http.StatusInternalServerError, web.Response{
					Code:    http.StatusInternalServerError,
					Message: "服务内部错误",
					Data:    "",
				})
			}
		}()

		c.Next()
	}
}
