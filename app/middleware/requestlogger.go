package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onetake/mediaupload/app/pkg/utils"
	"github.com/onetake/mediaupload/bootstrap"
	"go.uber.org/zap"
)

/*
打印请求和响应数据
*/

// RequestLog .
type RequestLog struct {
	Logger *bootstrap.LangGoLogger
}

// NewRequestLog .
func NewRequestLog(logger *bootstrap.LangGoLogger) *RequestLog {
	return &RequestLog{
		Logger: logger,
	}
}

// Handler request response日志打印 接管gin的默认日志；分片请求体是二进制，只记长度
func (r *RequestLog) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		r.Logger.WithContext(c).Info("RequestInfo",
			zap.String("content-type", c.ContentType()),
			zap.String("Ip", c.ClientIP()),
			zap.String("Method", c.Request.Method),
			zap.String("URL", c.Request.URL.Path),
			zap.String("Query", c.Request.URL.RawQuery),
			zap.String("user-id", c.GetHeader(utils.HeaderUserID)),
			zap.Int64("content-length", c.Request.ContentLength),
		)

		c.Next()
		cost := time.Since(start)

		r.Logger.WithContext(c).Info("ResponseInfo",
			zap.String("Path", c.Request.URL.Path),
			zap.Int("Status", c.Writer.Status()),
			zap.Int("Size", c.Writer.Size()),
			zap.Duration("Cost", cost),
		)
	}
}
