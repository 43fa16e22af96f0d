package v0

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/onetake/mediaupload/app/pkg/web"
	"gorm.io/gorm"
)

// PingHandler 测试
//
//	@Summary      测试接口
//	@Description  测试接口
//	@Tags         检查
//	@Accept       application/json
//	@Produce      application/json
//	@Success      200  {object}  web.Response
//	@Router       /api/ping [get]
func PingHandler(c *gin.Context) {
	web.Success(c, "pong")
}

// HealthCheck 依赖检查，未启用的依赖为 nil 时跳过
type HealthCheck struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// Handler 健康检查
//
//	@Summary      健康检查
//	@Description  检查数据库和redis连通性
//	@Tags         检查
//	@Accept       application/json
//	@Produce      application/json
//	@Success      200  {object}  web.Response
//	@Failure      500  {object}  web.Response
//	@Router       /api/health [get]
func (h *HealthCheck) Handler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	status := map[string]string{}
	healthy := true
	if h.DB != nil {
		status["db"] = "ok"
		if err := h.DB.WithContext(ctx).Exec("select 1").Error; err != nil {
			status["db"] = err.Error()
			healthy = false
		}
	}
	if h.Redis != nil {
		status["redis"] = "ok"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			status["redis"] = err.Error()
			healthy = false
		}
	}
	if !healthy {
		c.JSON(500, web.Response{Code: 500, Message: "unhealthy", Data: status})
		return
	}
	web.Success(c, status)
}
