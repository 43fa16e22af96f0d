package api

import (
	"github.com/gin-gonic/gin"
	v0 "github.com/onetake/mediaupload/api/v0"
	"github.com/onetake/mediaupload/app/middleware"
	"github.com/onetake/mediaupload/bootstrap"
	"github.com/onetake/mediaupload/config"
	"github.com/onetake/mediaupload/docs"
	gs "github.com/swaggo/gin-swagger"
	"github.com/swaggo/gin-swagger/swaggerFiles"
)

// Handlers 路由依赖的处理器
type Handlers struct {
	Upload *v0.UploadHandler
	Media  *v0.MediaHandler
	Health *v0.HealthCheck
}

// NewRouter .
func NewRouter(
	conf *config.Configuration,
	lgLogger *bootstrap.LangGoLogger,
	handlers *Handlers,
) *gin.Engine {
	if conf.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// middleware
	corsM := middleware.NewCors()
	traceL := middleware.NewTrace(lgLogger)
	requestL := middleware.NewRequestLog(lgLogger)
	panicRecover := middleware.NewPanicRecover(lgLogger)

	// 跨域 trace-id 日志
	router.Use(corsM.Handler(), traceL.Handler(), requestL.Handler(), panicRecover.Handler())

	// swag docs
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", gs.WrapHandler(swaggerFiles.Handler))

	// 动态资源 注册 api 分组路由
	setApiGroupRoutes(router, lgLogger, handlers)

	return router
}

func setApiGroupRoutes(
	router *gin.Engine,
	lgLogger *bootstrap.LangGoLogger,
	handlers *Handlers,
) *gin.RouterGroup {
	group := router.Group("/api")
	{
		//health
		group.GET("/ping", v0.PingHandler)
		if handlers.Health != nil {
			group.GET("/health", handlers.Health.Handler)
		}

		// media
		if handlers.Media != nil {
			group.GET("/media/:uid", handlers.Media.Download)
		}
	}

	SetUploadRoutes(group, lgLogger, handlers.Upload)
	return group
}

// SetUploadRoutes 上传接口都需要调用方身份
func SetUploadRoutes(group *gin.RouterGroup, lgLogger *bootstrap.LangGoLogger, h *v0.UploadHandler) {
	uploads := group.Group("/uploads", middleware.NewAuth(lgLogger).Handler())
	{
		uploads.POST("/init", h.Init)
		uploads.PUT("/:uploadId/parts/:partIndex", h.UploadPart)
		uploads.GET("/:uploadId/status", h.Status)
		uploads.POST("/:uploadId/finalize", h.Finalize)
	}
}
