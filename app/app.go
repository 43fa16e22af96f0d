package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onetake/mediaupload/app/pkg/event"
	"github.com/onetake/mediaupload/config"
	"go.uber.org/zap"
)

// App 应用结构体
type App struct {
	conf    *config.Configuration
	logger  *zap.Logger
	httpSrv *http.Server
	events  *event.EventsHandler
}

// NewHttpServer .
func NewHttpServer(
	conf *config.Configuration,
	router *gin.Engine,
) *http.Server {
	return &http.Server{
		Addr:              ":" + conf.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewApp .
func NewApp(
	conf *config.Configuration,
	logger *zap.Logger,
	httpSrv *http.Server,
	events *event.EventsHandler,
) *App {
	return &App{
		conf:    conf,
		logger:  logger,
		httpSrv: httpSrv,
		events:  events,
	}
}

// RunServer 启动服务
func (a *App) RunServer() {
	// 启动应用
	a.logger.Info("start app ...", zap.String("port", a.conf.App.Port))
	if err := a.Run(); err != nil {
		panic(err)
	}

	// 等待中断信号以优雅地关闭应用
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// 设置 5 秒的超时时间
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭应用
	a.logger.Info("shutdown app ...")
	if err := a.Stop(ctx); err != nil {
		a.logger.Error("shutdown app failed", zap.Error(err))
	}
}

// Run 启动服务
func (a *App) Run() error {
	// 启动 http server
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()
	return nil
}

// Stop 停止服务，先关 http 再等事件处理完
func (a *App) Stop(ctx context.Context) error {
	// 关闭 http server
	if err := a.httpSrv.Shutdown(ctx); err != nil {
		return err
	}
	if a.events != nil {
		done := make(chan struct{})
		go func() {
			a.events.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			a.logger.Warn("等待事件处理超时")
		}
	}
	return nil
}
