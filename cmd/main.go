package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/onetake/mediaupload/api"
	v0 "github.com/onetake/mediaupload/api/v0"
	"github.com/onetake/mediaupload/app"
	"github.com/onetake/mediaupload/app/pkg/base"
	"github.com/onetake/mediaupload/app/pkg/event"
	"github.com/onetake/mediaupload/app/pkg/event/handlers"
	"github.com/onetake/mediaupload/app/pkg/media"
	"github.com/onetake/mediaupload/app/pkg/post"
	"github.com/onetake/mediaupload/app/pkg/storage"
	"github.com/onetake/mediaupload/app/pkg/upload"
	"github.com/onetake/mediaupload/bootstrap"
	"github.com/onetake/mediaupload/bootstrap/plugins"
	"github.com/onetake/mediaupload/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// @title		mediaupload
// @version	1.0
// @description	分片上传、合并发布和媒体下载
// @host			127.0.0.1:8888
// @BasePath		/
func main() {
	// config log
	lgConfig := bootstrap.NewConfig("conf/config.yaml")
	lgLogger := bootstrap.NewLogger()

	// plugins DB Redis Minio
	plugins.NewPlugins()
	defer plugins.ClosePlugins()

	var rdb *redis.Client
	lgRedis := new(plugins.LangGoRedis)
	if lgRedis.Enabled() {
		rdb = lgRedis.NewRedis()
	}
	db := new(plugins.LangGoDB).Use("default").NewDB()

	// init Snowflake
	if err := base.InitSnowFlake(lgConfig.App.WorkerId, rdb); err != nil {
		panic(err)
	}

	// init storage
	storage.InitStorage(lgConfig)
	sto := storage.NewStorage().Storage

	// events
	events := event.NewEventsHandler(lgLogger.Logger)
	handlers.RegisterLog(events, lgLogger.Logger)
	if rdb != nil {
		handlers.RegisterRedisPublish(events, rdb)
	}

	// upload
	registry, parts := newUploadStores(lgConfig, db, rdb, lgLogger.Logger)
	manager := upload.NewManager(
		registry,
		parts,
		newProcessor(lgConfig, lgLogger.Logger),
		post.NewService(db, sto, lgLogger.Logger),
		upload.WithEmitter(events),
		upload.WithLogger(lgLogger.Logger),
	)

	// router
	engine := api.NewRouter(lgConfig, lgLogger, &api.Handlers{
		Upload: v0.NewUploadHandler(manager, lgLogger),
		Media:  v0.NewMediaHandler(db, rdb, sto, lgLogger),
		Health: &v0.HealthCheck{DB: db, Redis: rdb},
	})
	server := app.NewHttpServer(lgConfig, engine)

	// app run-server
	application := app.NewApp(lgConfig, lgLogger.Logger, server, events)
	application.RunServer()
}

// newUploadStores 会话登记和分片存储可以分开选型，minio 分片依赖 minio 插件
func newUploadStores(conf *config.Configuration, db *gorm.DB, rdb *redis.Client,
	logger *zap.Logger) (upload.SessionRegistry, upload.PartStore) {
	var (
		local *upload.LocalStore
		mio   *upload.MinioStore
		err   error
	)
	getLocal := func() *upload.LocalStore {
		if local == nil {
			if local, err = upload.NewLocalStore(conf.Upload.BasePath, logger); err != nil {
				panic(err)
			}
		}
		return local
	}
	getMinio := func() *upload.MinioStore {
		if mio == nil {
			lgMinio := new(plugins.LangGoMinio)
			if !lgMinio.Flag() {
				panic("minio 未启用，无法作为上传会话存储")
			}
			client := lgMinio.NewMinio()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if mio, err = upload.NewMinioStore(ctx, client, conf.Upload.Bucket, rdb, logger); err != nil {
				panic(err)
			}
		}
		return mio
	}

	var parts upload.PartStore
	switch conf.Upload.PartStore {
	case "minio":
		parts = getMinio()
	default:
		parts = getLocal()
	}

	var registry upload.SessionRegistry
	switch conf.Upload.Registry {
	case "minio":
		registry = getMinio()
	case "database":
		registry = upload.NewDBRegistry(db, logger)
	default:
		registry = getLocal()
	}
	if rdb != nil && conf.Upload.CacheTTL > 0 {
		registry = upload.NewCachedRegistry(registry, rdb, time.Duration(conf.Upload.CacheTTL)*time.Second, logger)
	}
	logger.Info("上传会话存储", zap.String("registry", conf.Upload.Registry),
		zap.String("partStore", conf.Upload.PartStore))
	return registry, parts
}

func newProcessor(conf *config.Configuration, logger *zap.Logger) media.Processor {
	if !conf.Processor.Enabled {
		return media.Nop{}
	}
	tempDir := filepath.Join(os.TempDir(), "onetake_media")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		panic(err)
	}
	return media.NewFfmpegProcessor(conf.Processor.FfmpegPath, tempDir, logger)
}
