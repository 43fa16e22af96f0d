package storage

import (
	"context"
	"io"
	"sync"

	"github.com/onetake/mediaupload/app/pkg/utils"
	"github.com/onetake/mediaupload/bootstrap"
	"github.com/onetake/mediaupload/config"
)

// CustomStorage 持久化媒体存储
type CustomStorage interface {
	// MakeBucket 创建存储桶
	MakeBucket(ctx context.Context, bucket string) error

	// GetObject 读取对象的 [offset, offset+length) 区间，调用方负责关闭
	GetObject(ctx context.Context, bucket, object string, offset, length int64) (io.ReadCloser, error)

	// PutObject 流式写入对象，size 未知时传 -1
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, contentType string) error

	// DeleteObject 删除存储对象
	DeleteObject(ctx context.Context, bucket, object string) error
}

// LangGoStorage .
type LangGoStorage struct {
	Mux     *sync.RWMutex
	Storage CustomStorage
}

var (
	lgStorage *LangGoStorage
)

// InitStorage 按配置顺序选用第一个启用的存储，并创建媒体桶
func InitStorage(conf *config.Configuration) {
	var storageHandler CustomStorage
	if conf.Local != nil && conf.Local.Enabled {
		storageHandler = NewLocalStorage(conf.Local.RootPath)
		bootstrap.NewLogger().Logger.Info("当前使用的对象存储：Local")
	} else if conf.Minio != nil && conf.Minio.Enabled {
		storageHandler = NewMinIOStorage()
		bootstrap.NewLogger().Logger.Info("当前使用的对象存储：Minio")
	} else if conf.Cos != nil && conf.Cos.Enabled {
		storageHandler = NewCosStorage()
		bootstrap.NewLogger().Logger.Info("当前使用的对象存储：COS")
	} else if conf.Oss != nil && conf.Oss.Enabled {
		storageHandler = NewOssStorage()
		bootstrap.NewLogger().Logger.Info("当前使用的对象存储：OSS")
	} else {
		panic("当前对象存储都未启用")
	}

	lgStorage = &LangGoStorage{
		Mux:     &sync.RWMutex{},
		Storage: storageHandler,
	}
	for _, bucket := range utils.MediaBuckets {
		if err := storageHandler.MakeBucket(context.Background(), bucket); err != nil {
			panic(err)
		}
	}
}

// NewStorage .
func NewStorage() *LangGoStorage {
	return lgStorage
}
