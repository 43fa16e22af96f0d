package storage

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/onetake/mediaupload/app/pkg/utils"
	"github.com/onetake/mediaupload/bootstrap"
	"github.com/onetake/mediaupload/bootstrap/plugins"
)

// MinIOStorage minio存储
type MinIOStorage struct {
	client *minio.Client
	region string
}

// NewMinIOStorage .
func NewMinIOStorage() *MinIOStorage {
	client := new(plugins.LangGoMinio).NewMinio()
	return &MinIOStorage{
		client: client,
		region: bootstrap.NewConfig("").Minio.Region,
	}
}

// MakeBucket .
func (s *MinIOStorage) MakeBucket(ctx context.Context, bucket string) error {
	isExist, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if isExist {
		return nil
	}
	return s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region})
}

// GetObject .
func (s *MinIOStorage) GetObject(ctx context.Context, bucket, object string, offset, length int64) (io.ReadCloser, error) {
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(offset, offset+length-1); err != nil {
		return nil, err
	}
	// 返回的对象需要调用方关闭，否则连接会一直占用
	return s.client.GetObject(ctx, bucket, object, opts)
}

// PutObject .
func (s *MinIOStorage) PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, object, r, size,
		minio.PutObjectOptions{ContentType: contentType, NumThreads: utils.S3StoragePutThreadNum})
	return err
}

// DeleteObject .
func (s *MinIOStorage) DeleteObject(ctx context.Context, bucket, object string) error {
	return s.client.RemoveObject(ctx, bucket, object, minio.RemoveObjectOptions{})
}
