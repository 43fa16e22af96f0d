package storage

import (
	"context"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/onetake/mediaupload/bootstrap"
	"github.com/onetake/mediaupload/bootstrap/plugins"
)

// OssStorage oss存储，桶名全局唯一，实际桶名加前缀
type OssStorage struct {
	client *oss.Client
	prefix string
}

// NewOssStorage .
func NewOssStorage() *OssStorage {
	client := new(plugins.LangGoOss).NewOss()
	return &OssStorage{
		client: client,
		prefix: bootstrap.NewConfig("").Oss.BucketPrefix,
	}
}

func (s *OssStorage) bucketName(bucket string) string {
	if s.prefix == "" {
		return bucket
	}
	return s.prefix + "-" + bucket
}

// MakeBucket .
func (s *OssStorage) MakeBucket(_ context.Context, bucket string) error {
	name := s.bucketName(bucket)
	isExist, err := s.client.IsBucketExist(name)
	if err != nil {
		return err
	}
	if isExist {
		return nil
	}
	return s.client.CreateBucket(name)
}

// GetObject .
func (s *OssStorage) GetObject(_ context.Context, bucket, object string, offset, length int64) (io.ReadCloser, error) {
	b, err := s.client.Bucket(s.bucketName(bucket))
	if err != nil {
		return nil, err
	}
	return b.GetObject(object, oss.Range(offset, offset+length-1))
}

// PutObject .
func (s *OssStorage) PutObject(_ context.Context, bucket, object string, r io.Reader, _ int64, contentType string) error {
	b, err := s.client.Bucket(s.bucketName(bucket))
	if err != nil {
		return err
	}
	return b.PutObject(object, r, oss.ContentType(contentType))
}

// DeleteObject .
func (s *OssStorage) DeleteObject(_ context.Context, bucket, object string) error {
	b, err := s.client.Bucket(s.bucketName(bucket))
	if err != nil {
		return err
	}
	return b.DeleteObject(object)
}
