package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/onetake/mediaupload/bootstrap"
	"github.com/tencentyun/cos-go-sdk-v5"
)

// CosStorage cos存储
type CosStorage struct {
	Appid     string
	Region    string
	SecretId  string
	SecretKey string
}

// NewCosStorage .
func NewCosStorage() *CosStorage {
	conf := bootstrap.NewConfig("")
	return &CosStorage{
		Appid:     conf.Cos.Appid,
		Region:    conf.Cos.Region,
		SecretId:  conf.Cos.SecretId,
		SecretKey: conf.Cos.SecretKey,
	}
}

// client cos 的 client 和桶绑定，每个桶单独构造
func (s *CosStorage) client(bucket string) *cos.Client {
	u, _ := url.Parse(fmt.Sprintf("https://%s-%s.cos.%s.myqcloud.com", bucket, s.Appid, s.Region))
	b := &cos.BaseURL{BucketURL: u}
	return cos.NewClient(b, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  s.SecretId,
			SecretKey: s.SecretKey,
		},
	})
}

// MakeBucket .
func (s *CosStorage) MakeBucket(ctx context.Context, bucket string) error {
	client := s.client(bucket)
	ok, err := client.Bucket.IsExist(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	resp, err := client.Bucket.Put(ctx, nil)
	if err != nil && (resp == nil || resp.StatusCode != http.StatusConflict) {
		return err
	}
	return nil
}

// GetObject .
func (s *CosStorage) GetObject(ctx context.Context, bucket, object string, offset, length int64) (io.ReadCloser, error) {
	resp, err := s.client(bucket).Object.Get(ctx, object, &cos.ObjectGetOptions{
		Range: fmt.Sprintf("bytes=%d-%d", offset, offset+length-1),
	})
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return nil, err
	}
	return resp.Body, nil
}

// PutObject .
func (s *CosStorage) PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, contentType string) error {
	header := &cos.ObjectPutHeaderOptions{ContentType: contentType}
	if size >= 0 {
		header.ContentLength = size
	}
	_, err := s.client(bucket).Object.Put(ctx, object, r, &cos.ObjectPutOptions{ObjectPutHeaderOptions: header})
	return err
}

// DeleteObject .
func (s *CosStorage) DeleteObject(ctx context.Context, bucket, object string) error {
	_, err := s.client(bucket).Object.Delete(ctx, object)
	return err
}
