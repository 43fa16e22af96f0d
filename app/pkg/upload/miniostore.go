package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/minio/minio-go/v7"
	"github.com/onetake/mediaupload/app/models"
	"github.com/onetake/mediaupload/app/pkg/base"
	"github.com/onetake/mediaupload/app/pkg/utils"
	"go.uber.org/zap"
)

/*
对象存储会话存储：<bucket>/<uploadId>/meta.json + part_<i>，多节点共享
*/

const (
	sessionMarker = ".session"
	lockSeconds   = 5
)

// MinioStore 同时实现 SessionRegistry 和 PartStore，单个对象的 put 对读者是原子的
type MinioStore struct {
	client *minio.Client
	bucket string
	rdb    *redis.Client
	logger *zap.Logger
}

// NewMinioStore rdb 可为空，为空时 Create 不加分布式锁
func NewMinioStore(ctx context.Context, client *minio.Client, bucket string, rdb *redis.Client,
	logger *zap.Logger) (*MinioStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	exist, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exist {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return &MinioStore{client: client, bucket: bucket, rdb: rdb, logger: logger}, nil
}

func objectKey(id, name string) string {
	return path.Join(id, name)
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func (s *MinioStore) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNoSuchKey(err) {
		return false, nil
	}
	return false, err
}

func (s *MinioStore) putBytes(ctx context.Context, key string, b []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(b), int64(len(b)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

// Create 存在性检查和写入之间用 redis 锁串行化
func (s *MinioStore) Create(ctx context.Context, session *models.UploadSession) (string, error) {
	if !ValidId(session.UploadId) {
		return "", fmt.Errorf("%w: uploadId %q", ErrInvalidRequest, session.UploadId)
	}
	if s.rdb != nil {
		lock := base.NewRedisLock(ctx, s.rdb, utils.SessionLockPrefix+session.UploadId)
		lock.SetExpire(lockSeconds)
		ok, err := lock.Acquire()
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrAlreadyExists, session.UploadId)
		}
		defer func() {
			if _, err := lock.Release(); err != nil {
				s.logger.Warn("释放会话锁失败", zap.String("uploadId", session.UploadId), zap.Error(err))
			}
		}()
	}
	key := objectKey(session.UploadId, utils.SessionMetaFile)
	exist, err := s.exists(ctx, key)
	if err != nil {
		return "", err
	}
	if exist {
		return "", fmt.Errorf("%w: %s", ErrAlreadyExists, session.UploadId)
	}
	b, err := json.Marshal(session)
	if err != nil {
		return "", err
	}
	if err := s.putBytes(ctx, key, b, "application/json"); err != nil {
		return "", err
	}
	return session.UploadId, nil
}

// Get .
func (s *MinioStore) Get(ctx context.Context, id string) (*models.UploadSession, error) {
	if !ValidId(id) {
		return nil, nil
	}
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(id, utils.SessionMetaFile), minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, nil
		}
		return nil, err
	}
	defer obj.Close()
	var session models.UploadSession
	if err := json.NewDecoder(obj).Decode(&session); err != nil {
		if isNoSuchKey(err) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// Delete .
func (s *MinioStore) Delete(ctx context.Context, id string) {
	s.DeleteSession(ctx, id)
}

// Prepare 写一个空的标记对象，代替本地的会话目录
func (s *MinioStore) Prepare(ctx context.Context, id string) error {
	if !ValidId(id) {
		return fmt.Errorf("%w: uploadId %q", ErrInvalidRequest, id)
	}
	return s.putBytes(ctx, objectKey(id, sessionMarker), nil, "application/octet-stream")
}

// SavePart 分片不超过 ChunkSize，按 ChunkSize 分段时只会走单次 put
func (s *MinioStore) SavePart(ctx context.Context, id string, index int, r io.Reader) error {
	if !ValidId(id) {
		return ErrSessionNotFound
	}
	if index < 0 {
		return ErrInvalidPartIndex
	}
	exist, err := s.exists(ctx, objectKey(id, sessionMarker))
	if err != nil {
		return err
	}
	if !exist {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	_, err = s.client.PutObject(ctx, s.bucket, objectKey(id, partName(index)), r, -1,
		minio.PutObjectOptions{ContentType: "application/octet-stream", PartSize: uint64(utils.ChunkSize)})
	return err
}

// ListIndices .
func (s *MinioStore) ListIndices(ctx context.Context, id string) ([]int, error) {
	if !ValidId(id) {
		return []int{}, nil
	}
	set := map[int]struct{}{}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: id + "/", Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if i, ok := parsePartName(path.Base(obj.Key)); ok {
			set[i] = struct{}{}
		}
	}
	return sortedIndices(set), nil
}

// MergeOrdered .
func (s *MinioStore) MergeOrdered(ctx context.Context, id string) (io.ReadCloser, error) {
	indices, err := s.ListIndices(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPartsFound, id)
	}
	return newOrderedReader(ctx, indices, func(ctx context.Context, index int) (io.ReadCloser, error) {
		return s.client.GetObject(ctx, s.bucket, objectKey(id, partName(index)), minio.GetObjectOptions{})
	}), nil
}

// DeleteSession .
func (s *MinioStore) DeleteSession(_ context.Context, id string) {
	if !ValidId(id) {
		return
	}
	// 请求可能已结束，清理不跟随请求的 ctx
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: id + "/", Recursive: true})
	for rErr := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		s.logger.Warn("删除上传会话对象失败", zap.String("uploadId", id),
			zap.String("object", rErr.ObjectName), zap.Error(rErr.Err))
	}
}
