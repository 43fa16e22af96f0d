package upload

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/onetake/mediaupload/app/models"
	"github.com/onetake/mediaupload/app/pkg/utils"
	"go.uber.org/zap"
)

// CachedRegistry redis 读穿缓存；会话创建后不再修改，只有删除时需要失效
type CachedRegistry struct {
	inner  SessionRegistry
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedRegistry .
func NewCachedRegistry(inner SessionRegistry, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRegistry{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(id string) string {
	return id + utils.UploadCacheSuffix
}

// Create .
func (c *CachedRegistry) Create(ctx context.Context, session *models.UploadSession) (string, error) {
	return c.inner.Create(ctx, session)
}

// Get redis 故障时直接读底层存储
func (c *CachedRegistry) Get(ctx context.Context, id string) (*models.UploadSession, error) {
	if !ValidId(id) {
		return nil, nil
	}
	key := cacheKey(id)
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var session models.UploadSession
		if err := json.Unmarshal(b, &session); err == nil {
			return &session, nil
		}
		c.logger.Warn("会话缓存反序列化失败", zap.String("uploadId", id), zap.Error(err))
	} else if err != redis.Nil {
		c.logger.Warn("读取会话缓存失败", zap.String("uploadId", id), zap.Error(err))
	}

	session, err := c.inner.Get(ctx, id)
	if err != nil || session == nil {
		return session, err
	}
	if b, err := json.Marshal(session); err == nil {
		if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
			c.logger.Warn("写入会话缓存失败", zap.String("uploadId", id), zap.Error(err))
		}
	}
	return session, nil
}

// Delete 先删缓存再删底层记录
func (c *CachedRegistry) Delete(ctx context.Context, id string) {
	if err := c.rdb.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.logger.Warn("删除会话缓存失败", zap.String("uploadId", id), zap.Error(err))
	}
	c.inner.Delete(ctx, id)
}
