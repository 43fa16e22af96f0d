package v0

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/onetake/mediaupload/app/models"
	"github.com/onetake/mediaupload/app/pkg/base"
	"github.com/onetake/mediaupload/app/pkg/repo"
	"github.com/onetake/mediaupload/app/pkg/storage"
	"github.com/onetake/mediaupload/app/pkg/utils"
	"github.com/onetake/mediaupload/app/pkg/web"
	"github.com/onetake/mediaupload/bootstrap"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

/*
媒体下载
*/

// MediaHandler rdb 为 nil 时不走缓存
type MediaHandler struct {
	db       *gorm.DB
	rdb      *redis.Client
	storage  storage.CustomStorage
	lgLogger *bootstrap.LangGoLogger
}

// NewMediaHandler .
func NewMediaHandler(db *gorm.DB, rdb *redis.Client, sto storage.CustomStorage,
	lgLogger *bootstrap.LangGoLogger) *MediaHandler {
	return &MediaHandler{db: db, rdb: rdb, storage: sto, lgLogger: lgLogger}
}

// loadMeta 先查 redis，未命中再查库并回写
func (h *MediaHandler) loadMeta(c *gin.Context, uid int64) (*models.MediaObject, error) {
	key := fmt.Sprintf("%d%s", uid, utils.MediaCacheSuffix)
	if h.rdb != nil {
		val, err := h.rdb.Get(c, key).Result()
		if err == nil {
			var meta models.MediaObject
			if err := json.Unmarshal([]byte(val), &meta); err == nil {
				// 续期
				h.rdb.Expire(c, key, utils.MediaCacheTTL)
				return &meta, nil
			}
			h.lgLogger.WithContext(c).Warn("媒体元信息缓存反序列化失败", zap.Int64("uid", uid))
		} else if err != redis.Nil {
			h.lgLogger.WithContext(c).Warn("查询redis失败", zap.Error(err))
		}
	}
	meta, err := repo.NewMediaObjectRepo().GetByUid(h.db.WithContext(c), uid)
	if err != nil {
		return nil, err
	}
	if h.rdb != nil {
		if b, err := json.Marshal(meta); err == nil {
			h.rdb.SetNX(c, key, b, utils.MediaCacheTTL)
		}
	}
	return meta, nil
}

// Download    下载媒体
//
//	@Summary		下载媒体
//	@Description	按 uid 读取已发布的媒体，支持 Range
//	@Tags			下载
//	@Param			uid		path	string	true	"媒体uid"
//	@Param			Range	header	string	false	"bytes=start-end"
//	@Produce		application/octet-stream
//	@Success		200
//	@Success		206
//	@Failure		416
//	@Failure		404	{object}	web.Response
//	@Router			/api/media/{uid} [get]
func (h *MediaHandler) Download(c *gin.Context) {
	uid, err := strconv.ParseInt(c.Param("uid"), 10, 64)
	if err != nil {
		web.NotFoundResource(c, "媒体不存在")
		return
	}
	meta, err := h.loadMeta(c, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			web.NotFoundResource(c, "媒体不存在")
			return
		}
		h.lgLogger.WithContext(c).Error("查询媒体元信息失败", zap.Int64("uid", uid), zap.Error(err))
		web.InternalError(c, "内部异常")
		return
	}

	fileSize := meta.StorageSize
	start, end, partial, err := base.GetRange(c.GetHeader("Range"), fileSize)
	if errors.Is(err, base.ErrRangeNotSatisfiable) {
		c.Writer.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", fileSize))
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}
	name, _ := url.PathUnescape(meta.Name)

	c.Writer.Header().Set("Accept-Ranges", "bytes")
	if fileSize == 0 {
		c.Writer.Header().Set("Content-Type", meta.ContentType)
		c.Writer.Header().Set("Content-Length", "0")
		c.Status(http.StatusOK)
		return
	}

	rc, err := h.storage.GetObject(c.Request.Context(), meta.Bucket, meta.StorageName, start, end-start+1)
	if err != nil {
		h.lgLogger.WithContext(c).Error("从对象存储获取数据失败", zap.Int64("uid", uid), zap.Error(err))
		web.InternalError(c, "内部异常")
		return
	}
	defer rc.Close()

	// 在写 body 之前设置头和状态码
	c.Writer.Header().Set("Content-Type", meta.ContentType)
	c.Writer.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	c.Writer.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
	if partial {
		c.Writer.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
		c.Status(http.StatusPartialContent)
	} else {
		c.Status(http.StatusOK)
	}
	if _, err := io.Copy(c.Writer, rc); err != nil {
		h.lgLogger.WithContext(c).Warn("写入http响应出错", zap.Int64("uid", uid), zap.Error(err))
	}
}
