package post

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/onetake/mediaupload/app/models"
	"github.com/onetake/mediaupload/app/pkg/base"
	"github.com/onetake/mediaupload/app/pkg/repo"
	"github.com/onetake/mediaupload/app/pkg/storage"
	"github.com/onetake/mediaupload/app/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service 媒体落盘 + 帖子入库
type Service struct {
	db      *gorm.DB
	storage storage.CustomStorage
	logger  *zap.Logger
}

// NewService .
func NewService(db *gorm.DB, sto storage.CustomStorage, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, storage: sto, logger: logger}
}

// MediaTypeOf video/* 为视频，其余按音频处理
func MediaTypeOf(contentType string) models.MediaType {
	if strings.HasPrefix(strings.ToLower(contentType), "video") {
		return models.MediaTypeVideo
	}
	return models.MediaTypeAudio
}

// StorageName <uid>.<ext>，没有后缀时只用 uid
func StorageName(uid int64, fileName string) string {
	uidStr := strconv.FormatInt(uid, 10)
	if ext := base.GetExtension(fileName); ext != "" {
		return fmt.Sprintf("%s.%s", uidStr, ext)
	}
	return uidStr
}

// MediaUrl .
func MediaUrl(uid int64) string {
	return fmt.Sprintf("/api/media/%d", uid)
}

// CreatePost 先写对象存储再写库；写库失败时删除已写入的对象
func (s *Service) CreatePost(ctx context.Context, ownerId string, req models.CreatePostReq, r io.Reader,
	fileName, contentType string) (*models.PostDto, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	uid, err := base.NewSnowFlake().NextId()
	if err != nil {
		return nil, err
	}
	postId, err := base.NewSnowFlake().NextId()
	if err != nil {
		return nil, err
	}
	bucket := base.SelectBucketBySuffix(fileName)
	storageName := StorageName(uid, fileName)

	digest := base.NewDigestReader(r)
	if err := s.storage.PutObject(ctx, bucket, storageName, digest, -1, contentType); err != nil {
		return nil, fmt.Errorf("写入媒体存储: %w", err)
	}

	tags := utils.RemoveDuplicates(req.Tags)
	if tags == nil {
		tags = []string{}
	}
	tagsJson, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	mediaType := MediaTypeOf(contentType)
	mediaObject := &models.MediaObject{
		UID:         uid,
		Bucket:      bucket,
		Name:        url.PathEscape(filepath.Base(fileName)),
		StorageName: storageName,
		Address:     fmt.Sprintf("%s/%s", bucket, storageName),
		Md5:         digest.Md5(),
		StorageSize: digest.Size(),
		MediaType:   mediaType,
		ContentType: contentType,
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}
	post := &models.Post{
		ID:          postId,
		AuthorId:    ownerId,
		ContentText: req.ContentText,
		MediaUid:    uid,
		MediaType:   mediaType,
		Visibility:  req.Visibility,
		Tags:        string(tagsJson),
		CreatedAt:   &now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.NewMediaObjectRepo().Create(tx, mediaObject); err != nil {
			return err
		}
		return repo.NewPostRepo().Create(tx, post)
	})
	if err != nil {
		// 请求 ctx 可能已取消，清理用独立 ctx
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if dErr := s.storage.DeleteObject(cleanupCtx, bucket, storageName); dErr != nil {
			s.logger.Warn("回滚媒体对象失败", zap.String("bucket", bucket),
				zap.String("object", storageName), zap.Error(dErr))
		}
		return nil, fmt.Errorf("写入帖子: %w", err)
	}

	return ToDto(post, tags), nil
}

// ToDto .
func ToDto(p *models.Post, tags []string) *models.PostDto {
	dto := &models.PostDto{
		Id:          strconv.FormatInt(p.ID, 10),
		ContentText: p.ContentText,
		MediaUrl:    MediaUrl(p.MediaUid),
		MediaType:   p.MediaType,
		AuthorId:    p.AuthorId,
		Visibility:  p.Visibility,
		Tags:        tags,
	}
	if p.CreatedAt != nil {
		dto.CreatedAt = p.CreatedAt.UTC()
	}
	return dto
}
