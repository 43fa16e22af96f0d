package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/onetake/mediaupload/app/models"
	"github.com/onetake/mediaupload/app/pkg/repo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBRegistry 会话元数据落库，分片仍在本地或对象存储
type DBRegistry struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDBRegistry .
func NewDBRegistry(db *gorm.DB, logger *zap.Logger) *DBRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBRegistry{db: db, logger: logger}
}

func toRecord(s *models.UploadSession) (*models.UploadSessionRecord, error) {
	rec := &models.UploadSessionRecord{
		UploadId:    s.UploadId,
		OwnerId:     s.OwnerId,
		FileName:    s.FileName,
		ContentType: s.ContentType,
		TotalSize:   s.TotalSize,
		DraftText:   s.DraftText,
	}
	if s.DraftTags != nil {
		b, err := json.Marshal(s.DraftTags)
		if err != nil {
			return nil, err
		}
		rec.DraftTags = string(b)
	}
	if s.DraftVisibility != nil {
		v := int(*s.DraftVisibility)
		rec.DraftVisibility = &v
	}
	createdAt := s.CreatedAt
	rec.CreatedAt = &createdAt
	return rec, nil
}

func fromRecord(rec *models.UploadSessionRecord) (*models.UploadSession, error) {
	s := &models.UploadSession{
		UploadId:    rec.UploadId,
		OwnerId:     rec.OwnerId,
		FileName:    rec.FileName,
		ContentType: rec.ContentType,
		TotalSize:   rec.TotalSize,
		DraftText:   rec.DraftText,
	}
	if rec.DraftTags != "" {
		if err := json.Unmarshal([]byte(rec.DraftTags), &s.DraftTags); err != nil {
			return nil, err
		}
	}
	if rec.DraftVisibility != nil {
		v := models.Visibility(*rec.DraftVisibility)
		s.DraftVisibility = &v
	}
	if rec.CreatedAt != nil {
		s.CreatedAt = *rec.CreatedAt
	}
	return s, nil
}

// Create upload_id 有唯一索引，先查一次给出明确的冲突错误
func (r *DBRegistry) Create(ctx context.Context, session *models.UploadSession) (string, error) {
	if !ValidId(session.UploadId) {
		return "", fmt.Errorf("%w: uploadId %q", ErrInvalidRequest, session.UploadId)
	}
	db := r.db.WithContext(ctx)
	if _, err := repo.NewUploadSessionRepo().GetByUploadId(db, session.UploadId); err == nil {
		return "", fmt.Errorf("%w: %s", ErrAlreadyExists, session.UploadId)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	rec, err := toRecord(session)
	if err != nil {
		return "", err
	}
	if err := repo.NewUploadSessionRepo().Create(db, rec); err != nil {
		return "", err
	}
	return session.UploadId, nil
}

// Get .
func (r *DBRegistry) Get(ctx context.Context, id string) (*models.UploadSession, error) {
	if !ValidId(id) {
		return nil, nil
	}
	rec, err := repo.NewUploadSessionRepo().GetByUploadId(r.db.WithContext(ctx), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return fromRecord(rec)
}

// Delete .
func (r *DBRegistry) Delete(ctx context.Context, id string) {
	if err := repo.NewUploadSessionRepo().DeleteByUploadId(r.db.WithContext(ctx), id); err != nil {
		r.logger.Warn("删除上传会话记录失败", zap.String("uploadId", id), zap.Error(err))
	}
}
