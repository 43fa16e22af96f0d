package upload

import (
	"context"

	"github.com/onetake/mediaupload/app/models"
)

// SessionRegistry uploadId 到会话元数据的持久映射
type SessionRegistry interface {
	// Create id 已存在时返回 ErrAlreadyExists
	Create(ctx context.Context, s *models.UploadSession) (string, error)

	// Get 不存在时返回 nil, nil；只有存储故障才返回错误
	Get(ctx context.Context, id string) (*models.UploadSession, error)

	// Delete 尽力删除，失败只记日志
	Delete(ctx context.Context, id string)
}
