package models

import "time"

/*
UploadSession 分片上传会话
*/

// UploadSession 一次进行中的分片上传，init 时创建，finalize 成功后删除
type UploadSession struct {
	UploadId        string      `json:"uploadId"`
	OwnerId         string      `json:"ownerId"`
	FileName        string      `json:"fileName"`
	ContentType     string      `json:"contentType"`
	TotalSize       int64       `json:"totalSize"`
	DraftText       *string     `json:"draftText,omitempty"`
	DraftTags       []string    `json:"draftTags,omitempty"`
	DraftVisibility *Visibility `json:"draftVisibility,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// TotalParts ceil(totalSize / chunkSize)
func (s *UploadSession) TotalParts(chunkSize int64) int {
	if chunkSize <= 0 || s.TotalSize <= 0 {
		return 0
	}
	return int((s.TotalSize + chunkSize - 1) / chunkSize)
}

// UploadSessionRecord 会话表，registry=database 时使用
type UploadSessionRecord struct {
	ID              int        `gorm:"column:id;primaryKey;not null;autoIncrement;comment:自增ID"`
	UploadId        string     `gorm:"column:upload_id;type:varchar(64);uniqueIndex;not null;comment:上传ID"`
	OwnerId         string     `gorm:"column:owner_id;type:varchar(64);not null;index;comment:发起人"`
	FileName        string     `gorm:"column:file_name;type:varchar(256);not null;comment:原始文件名"`
	ContentType     string     `gorm:"column:content_type;type:varchar(128);not null;comment:文件类型"`
	TotalSize       int64      `gorm:"column:total_size;not null;comment:声明大小"`
	DraftText       *string    `gorm:"column:draft_text;type:text;comment:草稿正文"`
	DraftTags       string     `gorm:"column:draft_tags;type:text;comment:草稿标签json"`
	DraftVisibility *int       `gorm:"column:draft_visibility;comment:草稿可见性"`
	CreatedAt       *time.Time `gorm:"column:created_at;not null;comment:创建时间"`
}

// TableName .
func (UploadSessionRecord) TableName() string {
	return "upload_session"
}
