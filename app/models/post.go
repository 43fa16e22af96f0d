package models

import "time"

// Visibility 帖子可见性
type Visibility int

const (
	VisibilityPublic Visibility = iota
	VisibilityFollowers
	VisibilityPrivate
)

// MediaType 媒体类型
type MediaType int

const (
	MediaTypeVideo MediaType = iota
	MediaTypeAudio
)

// Post 帖子表，只保留上传链路需要的字段
type Post struct {
	ID          int64      `gorm:"column:id;primaryKey;not null;comment:雪花ID"`
	AuthorId    string     `gorm:"column:author_id;type:varchar(64);not null;index;comment:作者"`
	ContentText string     `gorm:"column:content_text;type:text;comment:正文"`
	MediaUid    int64      `gorm:"column:media_uid;not null;comment:媒体ID"`
	MediaType   MediaType  `gorm:"column:media_type;comment:媒体类型"`
	Visibility  Visibility `gorm:"column:visibility;comment:可见性"`
	Tags        string     `gorm:"column:tags;type:text;comment:标签json"`
	CreatedAt   *time.Time `gorm:"column:created_at;not null;comment:创建时间"`
}

// CreatePostReq 创建帖子入参，finalize 合并草稿和覆盖值后得到
type CreatePostReq struct {
	ContentText string
	Tags        []string
	Visibility  Visibility
}

// PostDto 帖子响应体
type PostDto struct {
	Id          string     `json:"id"`
	ContentText string     `json:"contentText"`
	MediaUrl    string     `json:"mediaUrl"`
	MediaType   MediaType  `json:"mediaType"`
	AuthorId    string     `json:"authorId"`
	Visibility  Visibility `json:"visibility"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
}
