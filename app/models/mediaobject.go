package models

import "time"

/*
MediaObject 持久化后的媒体文件
*/

// MediaObject 媒体元数据表
type MediaObject struct {
	ID          int        `gorm:"column:id;primaryKey;not null;autoIncrement;comment:自增ID"`
	UID         int64      `gorm:"column:uid;uniqueIndex;not null;comment:唯一ID"`
	Bucket      string     `gorm:"column:bucket;not null;comment:桶"`
	Name        string     `gorm:"column:name;not null;comment:原始名称"`
	StorageName string     `gorm:"column:storage_name;not null;comment:存储名称"`
	Address     string     `gorm:"column:address;not null;comment:存储地址"`
	Md5         string     `gorm:"column:md5;comment:md5"`
	StorageSize int64      `gorm:"column:storage_size;comment:文件大小"`
	MediaType   MediaType  `gorm:"column:media_type;comment:媒体类型"`
	ContentType string     `gorm:"column:content_type;comment:文件类型"`
	CreatedAt   *time.Time `gorm:"column:created_at;not null;comment:创建时间"`
	UpdatedAt   *time.Time `gorm:"column:updated_at;not null;comment:更新时间"`
}
