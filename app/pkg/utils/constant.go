package utils

import "time"

const (
	WorkID                = "workId"
	S3StoragePutThreadNum = 10
)

// 分片上传
const (
	// ChunkSize 服务端下发给客户端的固定分片大小
	ChunkSize int64 = 5 * 1024 * 1024

	SessionMetaFile   = "meta.json"
	PartFilePrefix    = "part_"
	UploadCacheSuffix = "-upload"
	MediaCacheSuffix  = "-meta"
	MediaCacheTTL     = 5 * time.Minute
	SessionLockPrefix = "upload:lock:"
	EventChannel      = "upload:events"
)

// 请求头
const (
	HeaderUserID  = "user-id"
	HeaderTraceID = "X-Request-Id"
)

// 媒体桶
var MediaBuckets = []string{"video", "audio", "unknown"}
