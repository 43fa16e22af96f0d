package models

/*
分片上传接口请求体/响应体
*/

// InitUploadReq 初始化上传
type InitUploadReq struct {
	FileName    string   `json:"fileName" binding:"required,min=1,max=256"`
	ContentType string   `json:"contentType" binding:"required,min=1,max=128"`
	TotalSize   int64    `json:"totalSize" binding:"required,min=1"`
	ContentText *string  `json:"contentText" binding:"omitempty,max=4000"`
	Tags        []string `json:"tags" binding:"omitempty,max=20"`
}

// InitUploadResp .
type InitUploadResp struct {
	UploadId  string `json:"uploadId"`
	ChunkSize int64  `json:"chunkSize"`
}

// UploadStatusResp .
type UploadStatusResp struct {
	UploadId            string `json:"uploadId"`
	TotalParts          int    `json:"totalParts"`
	UploadedPartIndices []int  `json:"uploadedPartIndices"`
}

// FinalizeUploadReq 所有字段可选，覆盖 init 时的草稿
type FinalizeUploadReq struct {
	ContentText *string     `json:"contentText" binding:"omitempty,max=4000"`
	Tags        []string    `json:"tags" binding:"omitempty,max=20"`
	Visibility  *Visibility `json:"visibility" binding:"omitempty,min=0,max=2"`
	TrimStartMs *int        `json:"trimStartMs" binding:"omitempty,min=0"`
	TrimEndMs   *int        `json:"trimEndMs" binding:"omitempty,min=0"`
}
