package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/onetake/mediaupload/app/models"
	"github.com/onetake/mediaupload/app/pkg/utils"
	"go.uber.org/zap"
)

// MaxFileSize 客户端单文件上限
const MaxFileSize int64 = 2 << 30

// ErrFileTooLarge .
var ErrFileTooLarge = errors.New("文件超过 2GiB 上限")

// Status 上传过程的可见状态
type Status string

const (
	StatusIdle       Status = "idle"
	StatusUploading  Status = "uploading"
	StatusFinalizing Status = "finalizing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
	StatusCancelled  Status = "cancelled"
)

// Progress .
type Progress struct {
	UploadedParts int
	TotalParts    int
	Percent       int
}

func newProgress(uploaded, total int) Progress {
	p := Progress{UploadedParts: uploaded, TotalParts: total}
	if total > 0 {
		p.Percent = (uploaded*100 + total/2) / total
	}
	return p
}

// Meta 文件描述和帖子元数据，Text/Tags 在 init 时作为草稿，在 finalize 时作为覆盖
type Meta struct {
	FileName    string
	ContentType string
	Text        *string
	Tags        []string
	Visibility  *models.Visibility
	TrimStartMs *int
	TrimEndMs   *int
}

// Uploader 一次只跑一个上传
type Uploader struct {
	api        *API
	attempts   int
	backoff    []time.Duration
	sleep      SleepFunc
	onProgress func(Progress)
	logger     *zap.Logger
	chunkSize  int64

	mu       sync.Mutex
	status   Status
	uploadId string
}

// Option .
type Option func(*Uploader)

// WithBackoff .
func WithBackoff(backoff []time.Duration) Option {
	return func(u *Uploader) { u.backoff = backoff }
}

// WithSleep 测试里替换为记录等待时长的实现
func WithSleep(sleep SleepFunc) Option {
	return func(u *Uploader) { u.sleep = sleep }
}

// WithProgress .
func WithProgress(f func(Progress)) Option {
	return func(u *Uploader) { u.onProgress = f }
}

// WithLogger .
func WithLogger(l *zap.Logger) Option {
	return func(u *Uploader) { u.logger = l }
}

// WithChunkSize 续传时用于切分文件，需和服务端一致
func WithChunkSize(n int64) Option {
	return func(u *Uploader) { u.chunkSize = n }
}

// NewUploader .
func NewUploader(api *API, opts ...Option) *Uploader {
	u := &Uploader{
		api:        api,
		attempts:   MaxAttempts,
		backoff:    DefaultBackoff,
		sleep:      sleepContext,
		onProgress: func(Progress) {},
		logger:     zap.NewNop(),
		status:     StatusIdle,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Status .
func (u *Uploader) Status() Status {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status
}

// UploadId 最近一次上传的会话，失败后可用于 Resume
func (u *Uploader) UploadId() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uploadId
}

func (u *Uploader) setStatus(s Status) {
	u.mu.Lock()
	u.status = s
	u.mu.Unlock()
}

func (u *Uploader) setUploadId(id string) {
	u.mu.Lock()
	u.uploadId = id
	u.mu.Unlock()
}

// finish 根据错误落最终状态
func (u *Uploader) finish(ctx context.Context, err error) error {
	switch {
	case err == nil:
		u.setStatus(StatusDone)
		return nil
	case errors.Is(err, ErrCancelled) || ctx.Err() != nil:
		u.setStatus(StatusCancelled)
		return ErrCancelled
	default:
		u.setStatus(StatusError)
		u.logger.Warn("上传失败", zap.String("uploadId", u.UploadId()), zap.Error(err))
		var rejected *RejectedError
		if !errors.As(err, &rejected) {
			if r, ok := nonRetryable(err); ok {
				return r
			}
		}
		return err
	}
}

// Upload init、按序上传全部分片、finalize
func (u *Uploader) Upload(ctx context.Context, file io.ReaderAt, size int64, meta Meta) (*models.PostDto, error) {
	if size > MaxFileSize {
		u.setStatus(StatusError)
		return nil, ErrFileTooLarge
	}
	u.setStatus(StatusUploading)
	u.setUploadId("")
	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	resp, err := u.api.Init(ctx, models.InitUploadReq{
		FileName:    meta.FileName,
		ContentType: contentType,
		TotalSize:   size,
		ContentText: meta.Text,
		Tags:        meta.Tags,
	})
	if err != nil {
		return nil, u.finish(ctx, err)
	}
	u.setUploadId(resp.UploadId)
	u.logger.Info("上传会话已创建", zap.String("uploadId", resp.UploadId), zap.Int64("chunkSize", resp.ChunkSize))

	total := totalParts(size, resp.ChunkSize)
	indices := make([]int, 0, total)
	for i := 0; i < total; i++ {
		indices = append(indices, i)
	}
	post, err := u.run(ctx, resp.UploadId, file, size, resp.ChunkSize, total, indices, meta)
	return post, u.finish(ctx, err)
}

// Resume 查询已上传分片，只补传缺失的序号后 finalize
func (u *Uploader) Resume(ctx context.Context, uploadId string, file io.ReaderAt, size int64,
	meta Meta) (*models.PostDto, error) {
	u.setStatus(StatusUploading)
	u.setUploadId(uploadId)
	st, err := u.api.Status(ctx, uploadId)
	if err != nil {
		return nil, u.finish(ctx, err)
	}
	chunkSize := u.chunkSize
	if chunkSize <= 0 {
		chunkSize = utils.ChunkSize
	}
	present := make(map[int]bool, len(st.UploadedPartIndices))
	for _, i := range st.UploadedPartIndices {
		present[i] = true
	}
	var missing []int
	for i := 0; i < st.TotalParts; i++ {
		if !present[i] {
			missing = append(missing, i)
		}
	}
	u.logger.Info("续传", zap.String("uploadId", uploadId), zap.Int("missing", len(missing)),
		zap.Int("totalParts", st.TotalParts))
	post, err := u.run(ctx, uploadId, file, size, chunkSize, st.TotalParts, missing, meta)
	return post, u.finish(ctx, err)
}

func (u *Uploader) run(ctx context.Context, uploadId string, file io.ReaderAt, size, chunkSize int64,
	total int, indices []int, meta Meta) (*models.PostDto, error) {
	done := total - len(indices)
	u.onProgress(newProgress(done, total))
	for _, index := range indices {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		data, err := readPart(file, size, chunkSize, index)
		if err != nil {
			return nil, err
		}
		err = retry(ctx, u.attempts, u.backoff, u.sleep, index, func(ctx context.Context) error {
			return u.api.UploadPart(ctx, uploadId, index, data)
		})
		if err != nil {
			return nil, err
		}
		done++
		u.onProgress(newProgress(done, total))
	}

	if ctx.Err() != nil {
		return nil, ErrCancelled
	}
	u.setStatus(StatusFinalizing)
	post, err := u.api.Finalize(ctx, uploadId, models.FinalizeUploadReq{
		ContentText: meta.Text,
		Tags:        meta.Tags,
		Visibility:  meta.Visibility,
		TrimStartMs: meta.TrimStartMs,
		TrimEndMs:   meta.TrimEndMs,
	})
	if ctx.Err() != nil {
		return nil, ErrCancelled
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

func totalParts(size, chunkSize int64) int {
	if chunkSize <= 0 {
		return 0
	}
	return int((size + chunkSize - 1) / chunkSize)
}

func readPart(file io.ReaderAt, size, chunkSize int64, index int) ([]byte, error) {
	start := int64(index) * chunkSize
	if start >= size {
		return nil, fmt.Errorf("分片 %d 超出文件范围", index)
	}
	end := start + chunkSize
	if end > size {
		end = size
	}
	buf := make([]byte, end-start)
	if _, err := file.ReadAt(buf, start); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf, nil
}
