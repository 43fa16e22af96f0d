package upload

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/onetake/mediaupload/app/models"
	"github.com/onetake/mediaupload/app/pkg/event"
	"github.com/onetake/mediaupload/app/pkg/media"
	"github.com/onetake/mediaupload/app/pkg/utils"
	"go.uber.org/zap"
)

// PostCreator 接收处理后的媒体流，完成持久化并创建帖子
type PostCreator interface {
	CreatePost(ctx context.Context, ownerId string, req models.CreatePostReq, r io.Reader,
		fileName, contentType string) (*models.PostDto, error)
}

// Emitter 生命周期事件，不阻塞调用方
type Emitter interface {
	Emit(ev event.Event)
}

type nopEmitter struct{}

func (nopEmitter) Emit(event.Event) {}

// Manager 分片上传会话的 init/part/status/finalize
type Manager struct {
	registry  SessionRegistry
	parts     PartStore
	processor media.Processor
	posts     PostCreator
	events    Emitter
	logger    *zap.Logger
	chunkSize int64
	newId     func() string
	now       func() time.Time
}

// Option .
type Option func(m *Manager)

// WithEmitter .
func WithEmitter(e Emitter) Option {
	return func(m *Manager) { m.events = e }
}

// WithLogger .
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithChunkSize 只给测试使用，线上固定为 utils.ChunkSize
func WithChunkSize(n int64) Option {
	return func(m *Manager) { m.chunkSize = n }
}

// WithIdGenerator .
func WithIdGenerator(f func() string) Option {
	return func(m *Manager) { m.newId = f }
}

// WithClock .
func WithClock(f func() time.Time) Option {
	return func(m *Manager) { m.now = f }
}

// NewManager .
func NewManager(registry SessionRegistry, parts PartStore, processor media.Processor, posts PostCreator,
	opts ...Option) *Manager {
	m := &Manager{
		registry:  registry,
		parts:     parts,
		processor: processor,
		posts:     posts,
		events:    nopEmitter{},
		logger:    zap.NewNop(),
		chunkSize: utils.ChunkSize,
		newId:     NewUploadId,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.processor == nil {
		m.processor = media.Nop{}
	}
	return m
}

// ChunkSize .
func (m *Manager) ChunkSize() int64 {
	return m.chunkSize
}

func (m *Manager) logFailure(op, id, ownerId string, err error) {
	m.logger.Error("上传会话操作失败", zap.String("op", op), zap.String("uploadId", id),
		zap.String("ownerId", ownerId), zap.Error(err))
}

// authorize 每次请求都重新读取会话并校验归属
func (m *Manager) authorize(ctx context.Context, id, ownerId string) (*models.UploadSession, error) {
	if !ValidId(id) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	session, err := m.registry.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("读取上传会话: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if ownerId == "" || session.OwnerId != ownerId {
		return nil, ErrForbidden
	}
	return session, nil
}

// Init 生成 uploadId 并持久化会话，返回固定分片大小
func (m *Manager) Init(ctx context.Context, ownerId string, req models.InitUploadReq) (*models.InitUploadResp, error) {
	if ownerId == "" {
		return nil, fmt.Errorf("%w: ownerId", ErrInvalidRequest)
	}
	if req.FileName == "" || req.ContentType == "" || req.TotalSize < 1 {
		return nil, fmt.Errorf("%w: fileName/contentType/totalSize", ErrInvalidRequest)
	}
	session := &models.UploadSession{
		UploadId:    m.newId(),
		OwnerId:     ownerId,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		TotalSize:   req.TotalSize,
		DraftText:   req.ContentText,
		DraftTags:   req.Tags,
		CreatedAt:   m.now().UTC(),
	}
	id, err := m.registry.Create(ctx, session)
	if err != nil {
		m.logFailure("init", session.UploadId, ownerId, err)
		return nil, err
	}
	if err := m.parts.Prepare(ctx, id); err != nil {
		m.logFailure("init", id, ownerId, err)
		m.registry.Delete(ctx, id)
		return nil, err
	}
	m.events.Emit(event.Event{Name: event.UploadInit, UploadId: id, OwnerId: ownerId, Size: req.TotalSize})
	return &models.InitUploadResp{UploadId: id, ChunkSize: m.chunkSize}, nil
}

// UploadPart 覆盖写入，重复上传同一序号是幂等的
func (m *Manager) UploadPart(ctx context.Context, id, ownerId string, index int, r io.Reader) error {
	if err := m.CheckPart(ctx, id, ownerId, index); err != nil {
		return err
	}
	if err := m.parts.SavePart(ctx, id, index, r); err != nil {
		m.logFailure("upload_part", id, ownerId, err)
		return err
	}
	idx := index
	m.events.Emit(event.Event{Name: event.UploadPart, UploadId: id, OwnerId: ownerId, PartIndex: &idx})
	return nil
}

// CheckPart 校验会话归属和分片序号，不读取分片内容
func (m *Manager) CheckPart(ctx context.Context, id, ownerId string, index int) error {
	session, err := m.authorize(ctx, id, ownerId)
	if err != nil {
		return err
	}
	totalParts := session.TotalParts(m.chunkSize)
	if index < 0 || index >= totalParts {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidPartIndex, index, totalParts)
	}
	return nil
}

// Status 只读，供客户端断点续传
func (m *Manager) Status(ctx context.Context, id, ownerId string) (*models.UploadStatusResp, error) {
	session, err := m.authorize(ctx, id, ownerId)
	if err != nil {
		return nil, err
	}
	indices, err := m.parts.ListIndices(ctx, id)
	if err != nil {
		m.logFailure("status", id, ownerId, err)
		return nil, err
	}
	return &models.UploadStatusResp{
		UploadId:            id,
		TotalParts:          session.TotalParts(m.chunkSize),
		UploadedPartIndices: indices,
	}, nil
}

// Finalize 合并、后处理、创建帖子，成功后才清理会话。
// 不校验分片是否连续，缺失的序号会被直接跳过。
func (m *Manager) Finalize(ctx context.Context, id, ownerId string, req *models.FinalizeUploadReq) (*models.PostDto, error) {
	session, err := m.authorize(ctx, id, ownerId)
	if err != nil {
		return nil, err
	}
	if req == nil {
		req = &models.FinalizeUploadReq{}
	}

	post, err := m.publish(ctx, session, req)
	if err != nil {
		m.logFailure("finalize", id, ownerId, err)
		m.events.Emit(event.Event{Name: event.UploadFailed, UploadId: id, OwnerId: ownerId, Reason: "finalize_error"})
		return nil, err
	}

	m.registry.Delete(ctx, id)
	m.parts.DeleteSession(ctx, id)
	m.events.Emit(event.Event{Name: event.PublishSuccess, UploadId: id, OwnerId: ownerId, PostId: post.Id})
	return post, nil
}

func (m *Manager) publish(ctx context.Context, session *models.UploadSession,
	req *models.FinalizeUploadReq) (*models.PostDto, error) {
	merged, err := m.parts.MergeOrdered(ctx, session.UploadId)
	if err != nil {
		return nil, err
	}
	defer merged.Close()

	processed, err := m.processor.Process(ctx, merged, media.Request{
		FileName:    session.FileName,
		ContentType: session.ContentType,
		TrimStartMs: req.TrimStartMs,
		TrimEndMs:   req.TrimEndMs,
	})
	if err != nil {
		return nil, fmt.Errorf("媒体后处理: %w", err)
	}
	defer func() {
		if err := processed.Close(); err != nil {
			m.logger.Warn("释放后处理临时文件失败", zap.String("uploadId", session.UploadId), zap.Error(err))
		}
	}()

	postReq := ResolvePostRequest(session, req)
	return m.posts.CreatePost(ctx, session.OwnerId, postReq, processed, processed.FileName, processed.ContentType)
}
