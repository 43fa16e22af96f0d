package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// 上传生命周期事件
const (
	UploadInit     = "upload_init"
	UploadPart     = "upload_part"
	PublishSuccess = "publish_success"
	UploadFailed   = "upload_failed"
)

// handlerTimeout 单个 handler 的最长执行时间，和请求生命周期无关
const handlerTimeout = 10 * time.Second

// Event 事件体
type Event struct {
	Name      string    `json:"name"`
	UploadId  string    `json:"uploadId"`
	OwnerId   string    `json:"ownerId"`
	PartIndex *int      `json:"partIndex,omitempty"`
	Size      int64     `json:"size,omitempty"`
	PostId    string    `json:"postId,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

// Handler 事件处理函数，错误只记录日志
type Handler func(ctx context.Context, ev Event) error

// EventsHandler 事件注册和分发，分发不阻塞调用方
type EventsHandler struct {
	mux        sync.RWMutex
	preProcess map[string]func(ev Event) bool
	handlers   map[string][]Handler
	logger     *zap.Logger
	wg         sync.WaitGroup
}

// NewEventsHandler .
func NewEventsHandler(logger *zap.Logger) *EventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{
		preProcess: map[string]func(ev Event) bool{},
		handlers:   map[string][]Handler{},
		logger:     logger,
	}
}

// RegHandler 注册handler，同一事件可注册多个
func (e *EventsHandler) RegHandler(t string, handler Handler) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.handlers[t] = append(e.handlers[t], handler)
}

// GetHandler 获取handler
func (e *EventsHandler) GetHandler(t string) []Handler {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return append([]Handler(nil), e.handlers[t]...)
}

// RegPreProcess 注册预处理，返回 false 时丢弃事件
func (e *EventsHandler) RegPreProcess(t string, preProcess func(ev Event) bool) {
	e.mux.Lock()
	defer e.mux.Unlock()
	if _, ok := e.preProcess[t]; !ok {
		e.preProcess[t] = preProcess
	}
}

// GetPreProcess 获取PreProcess
func (e *EventsHandler) GetPreProcess(t string) func(ev Event) bool {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return e.preProcess[t]
}

// Emit 每个 handler 在独立协程中执行，panic 和错误都不会传回调用方
func (e *EventsHandler) Emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if pre := e.GetPreProcess(ev.Name); pre != nil && !pre(ev) {
		return
	}
	for _, h := range e.GetHandler(ev.Name) {
		e.wg.Add(1)
		go e.run(h, ev)
	}
}

func (e *EventsHandler) run(h Handler, ev Event) {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("事件处理panic", zap.String("event", ev.Name),
				zap.String("uploadId", ev.UploadId), zap.String("panic", fmt.Sprint(r)))
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	if err := h(ctx, ev); err != nil {
		e.logger.Warn("事件处理失败", zap.String("event", ev.Name),
			zap.String("uploadId", ev.UploadId), zap.Error(err))
	}
}

// Wait 等待已分发的 handler 结束，用于退出和测试
func (e *EventsHandler) Wait() {
	e.wg.Wait()
}
