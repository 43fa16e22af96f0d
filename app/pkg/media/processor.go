package media

import (
	"context"
	"io"
	"os"
	"sync"
)

// Request 后处理参数，裁剪区间单位毫秒
type Request struct {
	FileName    string
	ContentType string
	TrimStartMs *int
	TrimEndMs   *int
}

// Processor 媒体后处理，可选能力，失败时退化为原样输出
type Processor interface {
	Process(ctx context.Context, r io.Reader, req Request) (*Result, error)
}

// Result 处理结果，持有的临时文件在 Close 时删除，Close 可重复调用
type Result struct {
	FileName    string
	ContentType string

	r         io.Reader
	closers   []io.Closer
	tempFiles []string
	once      sync.Once
	closeErr  error
}

// Read .
func (p *Result) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

// Close 先关闭句柄再删除临时文件
func (p *Result) Close() error {
	p.once.Do(func() {
		for _, c := range p.closers {
			if err := c.Close(); err != nil && p.closeErr == nil {
				p.closeErr = err
			}
		}
		for _, name := range p.tempFiles {
			if err := os.Remove(name); err != nil && !os.IsNotExist(err) && p.closeErr == nil {
				p.closeErr = err
			}
		}
	})
	return p.closeErr
}

// PassThrough 原样输出，不拥有输入流
func PassThrough(r io.Reader, req Request) *Result {
	return &Result{FileName: req.FileName, ContentType: req.ContentType, r: r}
}

// ShouldTrim 起止都给出、起点不小于0且终点大于起点时才裁剪
func ShouldTrim(startMs, endMs *int) bool {
	return startMs != nil && endMs != nil && *startMs >= 0 && *endMs > *startMs
}

// Nop 不做任何处理的 Processor
type Nop struct{}

// Process .
func (Nop) Process(_ context.Context, r io.Reader, req Request) (*Result, error) {
	return PassThrough(r, req), nil
}
