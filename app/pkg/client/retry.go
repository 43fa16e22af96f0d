package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// MaxAttempts 单个分片最多尝试次数
const MaxAttempts = 3

// DefaultBackoff 第 n 次失败后等待 DefaultBackoff[n]
var DefaultBackoff = []time.Duration{300 * time.Millisecond, 900 * time.Millisecond, 1800 * time.Millisecond}

// ErrCancelled 调用方取消，和失败区分开
var ErrCancelled = errors.New("上传已取消")

// RejectedError 服务端拒绝且重试无意义（401、413）
type RejectedError struct {
	Status int
	Err    error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("请求被拒绝(%d): %v", e.Status, e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }

// RetriesExhaustedError 重试次数用尽
type RetriesExhaustedError struct {
	PartIndex int
	Attempts  int
	Err       error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("分片 %d 重试 %d 次后失败: %v", e.PartIndex, e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Err }

// SleepFunc 可被 ctx 打断的等待
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// nonRetryable 鉴权失败和分片过大，重试不会改变结果
func nonRetryable(err error) (*RejectedError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		if he.Status == http.StatusUnauthorized || he.Status == http.StatusRequestEntityTooLarge {
			return &RejectedError{Status: he.Status, Err: err}, true
		}
	}
	return nil, false
}

func backoffAt(backoff []time.Duration, attempt int) time.Duration {
	if len(backoff) == 0 {
		return 0
	}
	if attempt >= len(backoff) {
		return backoff[len(backoff)-1]
	}
	return backoff[attempt]
}

// retry 执行 fn 直到成功、遇到不可重试错误、次数用尽或 ctx 取消
func retry(ctx context.Context, attempts int, backoff []time.Duration, sleep SleepFunc, partIndex int,
	fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		err := fn(ctx)
		if ctx.Err() != nil {
			return ErrCancelled
		}
		if err == nil {
			return nil
		}
		if rejected, ok := nonRetryable(err); ok {
			return rejected
		}
		lastErr = err
		if attempt < attempts-1 {
			if sleep(ctx, backoffAt(backoff, attempt)) != nil {
				return ErrCancelled
			}
		}
	}
	return &RetriesExhaustedError{PartIndex: partIndex, Attempts: attempts, Err: lastErr}
}
