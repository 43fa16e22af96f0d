package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	trimmedName        = "video.mp4"
	trimmedContentType = "video/mp4"
	stderrTail         = 2048
)

// FfmpegProcessor 调用 ffmpeg 裁剪视频，ffmpeg 不可用或失败时返回未裁剪的原文件
type FfmpegProcessor struct {
	path    string
	tempDir string
	logger  *zap.Logger
}

// NewFfmpegProcessor tempDir 为空时使用系统临时目录
func NewFfmpegProcessor(path, tempDir string, logger *zap.Logger) *FfmpegProcessor {
	if path == "" {
		path = "ffmpeg"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FfmpegProcessor{path: path, tempDir: tempDir, logger: logger}
}

func formatSeconds(ms int) string {
	return fmt.Sprintf("%.3f", float64(ms)/1000)
}

// Process .
func (f *FfmpegProcessor) Process(ctx context.Context, r io.Reader, req Request) (*Result, error) {
	if !ShouldTrim(req.TrimStartMs, req.TrimEndMs) {
		return PassThrough(r, req), nil
	}

	in, err := os.CreateTemp(f.tempDir, "trim-in-*"+filepath.Ext(req.FileName))
	if err != nil {
		f.logger.Warn("创建裁剪临时文件失败，跳过裁剪", zap.Error(err))
		return PassThrough(r, req), nil
	}
	inPath := in.Name()
	// 合并流读取失败属于存储错误，需要向上返回
	if _, err := io.Copy(in, r); err != nil {
		_ = in.Close()
		_ = os.Remove(inPath)
		return nil, err
	}
	if err := in.Close(); err != nil {
		_ = os.Remove(inPath)
		return nil, err
	}

	outPath := strings.TrimSuffix(inPath, filepath.Ext(inPath)) + "-out.mp4"
	if err := f.run(ctx, inPath, outPath, *req.TrimStartMs, *req.TrimEndMs); err != nil {
		f.logger.Warn("视频裁剪失败，使用原文件", zap.String("file", req.FileName),
			zap.Int("trimStartMs", *req.TrimStartMs), zap.Int("trimEndMs", *req.TrimEndMs), zap.Error(err))
		_ = os.Remove(outPath)
		return openResult(inPath, req.FileName, req.ContentType, inPath)
	}
	return openResult(outPath, trimmedName, trimmedContentType, inPath, outPath)
}

func (f *FfmpegProcessor) run(ctx context.Context, inPath, outPath string, startMs, endMs int) error {
	cmd := exec.CommandContext(ctx, f.path,
		"-y",
		"-i", inPath,
		"-ss", formatSeconds(startMs),
		"-to", formatSeconds(endMs),
		"-c:v", "libx264",
		"-c:a", "aac",
		outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if len(msg) > stderrTail {
			msg = msg[len(msg)-stderrTail:]
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(msg))
	}
	fi, err := os.Stat(outPath)
	if err != nil {
		return fmt.Errorf("ffmpeg output: %w", err)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("ffmpeg output is empty")
	}
	return nil
}

// openResult 打开 path 作为输出，owned 中的文件都归 Result 管理
func openResult(path, fileName, contentType string, owned ...string) (*Result, error) {
	fh, err := os.Open(path)
	if err != nil {
		for _, name := range owned {
			_ = os.Remove(name)
		}
		return nil, err
	}
	return &Result{
		FileName:    fileName,
		ContentType: contentType,
		r:           fh,
		closers:     []io.Closer{fh},
		tempFiles:   owned,
	}, nil
}
