package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/onetake/mediaupload/app/models"
	"github.com/onetake/mediaupload/app/pkg/utils"
	"go.uber.org/zap"
)

/*
本地磁盘会话存储：basePath/<uploadId>/meta.json + part_<i>
*/

// LocalStore 同时实现 SessionRegistry 和 PartStore，两者共用一个会话目录
type LocalStore struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalStore .
func NewLocalStore(basePath string, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalStore{basePath: basePath, logger: logger}, nil
}

func (s *LocalStore) sessionDir(id string) string {
	return filepath.Join(s.basePath, id)
}

// writeAtomic 同目录临时文件写完再 rename
func writeAtomic(dir, name string, r io.Reader) error {
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// Create mkdir 本身是原子的，目录已存在即视为 id 冲突
func (s *LocalStore) Create(_ context.Context, session *models.UploadSession) (string, error) {
	if !ValidId(session.UploadId) {
		return "", fmt.Errorf("%w: uploadId %q", ErrInvalidRequest, session.UploadId)
	}
	dir := s.sessionDir(session.UploadId)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("%w: %s", ErrAlreadyExists, session.UploadId)
		}
		return "", err
	}
	b, err := json.Marshal(session)
	if err != nil {
		return "", err
	}
	if err := writeAtomic(dir, utils.SessionMetaFile, bytes.NewReader(b)); err != nil {
		_ = os.RemoveAll(dir)
		return "", err
	}
	return session.UploadId, nil
}

// Get .
func (s *LocalStore) Get(_ context.Context, id string) (*models.UploadSession, error) {
	if !ValidId(id) {
		return nil, nil
	}
	b, err := os.ReadFile(filepath.Join(s.sessionDir(id), utils.SessionMetaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var session models.UploadSession
	if err := json.Unmarshal(b, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete .
func (s *LocalStore) Delete(ctx context.Context, id string) {
	s.DeleteSession(ctx, id)
}

// Prepare .
func (s *LocalStore) Prepare(_ context.Context, id string) error {
	if !ValidId(id) {
		return fmt.Errorf("%w: uploadId %q", ErrInvalidRequest, id)
	}
	return os.MkdirAll(s.sessionDir(id), 0o755)
}

// SavePart .
func (s *LocalStore) SavePart(_ context.Context, id string, index int, r io.Reader) error {
	if !ValidId(id) {
		return ErrSessionNotFound
	}
	if index < 0 {
		return ErrInvalidPartIndex
	}
	dir := s.sessionDir(id)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err := writeAtomic(dir, partName(index), r); err != nil {
		// 写入期间会话被清理
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return err
	}
	return nil
}

// ListIndices .
func (s *LocalStore) ListIndices(_ context.Context, id string) ([]int, error) {
	if !ValidId(id) {
		return []int{}, nil
	}
	entries, err := os.ReadDir(s.sessionDir(id))
	if err != nil {
		if os.IsNotExist(err) {
			return []int{}, nil
		}
		return nil, err
	}
	set := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if i, ok := parsePartName(e.Name()); ok {
			set[i] = struct{}{}
		}
	}
	return sortedIndices(set), nil
}

// MergeOrdered .
func (s *LocalStore) MergeOrdered(ctx context.Context, id string) (io.ReadCloser, error) {
	indices, err := s.ListIndices(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPartsFound, id)
	}
	dir := s.sessionDir(id)
	return newOrderedReader(ctx, indices, func(_ context.Context, index int) (io.ReadCloser, error) {
		return os.Open(filepath.Join(dir, partName(index)))
	}), nil
}

// DeleteSession .
func (s *LocalStore) DeleteSession(_ context.Context, id string) {
	if !ValidId(id) {
		return
	}
	if err := os.RemoveAll(s.sessionDir(id)); err != nil {
		s.logger.Warn("删除上传会话目录失败", zap.String("uploadId", id), zap.Error(err))
	}
}
