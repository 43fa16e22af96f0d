package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage 本地存储
type LocalStorage struct {
	RootPath string
}

// NewLocalStorage .
func NewLocalStorage(rootPath string) *LocalStorage {
	return &LocalStorage{
		RootPath: rootPath,
	}
}

// MakeBucket .
func (s *LocalStorage) MakeBucket(_ context.Context, bucket string) error {
	return os.MkdirAll(filepath.Join(s.RootPath, bucket), 0o755)
}

type sectionReadCloser struct {
	io.Reader
	f *os.File
}

func (s *sectionReadCloser) Close() error {
	return s.f.Close()
}

// GetObject .
func (s *LocalStorage) GetObject(_ context.Context, bucket, object string, offset, length int64) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.RootPath, bucket, object))
	if err != nil {
		return nil, err
	}
	return &sectionReadCloser{Reader: io.NewSectionReader(f, offset, length), f: f}, nil
}

// PutObject 先写临时文件再 rename，读者不会看到半个对象
func (s *LocalStorage) PutObject(_ context.Context, bucket, object string, r io.Reader, _ int64, _ string) error {
	dir := filepath.Join(s.RootPath, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+object+".*.tmp")
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
	if err := os.Rename(tmpName, filepath.Join(dir, object)); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// DeleteObject .
func (s *LocalStorage) DeleteObject(_ context.Context, bucket, object string) error {
	err := os.Remove(filepath.Join(s.RootPath, bucket, object))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
