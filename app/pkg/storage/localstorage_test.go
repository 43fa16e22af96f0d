package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoragePutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage(t.TempDir())
	require.NoError(t, s.MakeBucket(ctx, "video"))

	require.NoError(t, s.PutObject(ctx, "video", "1.mp4", strings.NewReader("0123456789"), -1, "video/mp4"))

	rc, err := s.GetObject(ctx, "video", "1.mp4", 2, 5)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "23456", string(b))

	entries, err := os.ReadDir(filepath.Join(s.RootPath, "video"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, s.DeleteObject(ctx, "video", "1.mp4"))
	require.NoError(t, s.DeleteObject(ctx, "video", "1.mp4"))
	_, err = s.GetObject(ctx, "video", "1.mp4", 0, 1)
	assert.Error(t, err)
}
