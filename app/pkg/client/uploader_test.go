package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onetake/mediaupload/api"
	v0 "github.com/onetake/mediaupload/api/v0"
	"github.com/onetake/mediaupload/app/models"
	"github.com/onetake/mediaupload/app/pkg/media"
	"github.com/onetake/mediaupload/app/pkg/upload"
	"github.com/onetake/mediaupload/bootstrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testChunk = 8

type stubPosts struct {
	mu    sync.Mutex
	calls int
	body  []byte
}

func (s *stubPosts) CreatePost(_ context.Context, ownerId string, req models.CreatePostReq, r io.Reader,
	_, _ string) (*models.PostDto, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.body = b
	return &models.PostDto{Id: "7", AuthorId: ownerId, ContentText: req.ContentText}, nil
}

// fixture 真实的上传路由，外面包一层按分片序号注入失败
type fixture struct {
	srv   *httptest.Server
	posts *stubPosts

	mu     sync.Mutex
	puts   map[string]int
	inject func(part string, attempt int) int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := upload.NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)
	f := &fixture{posts: &stubPosts{}, puts: map[string]int{}}
	manager := upload.NewManager(store, store, media.Nop{}, f.posts, upload.WithChunkSize(testChunk))
	lgLogger := bootstrap.WrapLogger(zap.NewNop())
	engine := gin.New()
	api.SetUploadRoutes(engine.Group("/api"), lgLogger, v0.NewUploadHandler(manager, lgLogger))

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			part := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
			f.mu.Lock()
			f.puts[part]++
			attempt := f.puts[part]
			inject := f.inject
			f.mu.Unlock()
			if inject != nil {
				if code := inject(part, attempt); code != 0 {
					_, _ = io.Copy(io.Discard, r.Body)
					w.WriteHeader(code)
					_, _ = w.Write([]byte(`{"code":` + strconv.Itoa(code) + `,"message":"injected"}`))
					return
				}
			}
		}
		engine.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) putCount(part string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts[part]
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func newTestUploader(f *fixture, rec *sleepRecorder, opts ...Option) *Uploader {
	opts = append([]Option{WithSleep(rec.sleep), WithChunkSize(testChunk)}, opts...)
	return NewUploader(NewAPI(f.srv.URL, "alice"), opts...)
}

var payload = []byte("HELLO_WORLD!")

func testMeta() Meta {
	text := "hi"
	return Meta{FileName: "clip.mp4", ContentType: "video/mp4", Text: &text}
}

func TestUploadHappyPath(t *testing.T) {
	f := newFixture(t)
	rec := &sleepRecorder{}
	var progress []Progress
	u := newTestUploader(f, rec, WithProgress(func(p Progress) { progress = append(progress, p) }))
	assert.Equal(t, StatusIdle, u.Status())

	post, err := u.Upload(context.Background(), bytes.NewReader(payload), int64(len(payload)), testMeta())
	require.NoError(t, err)
	assert.Equal(t, "7", post.Id)
	assert.Equal(t, "hi", post.ContentText)
	assert.Equal(t, StatusDone, u.Status())
	assert.Equal(t, payload, f.posts.body)
	assert.Empty(t, rec.delays)
	assert.Equal(t, []Progress{{0, 2, 0}, {1, 2, 50}, {2, 2, 100}}, progress)
	assert.Len(t, u.UploadId(), 32)
}

func TestUploadRetriesTransientFailures(t *testing.T) {
	f := newFixture(t)
	f.inject = func(part string, attempt int) int {
		if part == "0" && attempt <= 2 {
			return http.StatusServiceUnavailable
		}
		return 0
	}
	rec := &sleepRecorder{}
	u := newTestUploader(f, rec)

	_, err := u.Upload(context.Background(), bytes.NewReader(payload), int64(len(payload)), testMeta())
	require.NoError(t, err)
	assert.Equal(t, 3, f.putCount("0"))
	assert.Equal(t, 1, f.putCount("1"))
	assert.Equal(t, []time.Duration{300 * time.Millisecond, 900 * time.Millisecond}, rec.delays)
	assert.Equal(t, payload, f.posts.body)
}

func TestUploadRejectedWithoutRetry(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusRequestEntityTooLarge} {
		f := newFixture(t)
		f.inject = func(string, int) int { return code }
		rec := &sleepRecorder{}
		u := newTestUploader(f, rec)

		_, err := u.Upload(context.Background(), bytes.NewReader(payload), int64(len(payload)), testMeta())
		var rejected *RejectedError
		require.True(t, errors.As(err, &rejected), "%v", err)
		assert.Equal(t, code, rejected.Status)
		assert.Equal(t, 1, f.putCount("0"))
		assert.Empty(t, rec.delays)
		assert.Equal(t, StatusError, u.Status())
		assert.Equal(t, 0, f.posts.calls)
	}
}

func TestUploadRetriesExhaustedThenResume(t *testing.T) {
	f := newFixture(t)
	f.inject = func(part string, _ int) int {
		if part == "1" {
			return http.StatusBadGateway
		}
		return 0
	}
	rec := &sleepRecorder{}
	u := newTestUploader(f, rec)

	_, err := u.Upload(context.Background(), bytes.NewReader(payload), int64(len(payload)), testMeta())
	var exhausted *RetriesExhaustedError
	require.True(t, errors.As(err, &exhausted), "%v", err)
	assert.Equal(t, 1, exhausted.PartIndex)
	assert.Equal(t, MaxAttempts, exhausted.Attempts)
	assert.Equal(t, StatusError, u.Status())
	assert.Equal(t, 3, f.putCount("1"))
	assert.Equal(t, []time.Duration{300 * time.Millisecond, 900 * time.Millisecond}, rec.delays)

	f.mu.Lock()
	f.inject = nil
	f.mu.Unlock()
	post, err := u.Resume(context.Background(), u.UploadId(), bytes.NewReader(payload), int64(len(payload)), testMeta())
	require.NoError(t, err)
	assert.Equal(t, "7", post.Id)
	assert.Equal(t, 1, f.putCount("0"))
	assert.Equal(t, 4, f.putCount("1"))
	assert.Equal(t, payload, f.posts.body)
	assert.Equal(t, StatusDone, u.Status())
}

func TestUploadCancelledBetweenParts(t *testing.T) {
	f := newFixture(t)
	rec := &sleepRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	u := newTestUploader(f, rec, WithProgress(func(p Progress) {
		if p.UploadedParts == 1 {
			cancel()
		}
	}))

	_, err := u.Upload(ctx, bytes.NewReader(payload), int64(len(payload)), testMeta())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, StatusCancelled, u.Status())
	assert.Equal(t, 0, f.putCount("1"))
	assert.Equal(t, 0, f.posts.calls)
}

func TestUploadCancelledDuringBackoff(t *testing.T) {
	f := newFixture(t)
	f.inject = func(string, int) int { return http.StatusServiceUnavailable }
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	u := newTestUploader(f, &sleepRecorder{}, WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepContext(ctx, d)
	}))

	_, err := u.Upload(ctx, bytes.NewReader(payload), int64(len(payload)), testMeta())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, StatusCancelled, u.Status())
	assert.Equal(t, 1, f.putCount("0"))
}

func TestUploadFileTooLarge(t *testing.T) {
	u := NewUploader(NewAPI("http://127.0.0.1:0", "alice"))
	_, err := u.Upload(context.Background(), bytes.NewReader(nil), MaxFileSize+1, testMeta())
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Equal(t, StatusError, u.Status())
}

func TestInitUnauthorizedIsRejected(t *testing.T) {
	f := newFixture(t)
	u := NewUploader(NewAPI(f.srv.URL, ""), WithSleep((&sleepRecorder{}).sleep))
	_, err := u.Upload(context.Background(), bytes.NewReader(payload), int64(len(payload)), testMeta())
	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected), "%v", err)
	assert.Equal(t, http.StatusUnauthorized, rejected.Status)
	assert.Equal(t, StatusError, u.Status())
}

func TestBackoffAt(t *testing.T) {
	assert.Equal(t, 300*time.Millisecond, backoffAt(DefaultBackoff, 0))
	assert.Equal(t, 1800*time.Millisecond, backoffAt(DefaultBackoff, 2))
	assert.Equal(t, 1800*time.Millisecond, backoffAt(DefaultBackoff, 9))
	assert.Equal(t, time.Duration(0), backoffAt(nil, 1))
}
