package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/onetake/mediaupload/app/models"
	"github.com/onetake/mediaupload/app/pkg/event"
	"github.com/onetake/mediaupload/app/pkg/media"
	"github.com/onetake/mediaupload/app/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePosts struct {
	mu          sync.Mutex
	calls       int
	body        []byte
	fileName    string
	contentType string
	req         models.CreatePostReq
	err         error
}

func (f *fakePosts) CreatePost(_ context.Context, ownerId string, req models.CreatePostReq, r io.Reader,
	fileName, contentType string) (*models.PostDto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.body, f.fileName, f.contentType, f.req = b, fileName, contentType, req
	if f.err != nil {
		return nil, f.err
	}
	return &models.PostDto{Id: "1", AuthorId: ownerId, ContentText: req.ContentText, Tags: req.Tags,
		Visibility: req.Visibility}, nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recordingEmitter) Emit(ev event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingEmitter) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ret []string
	for _, ev := range r.events {
		ret = append(ret, ev.Name)
	}
	return ret
}

// recordingProcessor 记录调用并原样返回合并流
type recordingProcessor struct{ called bool }

func (f *recordingProcessor) Process(_ context.Context, r io.Reader, req media.Request) (*media.Result, error) {
	f.called = true
	return media.PassThrough(r, req), nil
}

type harness struct {
	store  *LocalStore
	posts  *fakePosts
	events *recordingEmitter
	m      *Manager
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	store := newTestStore(t)
	h := &harness{store: store, posts: &fakePosts{}, events: &recordingEmitter{}}
	opts = append([]Option{WithEmitter(h.events)}, opts...)
	h.m = NewManager(store, store, media.Nop{}, h.posts, opts...)
	return h
}

func (h *harness) init(t *testing.T, owner string, size int64) string {
	t.Helper()
	resp, err := h.m.Init(context.Background(), owner, models.InitUploadReq{
		FileName: "clip.mp4", ContentType: "video/mp4", TotalSize: size,
		ContentText: strPtr("draft"), Tags: []string{"d"},
	})
	require.NoError(t, err)
	return resp.UploadId
}

func TestInitReturnsChunkSize(t *testing.T) {
	h := newHarness(t)
	resp, err := h.m.Init(context.Background(), "alice", models.InitUploadReq{
		FileName: "a.mp4", ContentType: "video/mp4", TotalSize: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, utils.ChunkSize, resp.ChunkSize)
	assert.True(t, ValidId(resp.UploadId))

	session, err := h.store.Get(context.Background(), resp.UploadId)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "alice", session.OwnerId)
	assert.Equal(t, []string{event.UploadInit}, h.events.names())
}

func TestInitRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	_, err := h.m.Init(context.Background(), "", models.InitUploadReq{FileName: "a", ContentType: "b", TotalSize: 1})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = h.m.Init(context.Background(), "alice", models.InitUploadReq{FileName: "a", ContentType: "b", TotalSize: 0})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestInitDuplicateId(t *testing.T) {
	h := newHarness(t, WithIdGenerator(func() string { return testId }))
	h.init(t, "alice", 10)
	_, err := h.m.Init(context.Background(), "alice", models.InitUploadReq{FileName: "a", ContentType: "b", TotalSize: 1})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestOwnershipIsolation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.init(t, "alice", 10)
	require.NoError(t, h.m.UploadPart(ctx, id, "alice", 0, strings.NewReader("0123456789")))

	err := h.m.UploadPart(ctx, id, "bob", 0, strings.NewReader("evil"))
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = h.m.Status(ctx, id, "bob")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = h.m.Finalize(ctx, id, "bob", nil)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.Zero(t, h.posts.calls)
	status, err := h.m.Status(ctx, id, "alice")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, status.UploadedPartIndices)
}

func TestUnknownSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, id := range []string{testId, "not-an-id"} {
		assert.ErrorIs(t, h.m.UploadPart(ctx, id, "alice", 0, strings.NewReader("x")), ErrSessionNotFound)
		_, err := h.m.Status(ctx, id, "alice")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		_, err = h.m.Finalize(ctx, id, "alice", nil)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	}
}

func TestPartIndexBounds(t *testing.T) {
	h := newHarness(t, WithChunkSize(4))
	ctx := context.Background()
	id := h.init(t, "alice", 9) // 3 parts

	assert.ErrorIs(t, h.m.UploadPart(ctx, id, "alice", -1, strings.NewReader("x")), ErrInvalidPartIndex)
	assert.ErrorIs(t, h.m.UploadPart(ctx, id, "alice", 3, strings.NewReader("x")), ErrInvalidPartIndex)
	assert.NoError(t, h.m.UploadPart(ctx, id, "alice", 2, strings.NewReader("x")))
}

func TestFinalizeEmptySession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.init(t, "alice", 10)

	_, err := h.m.Finalize(ctx, id, "alice", nil)
	assert.ErrorIs(t, err, ErrNoPartsFound)
	assert.Zero(t, h.posts.calls)

	session, err := h.store.Get(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, session)
	assert.Contains(t, h.events.names(), event.UploadFailed)
}

func TestFinalizePassThroughAndCleanup(t *testing.T) {
	h := newHarness(t, WithChunkSize(4))
	ctx := context.Background()
	id := h.init(t, "alice", 10)
	for i, p := range []string{"aaaa", "bbbb", "cc"} {
		require.NoError(t, h.m.UploadPart(ctx, id, "alice", i, strings.NewReader(p)))
	}

	post, err := h.m.Finalize(ctx, id, "alice", &models.FinalizeUploadReq{Tags: []string{"final"}})
	require.NoError(t, err)
	assert.Equal(t, "alice", post.AuthorId)
	assert.Equal(t, "aaaabbbbcc", string(h.posts.body))
	assert.Equal(t, "clip.mp4", h.posts.fileName)
	assert.Equal(t, "video/mp4", h.posts.contentType)
	assert.Equal(t, models.CreatePostReq{ContentText: "draft", Tags: []string{"final"}, Visibility: models.VisibilityPublic},
		h.posts.req)

	session, err := h.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, session)
	indices, err := h.store.ListIndices(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, indices)
	assert.Equal(t, event.PublishSuccess, h.events.names()[len(h.events.names())-1])
}

func TestFinalizeRunsProcessorOnMergedStream(t *testing.T) {
	store := newTestStore(t)
	posts := &fakePosts{}
	proc := &recordingProcessor{}
	m := NewManager(store, store, proc, posts, WithChunkSize(4))
	ctx := context.Background()

	resp, err := m.Init(ctx, "alice", models.InitUploadReq{FileName: "clip.mp4", ContentType: "video/mp4", TotalSize: 6})
	require.NoError(t, err)
	require.NoError(t, m.UploadPart(ctx, resp.UploadId, "alice", 0, strings.NewReader("abcd")))
	require.NoError(t, m.UploadPart(ctx, resp.UploadId, "alice", 1, strings.NewReader("ef")))

	start, end := 0, 1000
	_, err = m.Finalize(ctx, resp.UploadId, "alice", &models.FinalizeUploadReq{TrimStartMs: &start, TrimEndMs: &end})
	require.NoError(t, err)
	assert.True(t, proc.called)
	assert.Equal(t, "abcdef", string(posts.body))
	assert.Equal(t, "clip.mp4", posts.fileName)
}

func TestFinalizeWithMissingBinaryDegrades(t *testing.T) {
	store := newTestStore(t)
	posts := &fakePosts{}
	proc := media.NewFfmpegProcessor("/nonexistent/ffmpeg", t.TempDir(), nil)
	m := NewManager(store, store, proc, posts, WithChunkSize(4))
	ctx := context.Background()

	resp, err := m.Init(ctx, "alice", models.InitUploadReq{FileName: "clip.mp4", ContentType: "video/mp4", TotalSize: 4})
	require.NoError(t, err)
	require.NoError(t, m.UploadPart(ctx, resp.UploadId, "alice", 0, strings.NewReader("data")))

	start, end := 100, 900
	_, err = m.Finalize(ctx, resp.UploadId, "alice", &models.FinalizeUploadReq{TrimStartMs: &start, TrimEndMs: &end})
	require.NoError(t, err)
	assert.Equal(t, "data", string(posts.body))
	assert.Equal(t, "video/mp4", posts.contentType)
}

func TestFinalizePostFailureKeepsSession(t *testing.T) {
	h := newHarness(t, WithChunkSize(4))
	ctx := context.Background()
	id := h.init(t, "alice", 4)
	require.NoError(t, h.m.UploadPart(ctx, id, "alice", 0, strings.NewReader("data")))

	h.posts.err = errors.New("db down")
	_, err := h.m.Finalize(ctx, id, "alice", nil)
	require.Error(t, err)

	status, err := h.m.Status(ctx, id, "alice")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, status.UploadedPartIndices)

	// 重试时重新读取分片
	h.posts.err = nil
	_, err = h.m.Finalize(ctx, id, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, "data", string(h.posts.body))
	assert.Equal(t, 2, h.posts.calls)
}

// 缺失的分片在合并时被跳过，不报错
func TestFinalizeSkipsMissingParts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	const mib = 1024 * 1024
	id := h.init(t, "alice", 12*mib)

	part0 := bytes.Repeat([]byte{'a'}, 5*mib)
	part2 := bytes.Repeat([]byte{'c'}, 2*mib)
	require.NoError(t, h.m.UploadPart(ctx, id, "alice", 0, bytes.NewReader(part0)))
	require.NoError(t, h.m.UploadPart(ctx, id, "alice", 2, bytes.NewReader(part2)))

	status, err := h.m.Status(ctx, id, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalParts)
	assert.Equal(t, []int{0, 2}, status.UploadedPartIndices)

	_, err = h.m.Finalize(ctx, id, "alice", nil)
	require.NoError(t, err)
	assert.Len(t, h.posts.body, 7*mib)
	assert.Equal(t, append(part0, part2...), h.posts.body)
}

func TestConcurrentPartUploads(t *testing.T) {
	h := newHarness(t, WithChunkSize(3))
	ctx := context.Background()
	id := h.init(t, "alice", 30)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, h.m.UploadPart(ctx, id, "alice", i, strings.NewReader(strings.Repeat(string(rune('a'+i)), 3))))
		}(i)
	}
	wg.Wait()

	status, err := h.m.Status(ctx, id, "alice")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, status.UploadedPartIndices)
	assert.Equal(t, "aaabbbcccdddeeefffggghhhiiijjj", string(readMerged(t, h.store, id)))
}

func TestCheckPart(t *testing.T) {
	h := newHarness(t, WithChunkSize(4))
	ctx := context.Background()
	id := h.init(t, "alice", 6)

	assert.NoError(t, h.m.CheckPart(ctx, id, "alice", 1))
	assert.ErrorIs(t, h.m.CheckPart(ctx, id, "bob", 0), ErrForbidden)
	assert.ErrorIs(t, h.m.CheckPart(ctx, id, "alice", 2), ErrInvalidPartIndex)
	assert.ErrorIs(t, h.m.CheckPart(ctx, "ffffffffffffffffffffffffffffffff", "alice", 0), ErrSessionNotFound)

	indices, err := h.store.ListIndices(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, indices)
}
