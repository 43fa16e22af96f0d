package v0

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/onetake/mediaupload/app/middleware"
	"github.com/onetake/mediaupload/app/models"
	"github.com/onetake/mediaupload/app/pkg/media"
	"github.com/onetake/mediaupload/app/pkg/upload"
	"github.com/onetake/mediaupload/app/pkg/web"
	"github.com/onetake/mediaupload/bootstrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPosts struct {
	body []byte
	req  models.CreatePostReq
}

func (s *stubPosts) CreatePost(_ context.Context, ownerId string, req models.CreatePostReq, r io.Reader,
	_, _ string) (*models.PostDto, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.body, s.req = b, req
	return &models.PostDto{Id: "42", AuthorId: ownerId, ContentText: req.ContentText, Tags: req.Tags,
		MediaUrl: "/api/media/1"}, nil
}

type testServer struct {
	engine *gin.Engine
	posts  *stubPosts
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := upload.NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)
	posts := &stubPosts{}
	manager := upload.NewManager(store, store, media.Nop{}, posts, upload.WithChunkSize(8))
	lgLogger := bootstrap.WrapLogger(zap.NewNop())
	h := NewUploadHandler(manager, lgLogger)

	engine := gin.New()
	g := engine.Group("/api/uploads", middleware.NewAuth(lgLogger).Handler())
	g.POST("/init", h.Init)
	g.PUT("/:uploadId/parts/:partIndex", h.UploadPart)
	g.GET("/:uploadId/status", h.Status)
	g.POST("/:uploadId/finalize", h.Finalize)
	return &testServer{engine: engine, posts: posts}
}

func (s *testServer) do(method, path, user string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if user != "" {
		req.Header.Set("user-id", user)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) init(t *testing.T, user string, size int64) string {
	t.Helper()
	body := `{"fileName":"clip.mp4","contentType":"video/mp4","totalSize":` + jsonInt(size) +
		`,"contentText":"draft","tags":["a"]}`
	w := s.do(http.MethodPost, "/api/uploads/init", user, strings.NewReader(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.InitUploadResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(8), resp.ChunkSize)
	return resp.UploadId
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) web.Response {
	t.Helper()
	var resp web.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestMissingUserIsUnauthorized(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/api/uploads/init", "", strings.NewReader(`{}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, http.StatusUnauthorized, decodeError(t, w).Code)
}

func TestInitValidation(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/api/uploads/init", "alice",
		strings.NewReader(`{"fileName":"clip.mp4","contentType":"video/mp4","totalSize":0}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, w.Body.String(), "totalSize")

	w = s.do(http.MethodPost, "/api/uploads/init", "alice", strings.NewReader(`not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadPartFlow(t *testing.T) {
	s := newTestServer(t)
	id := s.init(t, "alice", 12)

	w := s.do(http.MethodPut, "/api/uploads/"+id+"/parts/1", "alice", bytes.NewReader([]byte("WORL")))
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodPut, "/api/uploads/"+id+"/parts/0", "alice", bytes.NewReader([]byte("HELLO_")))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/uploads/"+id+"/status", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status models.UploadStatusResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, id, status.UploadId)
	assert.Equal(t, 2, status.TotalParts)
	assert.Equal(t, []int{0, 1}, status.UploadedPartIndices)
}

func TestUploadPartErrors(t *testing.T) {
	s := newTestServer(t)
	id := s.init(t, "alice", 12)

	cases := []struct {
		name string
		path string
		user string
		body []byte
		code int
	}{
		{"其他用户", "/api/uploads/" + id + "/parts/0", "bob", []byte("x"), http.StatusForbidden},
		{"会话不存在", "/api/uploads/ffffffffffffffffffffffffffffffff/parts/0", "alice", []byte("x"), http.StatusNotFound},
		{"非法id", "/api/uploads/not-a-hex-id/parts/0", "alice", []byte("x"), http.StatusNotFound},
		{"序号越界", "/api/uploads/" + id + "/parts/2", "alice", []byte("x"), http.StatusBadRequest},
		{"负序号", "/api/uploads/" + id + "/parts/-1", "alice", []byte("x"), http.StatusBadRequest},
		{"序号非数字", "/api/uploads/" + id + "/parts/abc", "alice", []byte("x"), http.StatusBadRequest},
		{"分片过大", "/api/uploads/" + id + "/parts/0", "alice", []byte("123456789"), http.StatusRequestEntityTooLarge},
		{"其他用户分片过大", "/api/uploads/" + id + "/parts/0", "bob", []byte("123456789"), http.StatusForbidden},
		{"会话不存在分片过大", "/api/uploads/ffffffffffffffffffffffffffffffff/parts/0", "alice", []byte("123456789"), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(http.MethodPut, tc.path, tc.user, bytes.NewReader(tc.body))
			assert.Equal(t, tc.code, w.Code, w.Body.String())
		})
	}
}

func TestUploadPartStreamingBodyTooLarge(t *testing.T) {
	s := newTestServer(t)
	id := s.init(t, "alice", 12)

	req := httptest.NewRequest(http.MethodPut, "/api/uploads/"+id+"/parts/0", io.MultiReader(strings.NewReader("12345"), strings.NewReader("6789")))
	req.ContentLength = -1
	req.Header.Set("user-id", "alice")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = s.do(http.MethodGet, "/api/uploads/"+id+"/status", "alice", nil)
	assert.Contains(t, w.Body.String(), `"uploadedPartIndices":[]`)
}

func TestFinalizeWithEmptyBody(t *testing.T) {
	s := newTestServer(t)
	id := s.init(t, "alice", 12)
	s.do(http.MethodPut, "/api/uploads/"+id+"/parts/0", "alice", strings.NewReader("HELLO_WO"))
	s.do(http.MethodPut, "/api/uploads/"+id+"/parts/1", "alice", strings.NewReader("RLD!"))

	w := s.do(http.MethodPost, "/api/uploads/"+id+"/finalize", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var post models.PostDto
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	assert.Equal(t, "42", post.Id)
	assert.Equal(t, "alice", post.AuthorId)
	assert.Equal(t, "draft", post.ContentText)
	assert.Equal(t, "HELLO_WORLD!", string(s.posts.body))

	w = s.do(http.MethodGet, "/api/uploads/"+id+"/status", "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFinalizeOverridesAndValidation(t *testing.T) {
	s := newTestServer(t)
	id := s.init(t, "alice", 4)
	s.do(http.MethodPut, "/api/uploads/"+id+"/parts/0", "alice", strings.NewReader("DATA"))

	w := s.do(http.MethodPost, "/api/uploads/"+id+"/finalize", "alice", strings.NewReader(`{"visibility":7}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/uploads/"+id+"/finalize", "alice",
		strings.NewReader(`{"contentText":"final","tags":["x","y"],"visibility":2}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "final", s.posts.req.ContentText)
	assert.Equal(t, []string{"x", "y"}, s.posts.req.Tags)
	assert.Equal(t, models.VisibilityPrivate, s.posts.req.Visibility)
}

func TestFinalizeWithoutPartsIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	id := s.init(t, "alice", 12)

	w := s.do(http.MethodPost, "/api/uploads/"+id+"/finalize", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, upload.ErrNoPartsFound.Error(), decodeError(t, w).Message)

	w = s.do(http.MethodGet, "/api/uploads/"+id+"/status", "alice", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
