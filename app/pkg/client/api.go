package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/onetake/mediaupload/app/models"
	"github.com/onetake/mediaupload/app/pkg/utils"
)

// HTTPError 非 2xx 响应，Message 取自错误信封
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// errorBody 服务端错误信封
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewHTTPClient 上传用的 http client，不设整体超时，由 ctx 控制
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second, // tcp连接超时时间
				KeepAlive: 60 * time.Second, // 保持长连接的时间
			}).DialContext,
			MaxIdleConns:          100,              // 最大空闲连接
			MaxIdleConnsPerHost:   100,              // 每个host保持的空闲连接数
			ExpectContinueTimeout: 30 * time.Second, // 等待服务第一响应的超时时间
			IdleConnTimeout:       60 * time.Second, // 空闲连接的超时时间
		},
	}
}

// API 上传接口的薄封装，每个方法对应一个路由
type API struct {
	BaseURL string
	UserId  string
	Client  *http.Client
}

// NewAPI .
func NewAPI(baseURL, userId string) *API {
	return &API{
		BaseURL: strings.TrimRight(baseURL, "/"),
		UserId:  userId,
		Client:  NewHTTPClient(),
	}
}

func (a *API) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	request, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return err
	}
	request.Header.Set(utils.HeaderUserID, a.UserId)
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	resp, err := a.Client.Do(request)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorBody
		msg := strings.TrimSpace(string(respBytes))
		if json.Unmarshal(respBytes, &e) == nil && e.Message != "" {
			msg = e.Message
		}
		return &HTTPError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil || len(respBytes) == 0 {
		return nil
	}
	return json.Unmarshal(respBytes, out)
}

func (a *API) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	return a.do(ctx, method, path, "application/json", body, out)
}

// Init .
func (a *API) Init(ctx context.Context, req models.InitUploadReq) (*models.InitUploadResp, error) {
	var resp models.InitUploadResp
	if err := a.doJSON(ctx, http.MethodPost, "/api/uploads/init", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadPart .
func (a *API) UploadPart(ctx context.Context, uploadId string, index int, data []byte) error {
	path := "/api/uploads/" + uploadId + "/parts/" + strconv.Itoa(index)
	return a.do(ctx, http.MethodPut, path, "application/octet-stream", bytes.NewReader(data), nil)
}

// Status .
func (a *API) Status(ctx context.Context, uploadId string) (*models.UploadStatusResp, error) {
	var resp models.UploadStatusResp
	if err := a.doJSON(ctx, http.MethodGet, "/api/uploads/"+uploadId+"/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Finalize .
func (a *API) Finalize(ctx context.Context, uploadId string, req models.FinalizeUploadReq) (*models.PostDto, error) {
	var resp models.PostDto
	if err := a.doJSON(ctx, http.MethodPost, "/api/uploads/"+uploadId+"/finalize", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
