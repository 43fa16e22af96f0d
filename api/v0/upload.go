package v0

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/onetake/mediaupload/app/middleware"
	"github.com/onetake/mediaupload/app/models"
	"github.com/onetake/mediaupload/app/pkg/upload"
	"github.com/onetake/mediaupload/app/pkg/web"
	"github.com/onetake/mediaupload/bootstrap"
	"go.uber.org/zap"
)

/*
分片上传
*/

var errBodyTooLarge = errors.New("分片超过最大长度")

// capReader 读到超过 max 字节时返回 errBodyTooLarge
type capReader struct {
	r   io.Reader
	max int64
	n   int64
}

func (c *capReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.n > c.max {
		return n, errBodyTooLarge
	}
	return n, err
}

// UploadHandler .
type UploadHandler struct {
	manager  *upload.Manager
	lgLogger *bootstrap.LangGoLogger
}

// NewUploadHandler .
func NewUploadHandler(manager *upload.Manager, lgLogger *bootstrap.LangGoLogger) *UploadHandler {
	return &UploadHandler{manager: manager, lgLogger: lgLogger}
}

func (h *UploadHandler) fail(c *gin.Context, op string, err error) {
	if errors.Is(err, errBodyTooLarge) {
		web.TooLarge(c, err.Error())
		return
	}
	code := upload.HTTPStatus(err)
	if code >= http.StatusInternalServerError {
		h.lgLogger.WithContext(c).Error("上传接口异常", zap.String("op", op),
			zap.String("uploadId", c.Param("uploadId")), zap.Error(err))
		web.InternalError(c, "内部异常")
		return
	}
	web.Error(c, code, err.Error())
}

// Init    初始化上传会话
//
//	@Summary		初始化上传会话
//	@Description	声明文件名、类型和大小，返回 uploadId 和分片大小
//	@Tags			上传
//	@Accept			application/json
//	@Produce		application/json
//	@Param			user-id	header		string					true	"用户ID"
//	@Param			RequestBody	body	models.InitUploadReq	true	"初始化参数"
//	@Success		200		{object}	models.InitUploadResp
//	@Failure		400		{object}	web.Response
//	@Failure		401		{object}	web.Response
//	@Router			/api/uploads/init [post]
func (h *UploadHandler) Init(c *gin.Context) {
	var req models.InitUploadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		web.ParamsError(c, err)
		return
	}
	resp, err := h.manager.Init(c.Request.Context(), middleware.UserId(c), req)
	if err != nil {
		h.fail(c, "init", err)
		return
	}
	web.Raw(c, http.StatusOK, resp)
}

// UploadPart    上传分片
//
//	@Summary		上传分片
//	@Description	请求体为分片原始字节，同一序号重复上传会覆盖
//	@Tags			上传
//	@Accept			application/octet-stream
//	@Produce		application/json
//	@Param			user-id		header	string	true	"用户ID"
//	@Param			uploadId	path	string	true	"上传ID"
//	@Param			partIndex	path	int		true	"分片序号，从0开始"
//	@Success		204
//	@Failure		400	{object}	web.Response
//	@Failure		403	{object}	web.Response
//	@Failure		404	{object}	web.Response
//	@Failure		413	{object}	web.Response
//	@Router			/api/uploads/{uploadId}/parts/{partIndex} [put]
func (h *UploadHandler) UploadPart(c *gin.Context) {
	uploadId := c.Param("uploadId")
	index, err := strconv.Atoi(c.Param("partIndex"))
	if err != nil {
		web.BadRequest(c, "partIndex参数有误")
		return
	}
	max := h.manager.ChunkSize()
	if c.Request.ContentLength > max {
		// 先校验归属，不向非所有者暴露会话信息
		if err := h.manager.CheckPart(c.Request.Context(), uploadId, middleware.UserId(c), index); err != nil {
			h.fail(c, "upload_part", err)
			return
		}
		web.TooLarge(c, errBodyTooLarge.Error())
		return
	}
	body := &capReader{r: c.Request.Body, max: max}
	if err := h.manager.UploadPart(c.Request.Context(), uploadId, middleware.UserId(c), index, body); err != nil {
		h.fail(c, "upload_part", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Status    查询上传进度
//
//	@Summary		查询上传进度
//	@Description	返回总分片数和已上传的分片序号，用于断点续传
//	@Tags			上传
//	@Produce		application/json
//	@Param			user-id		header		string	true	"用户ID"
//	@Param			uploadId	path		string	true	"上传ID"
//	@Success		200			{object}	models.UploadStatusResp
//	@Failure		403			{object}	web.Response
//	@Failure		404			{object}	web.Response
//	@Router			/api/uploads/{uploadId}/status [get]
func (h *UploadHandler) Status(c *gin.Context) {
	resp, err := h.manager.Status(c.Request.Context(), c.Param("uploadId"), middleware.UserId(c))
	if err != nil {
		h.fail(c, "status", err)
		return
	}
	web.Raw(c, http.StatusOK, resp)
}

// Finalize    合并分片并发布
//
//	@Summary		合并分片并发布
//	@Description	合并已上传分片，可选裁剪，创建帖子；请求体可为空
//	@Tags			上传
//	@Accept			application/json
//	@Produce		application/json
//	@Param			user-id		header		string						true	"用户ID"
//	@Param			uploadId	path		string						true	"上传ID"
//	@Param			RequestBody	body		models.FinalizeUploadReq	false	"覆盖参数"
//	@Success		200			{object}	models.PostDto
//	@Failure		400			{object}	web.Response
//	@Failure		403			{object}	web.Response
//	@Failure		404			{object}	web.Response
//	@Failure		500			{object}	web.Response
//	@Router			/api/uploads/{uploadId}/finalize [post]
func (h *UploadHandler) Finalize(c *gin.Context) {
	var req models.FinalizeUploadReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		web.ParamsError(c, err)
		return
	}
	post, err := h.manager.Finalize(c.Request.Context(), c.Param("uploadId"), middleware.UserId(c), &req)
	if err != nil {
		h.fail(c, "finalize", err)
		return
	}
	web.Raw(c, http.StatusOK, post)
}
