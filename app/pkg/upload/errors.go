package upload

import (
	"errors"
	"net/http"
)

// 错误类型，调用方用 errors.Is 判断
var (
	ErrSessionNotFound  = errors.New("上传会话不存在")
	ErrForbidden        = errors.New("无权操作该上传会话")
	ErrInvalidPartIndex = errors.New("分片序号越界")
	ErrInvalidRequest   = errors.New("请求参数有误")
	ErrAlreadyExists    = errors.New("上传会话已存在")
	ErrNoPartsFound     = errors.New("没有已上传的分片")
)

// HTTPStatus 错误类型到状态码，未知错误一律 500
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidPartIndex), errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrNoPartsFound):
		return http.StatusBadRequest
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
