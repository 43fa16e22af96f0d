package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

/*
错误响应体，没有自定义业务错误代码，和httpCode保持统一；
上传接口的成功响应直接返回业务对象
*/

// Response 响应结构体
type Response struct {
	Code    int         `json:"code"`    // 自定义错误码
	Message string      `json:"message"` // 信息
	Data    interface{} `json:"data"`    // 数据
}

// FieldError 单个字段的校验错误
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// Success 响应成功，带信封
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		0,
		"ok",
		data,
	})
}

// Raw 直接返回业务对象
func Raw(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

// Error 按状态码返回错误信封
func Error(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, Response{
		code,
		msg,
		"",
	})
}

// ParamsError 参数错误，validator 的错误按字段展开
func ParamsError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		items := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			items = append(items, FieldError{Field: lowerFirst(fe.Field()), Rule: fe.Tag(), Param: fe.Param()})
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, Response{
			http.StatusBadRequest,
			"参数校验失败",
			items,
		})
		return
	}
	Error(c, http.StatusBadRequest, err.Error())
}

// BadRequest .
func BadRequest(c *gin.Context, msg string) {
	Error(c, http.StatusBadRequest, msg)
}

// InternalError 内部错误
func InternalError(c *gin.Context, msg string) {
	Error(c, http.StatusInternalServerError, msg)
}

// UnAuthorization 未授权
func UnAuthorization(c *gin.Context, msg string) {
	Error(c, http.StatusUnauthorized, msg)
}

// Forbidden 无权操作
func Forbidden(c *gin.Context, msg string) {
	Error(c, http.StatusForbidden, msg)
}

// NotFoundResource 资源不存在
func NotFoundResource(c *gin.Context, msg string) {
	Error(c, http.StatusNotFound, msg)
}

// Conflict .
func Conflict(c *gin.Context, msg string) {
	Error(c, http.StatusConflict, msg)
}

// TooLarge 请求体超限
func TooLarge(c *gin.Context, msg string) {
	Error(c, http.StatusRequestEntityTooLarge, msg)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
