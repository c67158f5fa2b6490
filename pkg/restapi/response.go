package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"club-notification-service/pkg/errno"
	"club-notification-service/pkg/logger"
)

// Response 统一响应结构。
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 返回 200 与业务数据。
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Response{
		Code:    errno.OK.Code,
		Message: errno.OK.Message,
		Data:    data,
	})
}

// Failed 根据错误码选择 HTTP 状态。
func Failed(ctx *gin.Context, err error) {
	FailedWithStatus(ctx, err, errno.From(err).HTTPStatus())
}

// FailedWithStatus writes the error envelope with an explicit HTTP status.
func FailedWithStatus(ctx *gin.Context, err error, status int) {
	e := errno.From(err)
	if status >= http.StatusInternalServerError {
		logger.WithContext(ctx.Request.Context()).Errorf("%s %s failed: %v", ctx.Request.Method, ctx.FullPath(), err)
	}
	ctx.AbortWithStatusJSON(status, Response{
		Code:    e.Code,
		Message: errno.MessageOf(err),
	})
}
