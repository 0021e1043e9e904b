// Package handle 提供 HTTP 请求处理器的实现.
package handle

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/types"
	"github.com/yeisme/notesphere/pkg/log"
	"github.com/yeisme/notesphere/pkg/rule"
)

const msgServerError = "Server error"

// NotFound 未匹配路由.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, types.ErrorResponse{Message: "Route not found", Code: string(apperr.KindNotFound)})
}

// statusOf 错误类别到 HTTP 状态码.
func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden, apperr.KindQuotaExceeded, apperr.KindPremiumRequired:
		return http.StatusForbidden
	case apperr.KindNotFound, apperr.KindFileMissing:
		return http.StatusNotFound
	case apperr.KindInvalidRating, apperr.KindInvalid:
		return http.StatusBadRequest
	case apperr.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError 把业务错误写成 JSON 响应.
func writeError(c *gin.Context, err error) {
	l := log.Logger()

	var ae *apperr.Error
	if !errors.As(err, &ae) {
		l.Error().Err(err).Str("path", c.FullPath()).Msg("unexpected error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse{Message: msgServerError})

		return
	}

	status := statusOf(ae.Kind)
	resp := types.ErrorResponse{
		Message:         ae.Message,
		Code:            string(ae.Kind),
		LimitReached:    ae.Kind == apperr.KindQuotaExceeded,
		PremiumRequired: ae.Kind == apperr.KindPremiumRequired,
	}

	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		// 不向客户端暴露底层错误
		resp.Message = "Service temporarily unavailable"
	} else {
		l.Debug().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("request rejected")
	}

	c.AbortWithStatusJSON(status, resp)
}

// writeBindError 请求参数校验失败.
func writeBindError(c *gin.Context, err error) {
	resp := types.ErrorResponse{Message: "Please provide all required fields", Code: string(apperr.KindInvalid)}
	if fields := rule.Errors(err); fields != nil {
		resp.Fields = fields
	} else {
		resp.Message = "Invalid request: " + err.Error()
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}

// paramID 解析路径中的数字 id.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, types.ErrorResponse{
			Message: "Invalid " + name,
			Code:    string(apperr.KindInvalid),
		})

		return 0, false
	}

	return uint(id), true
}
