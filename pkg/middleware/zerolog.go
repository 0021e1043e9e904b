package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	ctxPkg "github.com/yeisme/notesphere/pkg/context"
	"github.com/yeisme/notesphere/pkg/log"
)

// 探活与指标抓取不记请求日志.
var quietPrefixes = []string{"/metrics", "/api/health"}

// GinLoggerMiddleware 使用 zerolog 记录请求日志，带调用者与 trace id；5xx 记为 error，4xx 记为 warn.
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		for _, p := range quietPrefixes {
			if strings.HasPrefix(path, p) && c.Writer.Status() < http.StatusInternalServerError {
				return
			}
		}

		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		logger := ctxPkg.WithTraceContext(c.Request.Context(), *log.Logger())
		status := c.Writer.Status()

		var event *zerolog.Event

		switch {
		case status >= http.StatusInternalServerError:
			event = logger.Error()
		case status >= http.StatusBadRequest:
			event = logger.Warn()
		default:
			event = logger.Info()
		}

		event = event.
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("route", c.FullPath()).
			Str("client_ip", c.ClientIP()).
			Int("bytes", c.Writer.Size())

		if u := CurrentUser(c); u != nil {
			event = event.Uint("user_id", u.ID).Str("role", string(u.Role))
		}

		if len(c.Errors) > 0 {
			event = event.Str("error", c.Errors.String())
		}

		event.Msg("HTTP request")
	}
}
