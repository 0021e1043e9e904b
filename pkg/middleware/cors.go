package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/notesphere/pkg/configs"
)

const corsMaxAge = 12 * time.Hour

// CORSMiddleware CORS中间件.
// Web 端、移动端与局域网调试都需要跨域携带令牌，放行任意来源.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowOriginFunc = func(string) bool { return true }
	config.AllowCredentials = true
	config.AddAllowHeaders("Authorization", "X-Cache-Bypass")
	config.AddExposeHeaders("Content-Disposition", "X-Cache", "X-Downloads-Remaining")
	config.MaxAge = corsMaxAge

	if cfg.Debug {
		config.AllowFiles = true
	}

	return cors.New(config)
}
