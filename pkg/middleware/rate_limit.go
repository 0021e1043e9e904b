package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/notesphere/pkg/configs"
	"github.com/yeisme/notesphere/pkg/internal/types"
)

const (
	limiterIdleTTL      = 10 * time.Minute
	limiterSweepEvery   = time.Minute
	rateLimitedMessage  = "Too many requests, please try again later"
	rateLimitedCodeName = "RATE_LIMITED"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware 返回一个基于配置的限流中间件.
// Key 支持 global、ip、token（按 Authorization 头，未登录退回 IP）与 header:Name.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	keyMode := strings.ToLower(strings.TrimSpace(cfg.Key))
	if keyMode == "global" || keyMode == "" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return func(c *gin.Context) {
			if quietPath(c.Request.URL.Path) || limiter.Allow() {
				c.Next()
				return
			}

			rejectRateLimited(c)
		}
	}

	var (
		mu       sync.Mutex
		visitors = map[string]*visitor{}
	)

	allow := func(key string, now time.Time) bool {
		mu.Lock()
		defer mu.Unlock()

		v, ok := visitors[key]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)}
			visitors[key] = v
		}
		v.lastSeen = now

		return v.limiter.AllowN(now, 1)
	}

	go func() {
		ticker := time.NewTicker(limiterSweepEvery)
		defer ticker.Stop()

		for now := range ticker.C {
			mu.Lock()
			for k, v := range visitors {
				if now.Sub(v.lastSeen) > limiterIdleTTL {
					delete(visitors, k)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		if quietPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		if !allow(limitKey(c, keyMode), time.Now()) {
			rejectRateLimited(c)
			return
		}

		c.Next()
	}
}

func limitKey(c *gin.Context, keyMode string) string {
	var key string

	switch {
	case keyMode == "token":
		// 限流先于鉴权执行，这里只对令牌做摘要，不解析
		if h := c.GetHeader("Authorization"); h != "" {
			key = fmt.Sprintf("tok:%x", xxhash.Sum64String(h))
		}
	case strings.HasPrefix(keyMode, "header:"):
		if h := c.GetHeader(strings.TrimPrefix(keyMode, "header:")); h != "" {
			key = "hdr:" + h
		}
	}

	if key == "" {
		key = "ip:" + clientIP(c)
	}

	return key
}

func rejectRateLimited(c *gin.Context) {
	c.Header("Retry-After", "1")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, types.ErrorResponse{
		Message: rateLimitedMessage,
		Code:    rateLimitedCodeName,
	})
}

func clientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}

	return host
}
