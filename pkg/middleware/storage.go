package middleware

import (
	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/notesphere/pkg/context"
	"github.com/yeisme/notesphere/pkg/internal/storage"
)

// StorageMiddleware 把存储管理器放进请求 context，供健康检查探测各存储后端.
// manager 为 nil 时直接放行，探测结果为 down.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	if manager == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxPkg.WithStorageManager(c.Request.Context(), manager))
		c.Next()
	}
}
