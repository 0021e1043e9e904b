package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/notesphere/pkg/internal/handle"
	"github.com/yeisme/notesphere/pkg/middleware"
)

// RegisterAdminRoutes 注册管理后台路由，全部要求管理员身份.
func RegisterAdminRoutes(g *gin.RouterGroup) {
	adminRoutes := g.Group("/admin", middleware.RequireAuth(), middleware.RequireAdmin())
	{
		adminRoutes.GET("/dashboard", handle.Dashboard)

		adminRoutes.GET("/users", handle.ListUsers)
		adminRoutes.PUT("/users/:id", handle.UpdateUser)
		adminRoutes.DELETE("/users/:id", handle.DeleteUser)

		adminRoutes.PUT("/notes/:id/verify", handle.VerifyNote)
		adminRoutes.GET("/downloads/export", handle.ExportDownloads)

		RegisterSchedulerRoutes(adminRoutes)
	}
}
