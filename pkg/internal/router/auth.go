package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/notesphere/pkg/internal/handle"
	"github.com/yeisme/notesphere/pkg/middleware"
)

// RegisterAuthRoutes 注册身份认证路由.
func RegisterAuthRoutes(g *gin.RouterGroup) {
	authRoutes := g.Group("/auth")
	{
		authRoutes.POST("/register", handle.Register)
		authRoutes.POST("/login", handle.Login)

		authRoutes.GET("/me", middleware.RequireAuth(), handle.Me)
		authRoutes.PUT("/profile", middleware.RequireAuth(), handle.UpdateProfile)
	}
}
