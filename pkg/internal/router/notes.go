package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/notesphere/pkg/internal/handle"
	"github.com/yeisme/notesphere/pkg/middleware"
)

// RegisterNotesRoutes 注册笔记路由，listCache 非 nil 时用于缓存公开列表.
func RegisterNotesRoutes(g *gin.RouterGroup, listCache gin.HandlerFunc) {
	notesRoutes := g.Group("/notes")
	{
		if listCache != nil {
			notesRoutes.GET("", listCache, handle.ListNotes)
		} else {
			notesRoutes.GET("", handle.ListNotes)
		}

		authed := notesRoutes.Group("", middleware.RequireAuth())
		{
			authed.POST("/upload", handle.UploadNote)
			authed.GET("/my-notes", handle.MyNotes)
			authed.GET("/download/:id", handle.DownloadNote)
			authed.POST("/:id/rate", handle.RateNote)
			authed.POST("/:id/summary", handle.GenerateSummary)
			authed.DELETE("/:id", handle.DeleteNote)
		}

		notesRoutes.GET("/:id", handle.GetNote)
	}
}
