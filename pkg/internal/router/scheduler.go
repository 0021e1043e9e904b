package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/notesphere/pkg/internal/handle"
)

// RegisterSchedulerRoutes 注册调度器管理路由.
func RegisterSchedulerRoutes(g *gin.RouterGroup) {
	g.GET("/scheduler/jobs", handle.SchedulerJobs)
	g.POST("/scheduler/jobs/stop", handle.SchedulerStopJobs)
	g.POST("/scheduler/jobs/:name/run", handle.SchedulerRunJob)
	g.DELETE("/scheduler/jobs/:id", handle.SchedulerRemoveJob)
	g.GET("/scheduler/queue/waiting", handle.SchedulerQueueWaiting)
}
