// Package middleware 提供 HTTP 中间件：鉴权、限流、熔断、缓存、日志与追踪.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/notesphere/pkg/scheduler"
)

const schedulerKey = "notesphere.scheduler"

// SchedulerMiddleware 让管理员接口可以查看和手动触发订阅过期、目录刷新等任务.
func SchedulerMiddleware(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(schedulerKey, sched)
		c.Next()
	}
}

// GetScheduler 未启用调度器时返回 nil.
func GetScheduler(c *gin.Context) *scheduler.Scheduler {
	if v, ok := c.Get(schedulerKey); ok {
		if sched, ok := v.(*scheduler.Scheduler); ok {
			return sched
		}
	}

	return nil
}
