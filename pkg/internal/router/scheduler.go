package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/internal/handle"
	"github.com/yeisme/photovault/pkg/middleware"
)

// RegisterSchedulerRoutes 注册调度器运维路由，仅 admin 角色可用.
func RegisterSchedulerRoutes(g *gin.RouterGroup) {
	sched := g.Group("/scheduler", middleware.RequireMinRole(middleware.RoleAdmin))

	sched.GET("/jobs", handle.SchedulerJobs)
	sched.POST("/jobs/stop", handle.SchedulerStopJobs)
	sched.DELETE("/jobs/:id", handle.SchedulerRemoveJob)
	sched.GET("/queue/waiting", handle.SchedulerQueueWaiting)
}
