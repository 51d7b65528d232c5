// Package router 管理路由配置，用于设置HTTP服务的路由规则.
// router 包只负责将路径和处理器绑定到 gin 引擎，处理器的实现由 pkg/internal/handle 提供.
package router

import (
	"github.com/gin-gonic/gin"
)

// Register 将所有业务路由绑定到传入的 gin 路由组
// （假定上层会用 api := e.Group("/api/v1")）.
func Register(g *gin.RouterGroup) {
	RegisterGalleriesRoutes(g)
	RegisterPhotosRoutes(g)
	RegisterSharesRoutes(g)
	RegisterStatsRoutes(g)
	RegisterHealthCheckRoute(g)
	RegisterSchedulerRoutes(g)
}
