package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/internal/handle"
)

// RegisterStatsRoutes 注册统计相关路由.
func RegisterStatsRoutes(g *gin.RouterGroup) {
	// 统计路由
	statsRoutes := g.Group("/stats")
	{
		statsRoutes.GET("/summary", handle.GetStatsSummary) // 账户维度汇总统计
	}
}
