package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/internal/handle"
)

// RegisterSharesRoutes 注册分享链接相关路由.
func RegisterSharesRoutes(g *gin.RouterGroup) {
	// 分享链接管理路由（需要所有者身份）
	sharesRoutes := g.Group("/shares")
	{
		sharesRoutes.POST("", handle.CreateShareLink)           // 创建分享链接
		sharesRoutes.GET("", handle.ListShareLinks)             // 获取分享链接列表
		sharesRoutes.DELETE("/:linkId", handle.DeleteShareLink) // 删除分享链接
	}

	// 公开解析端点：credential 可以是 token 或 alias
	g.GET("/s/:credential", handle.ResolveShare)
}
