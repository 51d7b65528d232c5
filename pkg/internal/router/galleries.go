package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/internal/handle"
)

// RegisterGalleriesRoutes 注册相册管理相关路由.
func RegisterGalleriesRoutes(g *gin.RouterGroup) {
	// 相册路由
	galleriesRoutes := g.Group("/galleries")
	{
		galleriesRoutes.POST("", handle.CreateGallery) // 创建相册
		galleriesRoutes.GET("", handle.ListGalleries)  // 获取相册列表

		// 单个相册操作
		singleGroup := galleriesRoutes.Group("/:galleryId")
		{
			singleGroup.GET("", handle.GetGallery)       // 获取相册详情
			singleGroup.PUT("", handle.UpdateGallery)    // 更新相册
			singleGroup.DELETE("", handle.DeleteGallery) // 删除相册（级联）

			singleGroup.GET("/photos", handle.ListGalleryPhotos) // 相册照片列表
			singleGroup.GET("/stats", handle.GalleryStats)       // 相册下载统计
		}
	}

	// 公开相册页，匿名可访问
	g.GET("/p/:username/:slug", handle.PublicGallery)
}
