package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/internal/handle"
)

// RegisterPhotosRoutes 注册照片上传与访问相关路由.
func RegisterPhotosRoutes(g *gin.RouterGroup) {
	// 上传路由（生成 PUT 预签名 URL）
	uploadsRoutes := g.Group("/uploads")
	{
		uploadsRoutes.POST("/sign", handle.SignUpload)
	}

	// 照片路由
	photosRoutes := g.Group("/photos")
	{
		// 客户端直传完成后登记照片元数据
		photosRoutes.POST("/complete", handle.CompleteUpload)

		// 批量删除照片
		photosRoutes.POST("/bulk-delete", handle.BulkDeletePhotos)

		// 打包下载（流式 zip）
		photosRoutes.POST("/archive", handle.ArchivePhotos)

		// 获取照片访问 URL（生成 GET 预签名 URL）
		photosRoutes.GET("/:photoId/url", handle.GetPhotoURL)
	}
}
